package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newAuthApp() *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fiberApp := fiber.New()
	fiberApp.Get("/me", JWTAuthMiddleware(testSecret, logger), func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": userID})
	})
	return fiberApp
}

func callMe(t *testing.T, authHeader string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}

	resp, err := newAuthApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestJWTAuthMiddleware(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     func(t *testing.T) string
		wantStatus int
		wantUserID float64
		wantMsg    string
	}{
		{
			name: "numeric subject",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": 7, "exp": exp})
			},
			wantStatus: http.StatusOK,
			wantUserID: 7,
		},
		{
			name: "string subject",
			header: func(t *testing.T) string {
				return "bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "12", "exp": exp})
			},
			wantStatus: http.StatusOK,
			wantUserID: 12,
		},
		{
			name:       "missing header",
			header:     func(*testing.T) string { return "" },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthenticated.",
		},
		{
			name:       "not a bearer",
			header:     func(*testing.T) string { return "Basic dXNlcjpwYXNz" },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid authorization format",
		},
		{
			name: "wrong secret",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": 7, "exp": exp})
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthenticated.",
		},
		{
			name: "wrong algorithm",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"sub": 7, "exp": exp})
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthenticated.",
		},
		{
			name: "expired",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
					jwt.MapClaims{"sub": 7, "exp": time.Now().Add(-time.Hour).Unix()})
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthenticated.",
		},
		{
			name: "no subject",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": exp})
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthenticated.",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, body := callMe(t, test.header(t))

			assert.Equal(t, test.wantStatus, status)
			if test.wantMsg != "" {
				assert.Equal(t, test.wantMsg, body["message"])
			} else {
				assert.Equal(t, test.wantUserID, body["user_id"])
			}
		})
	}
}
