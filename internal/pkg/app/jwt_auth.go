package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID binds the authenticated identity to ctx.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// JWTAuthMiddleware accepts HS256 bearer tokens whose `sub` claim is the user id.
func JWTAuthMiddleware(secret string, logger *slog.Logger) fiber.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated.",
			})
		}

		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid authorization format",
			})
		}

		userID, err := extractUserID(strings.TrimSpace(authHeader[7:]), keyFunc)
		if err != nil {
			logger.Debug("reject bearer token", slog.String("error", err.Error()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated.",
			})
		}

		c.Locals(string(userIDKey), userID)
		c.SetUserContext(WithUserID(c.UserContext(), userID))

		return c.Next()
	}
}

func extractUserID(token string, keyFunc jwt.Keyfunc) (int, error) {
	parsedToken, err := jwt.Parse(token, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, errors.Wrap(err, "parse jwt")
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid type of token claims")
	}

	switch sub := claims["sub"].(type) {
	case float64:
		if sub <= 0 || sub != float64(int(sub)) {
			return 0, fmt.Errorf("invalid 'sub' claim %v", sub)
		}
		return int(sub), nil
	case string:
		id, err := strconv.Atoi(sub)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid 'sub' claim %q", sub)
		}
		return id, nil
	default:
		return 0, errors.New("missing 'sub' in claims")
	}
}

func UserID(c *fiber.Ctx) (int, bool) {
	return UserIDFromContext(c.UserContext())
}
