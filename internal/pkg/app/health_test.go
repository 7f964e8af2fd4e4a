package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (c stubChecker) HealthCheck(context.Context) error {
	return c.err
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all healthy",
			checkers:   []HealthChecker{stubChecker{}, stubChecker{}},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "database down",
			checkers:   []HealthChecker{stubChecker{}, stubChecker{err: errors.New("connection refused")}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			webApp := NewFiberApp(WebConfig{Prefix: "/api"}, nil, test.checkers, nil, nil, logger)

			resp, err := webApp.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, test.wantStatus, resp.StatusCode)
			assert.Equal(t, test.wantBody, body["status"])
		})
	}
}
