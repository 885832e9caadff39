package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func serveOps(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name     string
		pinger   Pinger
		emitter  events.Emitter
		wantCode int
		wantBody string
	}{
		{
			name:     "healthy",
			pinger:   env.db,
			emitter:  events.NewNopEmitter(zap.NewNop()),
			wantCode: http.StatusOK,
			wantBody: "healthy",
		},
		{
			name:     "database down",
			pinger:   pingerFunc(func() error { return errors.New("connection refused") }),
			emitter:  events.NewNopEmitter(zap.NewNop()),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unhealthy: database connection failed",
		},
		{
			name:     "broker down",
			pinger:   env.db,
			emitter:  &recordingEmitter{unhealthy: true},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unhealthy: rabbitmq connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOpsHandler(tt.pinger, tt.emitter, env.reg, zap.NewNop())

			w := serveOps(t, h, "/healthz")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupServer(t)

	// Drive one request through the app so the histogram has a sample.
	require.Equal(t, http.StatusOK, env.get(t, "/").Code)

	h := NewOpsHandler(env.db, env.emitter, env.reg, zap.NewNop())
	w := serveOps(t, h, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "library_books 10")
	assert.Contains(t, body, "library_authors 7")
	assert.Contains(t, body, `library_http_request_duration_seconds_count{method="GET",route="/",status="200"} 1`)
}
