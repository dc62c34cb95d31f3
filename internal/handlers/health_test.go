package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		redisErr   error
		wantStatus int
		wantBody   string
	}{
		{"all up", nil, nil, http.StatusOK, "healthy"},
		{"redis down", nil, errors.New("dial tcp"), http.StatusOK, "degraded"},
		{"database down", errors.New("dial tcp"), nil, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&MockHealthChecker{Err: tt.dbErr}, testLogger()).
				WithOptional("redis", &MockHealthChecker{Err: tt.redisErr})

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var resp HealthResponse
			AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.wantBody, resp.Status)
		})
	}
}
