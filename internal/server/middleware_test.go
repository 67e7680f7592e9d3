package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnavailableWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		header          string
		status          int
		wantContentType string
	}{
		{"503 without header", "", http.StatusServiceUnavailable, "application/json"},
		{"503 keeps header", "text/plain", http.StatusServiceUnavailable, "text/plain"},
		{"other status", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			w := &unavailableWriter{ResponseWriter: rec}
			if tt.header != "" {
				w.Header().Set("Content-Type", tt.header)
			}
			w.WriteHeader(tt.status)
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("x"))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantContentType,
				rec.Header().Get("Content-Type"))
		})
	}
}

func TestTimeoutJSON(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports", nil)
	timeoutJSON(slow, 20*time.Millisecond).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"request timed out"}`, rec.Body.String())
}

func TestTimeoutJSONPassesFastResponses(t *testing.T) {
	t.Parallel()

	fast := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]int{"n": 1})
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports", nil)
	timeoutJSON(fast, time.Second).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
