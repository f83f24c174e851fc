package middleware

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtLifetime = 20 * time.Minute

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHTTPSRedirect(t *testing.T) {
	tests := []struct {
		name     string
		port     int
		host     string
		target   string
		tls      bool
		proto    string
		wantCode int
		wantLoc  string
	}{
		{"plain request", 8443, "example.com:8080", "/api/items?x=1", false, "", http.StatusTemporaryRedirect, "https://example.com:8443/api/items?x=1"},
		{"default port", 443, "example.com", "/health", false, "", http.StatusTemporaryRedirect, "https://example.com/health"},
		{"ipv6 host", 8443, "[::1]:8080", "/", false, "", http.StatusTemporaryRedirect, "https://[::1]:8443/"},
		{"already tls", 8443, "example.com", "/", true, "", http.StatusOK, ""},
		{"forwarded https", 8443, "example.com", "/", false, "https", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, nil)
			req.Host = tc.host
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}

			w := httptest.NewRecorder()
			HTTPSRedirect(tc.port)(okHandler).ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantLoc, w.Header().Get("Location"))
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	var seenTrace string
	var hasLogger bool
	h := TraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		hasLogger = logger.FromContext(r.Context()) != nil
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, seenTrace, 2*shared.TraceIDLength)
	assert.True(t, hasLogger)
}

func TestDeveloperExceptionPage(t *testing.T) {
	h := DeveloperExceptionPage(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Error   string       `json:"error"`
		Details PanicDetails `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "boom", body.Details.Panic)
	assert.Equal(t, "/explode", body.Details.Path)
	assert.True(t, strings.Contains(body.Details.Stack, "goroutine"))
}
