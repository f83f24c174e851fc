package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// IsSecureRequest reports whether r arrived over TLS directly or through a
// proxy that set X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// HTTPSRedirect sends plain-HTTP requests to the same URL on httpsPort with a
// 307, preserving method and body.
func HTTPSRedirect(httpsPort int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsSecureRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
				host = "[" + host + "]"
			}
			if httpsPort != 443 {
				host += ":" + strconv.Itoa(httpsPort)
			}

			http.Redirect(w, r, "https://"+host+r.URL.RequestURI(), http.StatusTemporaryRedirect)
		})
	}
}
