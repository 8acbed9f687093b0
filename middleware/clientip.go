package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authchain"
)

// ForwardedFor records the left-most X-Forwarded-For address as the client
// IP via [authchain.WithClientIP]. Mount it only behind a proxy that
// overwrites the header; otherwise any caller can choose the recorded
// address. Requests without the header keep the socket peer.
func ForwardedFor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fwd := r.Header.Get("X-Forwarded-For")
		if fwd == "" {
			next.ServeHTTP(w, r)
			return
		}
		first, _, _ := strings.Cut(fwd, ",")
		ip := strings.TrimSpace(first)
		if net.ParseIP(ip) == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(authchain.WithClientIP(r.Context(), ip)))
	})
}
