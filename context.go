package authchain

import (
	"context"
	"net"
	"net/http"
)

type clientIPContextKey struct{}
type verificationContextKey struct{}

// WithClientIP attaches the caller's address to ctx. The credential strategy
// records it as the user's last login IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the address set by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// WithVerification stores a successful verification, typically from a guard
// middleware.
func WithVerification(ctx context.Context, v *Verification) context.Context {
	return context.WithValue(ctx, verificationContextKey{}, v)
}

// VerificationFromContext returns the verification stored by WithVerification.
func VerificationFromContext(ctx context.Context) (*Verification, bool) {
	v, ok := ctx.Value(verificationContextKey{}).(*Verification)
	return v, ok && v != nil
}

// sourceIP resolves the best-effort client address: explicit request field,
// then context, then the socket peer. Forwarding headers are never read here;
// a transport that sits behind a trusted proxy resolves them and calls
// WithClientIP.
func sourceIP(ctx context.Context, req *Request) string {
	if req.SourceIP != "" {
		return req.SourceIP
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		return ip
	}
	if req.HTTP == nil {
		return ""
	}
	return remoteIP(req.HTTP)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
