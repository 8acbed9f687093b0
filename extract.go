package authchain

import (
	"strings"
)

// DefaultRefreshCookie is the cookie the default refresh extractor reads.
const DefaultRefreshCookie = "refresh_token"

// TokenExtractor pulls a raw token out of a request, or returns "".
type TokenExtractor func(req *Request) string

// AccessTokenField reads Request.AccessToken.
func AccessTokenField(req *Request) string { return req.AccessToken }

// RefreshTokenField reads Request.RefreshToken.
func RefreshTokenField(req *Request) string { return req.RefreshToken }

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader() TokenExtractor {
	return func(req *Request) string {
		if req.HTTP == nil {
			return ""
		}
		h := req.HTTP.Header.Get("Authorization")
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
			return ""
		}
		return strings.TrimSpace(h[7:])
	}
}

// Header reads a named request header verbatim.
func Header(name string) TokenExtractor {
	return func(req *Request) string {
		if req.HTTP == nil {
			return ""
		}
		return strings.TrimSpace(req.HTTP.Header.Get(name))
	}
}

// Cookie reads a named cookie as is. Signed cookies need the matching
// extractor from the middleware package.
func Cookie(name string) TokenExtractor {
	return func(req *Request) string {
		if req.HTTP == nil {
			return ""
		}
		c, err := req.HTTP.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

// FirstOf returns the first non-empty result.
func FirstOf(extractors ...TokenExtractor) TokenExtractor {
	return func(req *Request) string {
		for _, ex := range extractors {
			if tok := ex(req); tok != "" {
				return tok
			}
		}
		return ""
	}
}

func defaultAccessExtractor() TokenExtractor {
	return FirstOf(AccessTokenField, BearerHeader())
}

func defaultRefreshExtractor(cookie string) TokenExtractor {
	if cookie == "" {
		cookie = DefaultRefreshCookie
	}
	return FirstOf(RefreshTokenField, Cookie(cookie))
}
