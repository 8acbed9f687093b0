package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authchain"
)

const minSigningKeyBytes = 32

// CookieConfig configures [RefreshCookie].
type CookieConfig struct {
	// Name defaults to authchain.DefaultRefreshCookie.
	Name     string
	Path     string
	Domain   string
	SameSite http.SameSite
	// Production marks cookies Secure and signs their values with
	// SigningKey, which must then be at least 32 bytes.
	Production bool
	SigningKey []byte
}

// RefreshCookie writes, clears and reads the refresh token cookie.
type RefreshCookie struct {
	cfg CookieConfig
}

// NewRefreshCookie validates cfg. Production mode requires a signing key of
// at least 32 bytes.
func NewRefreshCookie(cfg CookieConfig) (*RefreshCookie, error) {
	if cfg.Name == "" {
		cfg.Name = authchain.DefaultRefreshCookie
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteStrictMode
	}
	if cfg.Production && len(cfg.SigningKey) < minSigningKeyBytes {
		return nil, errors.New("production refresh cookie requires a signing key of at least 32 bytes")
	}
	cfg.SigningKey = append([]byte(nil), cfg.SigningKey...)
	return &RefreshCookie{cfg: cfg}, nil
}

// Name returns the cookie name.
func (c *RefreshCookie) Name() string { return c.cfg.Name }

// Set writes token, expiring at expires.
func (c *RefreshCookie) Set(w http.ResponseWriter, token string, expires time.Time) {
	value := token
	if c.cfg.Production {
		value = token + "." + c.sign(token)
	}
	cookie := c.base()
	cookie.Value = value
	cookie.Expires = expires.UTC()
	if maxAge := int(time.Until(expires).Seconds()); maxAge > 0 {
		cookie.MaxAge = maxAge
	}
	http.SetCookie(w, cookie)
}

// Clear expires the cookie.
func (c *RefreshCookie) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

// Read returns the token stored in the cookie. In production mode a missing
// or wrong tag reads as no cookie.
func (c *RefreshCookie) Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	if !c.cfg.Production {
		return value, true
	}

	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	token, tag := value[:i], value[i+1:]
	if !hmac.Equal([]byte(tag), []byte(c.sign(token))) {
		return "", false
	}
	return token, true
}

// Extractor reads the refresh token from Request.RefreshToken, then from
// this cookie.
func (c *RefreshCookie) Extractor() authchain.TokenExtractor {
	return authchain.FirstOf(authchain.RefreshTokenField, func(req *authchain.Request) string {
		token, _ := c.Read(req.HTTP)
		return token
	})
}

func (c *RefreshCookie) base() *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Production,
		SameSite: c.cfg.SameSite,
	}
}

func (c *RefreshCookie) sign(token string) string {
	mac := hmac.New(sha256.New, c.cfg.SigningKey)
	mac.Write([]byte(c.cfg.Name))
	mac.Write([]byte{'='})
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
