package middleware

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
)

// SessionCookieOptions configures the signed session cookie.
type SessionCookieOptions struct {
	Name   string
	Secret string
	MaxAge time.Duration
	Secure bool
}

// SessionCookie signs the opaque session token into an HttpOnly cookie.
type SessionCookie struct {
	name   string
	maxAge int
	secure bool
	codec  *securecookie.SecureCookie
}

// NewSessionCookie derives the HMAC key from the configured secret.
func NewSessionCookie(opts SessionCookieOptions) *SessionCookie {
	name := opts.Name
	if name == "" {
		name = "sid"
	}
	maxAge := int(opts.MaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int((7 * 24 * time.Hour) / time.Second)
	}

	hashKey := sha256.Sum256([]byte(opts.Secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(maxAge)

	return &SessionCookie{name: name, maxAge: maxAge, secure: opts.Secure, codec: codec}
}

// Name returns the cookie name.
func (s *SessionCookie) Name() string {
	return s.name
}

// Set writes the signed token.
func (s *SessionCookie) Set(c *gin.Context, token string) error {
	encoded, err := s.codec.Encode(s.name, token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, encoded, s.maxAge, "/", "", s.secure, true)
	return nil
}

// Token returns the session token from a correctly signed cookie.
func (s *SessionCookie) Token(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(s.name)
	if err != nil || raw == "" {
		return "", false
	}

	var token string
	if err := s.codec.Decode(s.name, raw, &token); err != nil {
		return "", false
	}
	return token, token != ""
}

// Clear expires the cookie on the client.
func (s *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, "", -1, "/", "", s.secure, true)
}
