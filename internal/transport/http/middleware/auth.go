package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

const (
	accountKey      = "account"
	sessionTokenKey = "session_token"

	unauthenticatedMessage = "No valid session found"
)

// SessionAuthenticator resolves a raw session token.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*usecase.AuthenticatedSession, error)
}

// ResolveSession authenticates the signed cookie first and then the
// Authorization: Bearer header. A cookie whose session is gone is cleared
// and the bearer token is still tried. Returns usecase.ErrSessionInvalid
// when neither yields a live session.
func ResolveSession(c *gin.Context, auth SessionAuthenticator, cookie *SessionCookie) (*usecase.AuthenticatedSession, string, error) {
	ctx := c.Request.Context()

	var cookieToken string
	if cookie != nil {
		if token, ok := cookie.Token(c); ok {
			session, err := auth.Authenticate(ctx, token)
			if err == nil {
				return session, token, nil
			}
			if !errors.Is(err, usecase.ErrSessionInvalid) {
				return nil, "", err
			}
			cookie.Clear(c)
			cookieToken = token
		}
	}

	token, ok := bearerToken(c)
	if !ok || token == cookieToken {
		return nil, "", usecase.ErrSessionInvalid
	}
	session, err := auth.Authenticate(ctx, token)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireSession rejects requests without a live session and attaches the
// account projection for handlers.
func RequireSession(auth SessionAuthenticator, cookie *SessionCookie, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		session, token, err := ResolveSession(c, auth, cookie)
		if err != nil {
			if errors.Is(err, usecase.ErrSessionInvalid) {
				Fail(c, apierror.New(http.StatusUnauthorized, unauthenticatedMessage))
				return
			}
			Fail(c, apierror.Wrap(http.StatusInternalServerError, apierror.InternalMessage, err))
			return
		}

		c.Set(accountKey, session.Account)
		c.Set(sessionTokenKey, token)
		c.Set(AccountIDKey, session.Account.ID)
		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = session.Account.ID
		}

		c.Next()
	}
}

// CurrentAccount returns the projection attached by RequireSession.
func CurrentAccount(c *gin.Context) (domain.AccountProjection, bool) {
	value, exists := c.Get(accountKey)
	if !exists {
		return domain.AccountProjection{}, false
	}
	account, ok := value.(domain.AccountProjection)
	return account, ok
}

// CurrentSessionToken returns the token accepted by RequireSession.
func CurrentSessionToken(c *gin.Context) string {
	return c.GetString(sessionTokenKey)
}
