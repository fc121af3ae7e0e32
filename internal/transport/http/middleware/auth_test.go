package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

type fakeAuthenticator struct {
	sessions map[string]domain.AccountProjection
	err      error
	seen     []string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*usecase.AuthenticatedSession, error) {
	f.seen = append(f.seen, token)
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.sessions[token]
	if !ok {
		return nil, usecase.ErrSessionInvalid
	}
	return &usecase.AuthenticatedSession{Account: account}, nil
}

func newAuthRouter(auth SessionAuthenticator, cookie *SessionCookie) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler(nil), EnrichContext())
	router.GET("/me", RequireSession(auth, cookie, nil), func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": account.ID, "token": CurrentSessionToken(c), "ctx": GetRequestContext(c).AccountID})
	})
	return router
}

func TestRequireSession(t *testing.T) {
	cookie := NewSessionCookie(SessionCookieOptions{Name: "sid", Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour})
	auth := &fakeAuthenticator{sessions: map[string]domain.AccountProjection{
		"tok-cookie": {ID: "acc-1"},
		"tok-bearer": {ID: "acc-2"},
	}}
	router := newAuthRouter(auth, cookie)

	issued := signedCookie(t, cookie, "tok-cookie")
	if !issued.HttpOnly || issued.Value == "tok-cookie" {
		t.Fatalf("expected a signed HttpOnly cookie, got %+v", issued)
	}
	loggedOut := signedCookie(t, cookie, "tok-logged-out")

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{name: "signed cookie", setup: func(r *http.Request) { r.AddCookie(issued) }, status: http.StatusOK, body: `"id":"acc-1"`},
		{name: "bearer header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok-bearer") }, status: http.StatusOK, body: `"ctx":"acc-2"`},
		{name: "dead cookie falls back to bearer", setup: func(r *http.Request) {
			r.AddCookie(loggedOut)
			r.Header.Set("Authorization", "Bearer tok-bearer")
		}, status: http.StatusOK, body: `"token":"tok-bearer"`},
		{name: "dead cookie alone", setup: func(r *http.Request) { r.AddCookie(loggedOut) }, status: http.StatusUnauthorized, body: "No valid session found"},
		{name: "tampered cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sid", Value: "tok-cookie"}) }, status: http.StatusUnauthorized, body: "No valid session found"},
		{name: "unknown bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized, body: "No valid session found"},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic tok-bearer") }, status: http.StatusUnauthorized, body: "No valid session found"},
		{name: "nothing", setup: func(r *http.Request) {}, status: http.StatusUnauthorized, body: `"status":"failed"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tc.body) {
				t.Fatalf("expected body to contain %q, got %s", tc.body, rr.Body.String())
			}
		})
	}
}

func TestRequireSession_DeadCookieIsCleared(t *testing.T) {
	cookie := NewSessionCookie(SessionCookieOptions{Name: "sid", Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour})
	auth := &fakeAuthenticator{sessions: map[string]domain.AccountProjection{"tok-bearer": {ID: "acc-2"}}}
	router := newAuthRouter(auth, cookie)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(signedCookie(t, cookie, "tok-logged-out"))
	req.Header.Set("Authorization", "Bearer tok-bearer")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(auth.seen) != 2 || auth.seen[0] != "tok-logged-out" || auth.seen[1] != "tok-bearer" {
		t.Fatalf("expected cookie then bearer to be tried, got %v", auth.seen)
	}
	cleared := rr.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Name != "sid" || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected the dead cookie to be expired, got %+v", cleared)
	}
}

func TestRequireSession_ServiceFailure(t *testing.T) {
	router := newAuthRouter(&fakeAuthenticator{err: errors.New("db down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestSessionCookieClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cookie := NewSessionCookie(SessionCookieOptions{Secret: "secret"})

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodPost, "/logout", nil)
	cookie.Clear(c)

	cleared := rr.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Name != "sid" || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected expired sid cookie, got %+v", cleared)
	}
}

func signedCookie(t *testing.T, cookie *SessionCookie, token string) *http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if err := cookie.Set(c, token); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	issued := rr.Result().Cookies()
	if len(issued) != 1 {
		t.Fatalf("expected one cookie, got %+v", issued)
	}
	return issued[0]
}
