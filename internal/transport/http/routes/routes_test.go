package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	httproutes "github.com/phamyourfam/blissbite/internal/transport/http/routes"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

type stubSignup struct{}

func (stubSignup) Start(ctx context.Context, input usecase.StartSignupInput) (*usecase.StartSignupResult, error) {
	return nil, usecase.ErrSignupFieldsRequired
}

func (stubSignup) Resend(ctx context.Context, email, tempAccountID string) error {
	return usecase.ErrTempSignupNotFound
}

func (stubSignup) Verify(ctx context.Context, input usecase.VerifyEmailInput) (*usecase.VerifyEmailResult, error) {
	return nil, usecase.ErrVerificationNotFound
}

func (stubSignup) Complete(ctx context.Context, input usecase.CompleteSignupInput) (*usecase.CompleteSignupResult, error) {
	return nil, usecase.ErrVerificationTokenInvalid
}

type stubSessions struct{}

func (stubSessions) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error) {
	return nil, usecase.ErrInvalidCredentials
}

func (stubSessions) Logout(ctx context.Context, token string) error { return nil }

func (stubSessions) Authenticate(ctx context.Context, token string) (*usecase.AuthenticatedSession, error) {
	if token != "pro-token" {
		return nil, usecase.ErrSessionInvalid
	}
	return &usecase.AuthenticatedSession{Account: domain.AccountProjection{ID: "pro-1", AccountType: domain.AccountTypeProfessional}}, nil
}

type stubAccounts struct{}

func (stubAccounts) List(ctx context.Context, page domain.Page) ([]domain.Account, domain.PageInfo, error) {
	return nil, domain.NewPageInfo(page, 0), nil
}

func (stubAccounts) Get(ctx context.Context, id string) (*domain.Account, error) {
	return nil, usecase.ErrAccountNotFound
}

func (stubAccounts) Create(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return nil, usecase.ErrAccountInvalid
}

func (stubAccounts) Update(ctx context.Context, callerID, id string, patch domain.AccountPatch) (*domain.Account, error) {
	return nil, usecase.ErrAccountForbidden
}

func (stubAccounts) Delete(ctx context.Context, callerID, id string) error {
	return usecase.ErrAccountForbidden
}

// stubEstablishments reports 12 establishments and returns the requested window of them.
type stubEstablishments struct{}

func (stubEstablishments) List(ctx context.Context, accountID string, page domain.Page) ([]domain.Establishment, domain.PageInfo, error) {
	const total = 12
	page = page.Normalize()
	var items []domain.Establishment
	for i := page.Offset(); i < total && len(items) < page.Limit; i++ {
		items = append(items, domain.Establishment{ID: "est", ProfessionalAccountID: accountID})
	}
	return items, domain.NewPageInfo(page, total), nil
}

func (stubEstablishments) Get(ctx context.Context, accountID, id string) (*domain.Establishment, error) {
	return nil, usecase.ErrEstablishmentNotFound
}

func (stubEstablishments) Create(ctx context.Context, accountID string, input usecase.CreateEstablishmentInput) (*domain.Establishment, error) {
	return nil, usecase.ErrEstablishmentInvalid
}

func (stubEstablishments) Update(ctx context.Context, accountID, id string, patch domain.EstablishmentPatch) (*domain.Establishment, error) {
	return nil, usecase.ErrEstablishmentNotFound
}

func (stubEstablishments) Delete(ctx context.Context, accountID, id string) error {
	return usecase.ErrEstablishmentNotFound
}

type stubProducts struct{}

func (stubProducts) List(ctx context.Context, accountID string, filter domain.ProductFilter) ([]domain.Product, domain.PageInfo, error) {
	return nil, domain.NewPageInfo(filter.Page, 0), nil
}

func (stubProducts) Get(ctx context.Context, accountID, establishmentID, id string) (*domain.Product, error) {
	return nil, usecase.ErrProductNotFound
}

func (stubProducts) Create(ctx context.Context, accountID, establishmentID string, input usecase.CreateProductInput) (*domain.Product, error) {
	return nil, usecase.ErrProductInvalid
}

func (stubProducts) Update(ctx context.Context, accountID, establishmentID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return nil, usecase.ErrProductNotFound
}

func (stubProducts) Delete(ctx context.Context, accountID, establishmentID, id string) error {
	return usecase.ErrProductNotFound
}

type stubReviews struct{}

func (stubReviews) List(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, domain.PageInfo, error) {
	return nil, domain.NewPageInfo(page, 0), nil
}

func (stubReviews) Create(ctx context.Context, accountID string, input usecase.CreateReviewInput) (*domain.Review, error) {
	return nil, usecase.ErrReviewInvalid
}

type stubFavorites struct{}

func (stubFavorites) List(ctx context.Context, accountID string) ([]domain.Favorite, error) {
	return nil, nil
}

func (stubFavorites) Add(ctx context.Context, accountID string, target domain.Target) (*domain.Favorite, error) {
	return nil, usecase.ErrFavoriteExists
}

func (stubFavorites) Remove(ctx context.Context, accountID, id string) error {
	return usecase.ErrFavoriteNotFound
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error        { return f(ctx) }
func (f pingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App:     config.AppSettings{Env: config.EnvTest, APIVersion: "v1", FrontendURL: "http://localhost:5173"},
		Session: config.SessionSettings{CookieName: "sid", CookieSecret: "routes-test-secret", CookieMaxAge: time.Hour},
		RateLimit: config.RateLimitSettings{
			WindowDuration:    time.Minute,
			LoginMaxAttempts:  1,
			SignupMaxAttempts: 5,
			VerifyMaxAttempts: 5,
		},
	}
}

func newRouter(t *testing.T, mutate func(*httproutes.Dependencies)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := httproutes.Dependencies{
		Config: testConfig(),
		Logger: zap.NewNop(),
		Services: httproutes.ServiceSet{
			Signup:         stubSignup{},
			Sessions:       stubSessions{},
			Accounts:       stubAccounts{},
			Establishments: stubEstablishments{},
			Products:       stubProducts{},
			Reviews:        stubReviews{},
			Favorites:      stubFavorites{},
		},
	}
	if mutate != nil {
		mutate(&deps)
	}

	router, err := httproutes.Register(deps)
	if err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return router
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func failureBody(t *testing.T, rr *httptest.ResponseRecorder) apierror.Body {
	t.Helper()
	var body apierror.Body
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(t, nil)

	rr := serve(router, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestReadinessReportsDependencies(t *testing.T) {
	router := newRouter(t, func(deps *httproutes.Dependencies) {
		deps.Database = pingFunc(func(ctx context.Context) error { return nil })
		deps.Cache = pingFunc(func(ctx context.Context) error { return errors.New("dial tcp: refused") })
	})

	rr := serve(router, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"postgres":"ok"`) || !strings.Contains(rr.Body.String(), "refused") {
		t.Fatalf("unexpected readiness body %s", rr.Body.String())
	}
}

func TestUnknownRouteUsesFailureShape(t *testing.T) {
	router := newRouter(t, nil)

	rr := serve(router, http.MethodGet, "/api/v1/nowhere", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := failureBody(t, rr); body.Status != "failed" || body.Message != "Route not found" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router := newRouter(t, nil)

	for _, path := range []string{"/api/v1/establishments", "/api/v1/accounts", "/api/v1/favorites", "/api/v1/establishments/e-1/products"} {
		rr := serve(router, http.MethodGet, path, "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
		if body := failureBody(t, rr); body.Message != "No valid session found" {
			t.Fatalf("%s: unexpected body %+v", path, body)
		}
	}
}

func TestEstablishmentsPagination(t *testing.T) {
	router := newRouter(t, nil)

	rr := serve(router, http.MethodGet, "/api/v1/establishments?page=2&limit=5", "pro-token")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Establishments []domain.Establishment `json:"establishments"`
		Pagination     domain.PageInfo        `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pagination.CurrentPage != 2 || body.Pagination.TotalPages != 3 || len(body.Establishments) > 5 {
		t.Fatalf("unexpected page %+v with %d items", body.Pagination, len(body.Establishments))
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	router := newRouter(t, func(deps *httproutes.Dependencies) {
		deps.RateLimiter = middleware.NewLocalRateLimiter(nil)
	})

	rr := serve(router, http.MethodPost, "/api/v1/authentication/login", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected first attempt to reach the handler, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = serve(router, http.MethodPost, "/api/v1/authentication/login", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if body := failureBody(t, rr); body.Status != "failed" || !strings.HasPrefix(body.Message, "Too many requests") {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestMetricsEndpointExposesRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newRouter(t, func(deps *httproutes.Dependencies) {
		deps.Registry = registry
	})

	serve(router, http.MethodGet, "/healthz", "")
	rr := serve(router, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `blissbite_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("expected healthz request counter, got:\n%s", rr.Body.String())
	}
}
