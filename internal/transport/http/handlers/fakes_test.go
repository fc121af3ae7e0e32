package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

const testCookieSecret = "handlers-test-cookie-secret-0123456789"

type fakeSignup struct {
	startResult    *usecase.StartSignupResult
	startErr       error
	resendErr      error
	verifyResult   *usecase.VerifyEmailResult
	verifyErr      error
	completeResult *usecase.CompleteSignupResult
	completeErr    error

	lastStart    usecase.StartSignupInput
	lastResend   [2]string
	lastVerify   usecase.VerifyEmailInput
	lastComplete usecase.CompleteSignupInput
}

func (f *fakeSignup) Start(ctx context.Context, input usecase.StartSignupInput) (*usecase.StartSignupResult, error) {
	f.lastStart = input
	return f.startResult, f.startErr
}

func (f *fakeSignup) Resend(ctx context.Context, email, tempAccountID string) error {
	f.lastResend = [2]string{email, tempAccountID}
	return f.resendErr
}

func (f *fakeSignup) Verify(ctx context.Context, input usecase.VerifyEmailInput) (*usecase.VerifyEmailResult, error) {
	f.lastVerify = input
	return f.verifyResult, f.verifyErr
}

func (f *fakeSignup) Complete(ctx context.Context, input usecase.CompleteSignupInput) (*usecase.CompleteSignupResult, error) {
	f.lastComplete = input
	return f.completeResult, f.completeErr
}

type fakeSessions struct {
	loginResult *usecase.LoginResult
	loginErr    error
	lastLogin   usecase.LoginInput
	live        map[string]domain.AccountProjection
	loggedOut   []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: map[string]domain.AccountProjection{}}
}

func (f *fakeSessions) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error) {
	f.lastLogin = input
	return f.loginResult, f.loginErr
}

func (f *fakeSessions) Authenticate(ctx context.Context, token string) (*usecase.AuthenticatedSession, error) {
	account, ok := f.live[token]
	if !ok {
		return nil, usecase.ErrSessionInvalid
	}
	return &usecase.AuthenticatedSession{Account: account}, nil
}

func (f *fakeSessions) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	delete(f.live, token)
	return nil
}

type fakeAccounts struct {
	accounts  map[string]domain.Account
	createErr error
	lastPage  domain.Page
	lastPatch domain.AccountPatch
}

func (f *fakeAccounts) List(ctx context.Context, page domain.Page) ([]domain.Account, domain.PageInfo, error) {
	f.lastPage = page
	items := make([]domain.Account, 0, len(f.accounts))
	for _, account := range f.accounts {
		items = append(items, account)
	}
	return items, domain.NewPageInfo(page, len(items)), nil
}

func (f *fakeAccounts) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, usecase.ErrAccountNotFound
	}
	return &account, nil
}

func (f *fakeAccounts) Create(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Account{
		ID:          "acc-new",
		Email:       input.Email,
		AccountType: domain.AccountTypePersonal,
		Status:      &domain.AccountStatus{ID: "st-new", State: domain.AccountStatePending},
	}, nil
}

func (f *fakeAccounts) Update(ctx context.Context, callerID, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if callerID != id {
		return nil, usecase.ErrAccountForbidden
	}
	f.lastPatch = patch
	account := f.accounts[id]
	if patch.Forename != nil {
		account.Forename = *patch.Forename
	}
	return &account, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, callerID, id string) error {
	if callerID != id {
		return usecase.ErrAccountForbidden
	}
	delete(f.accounts, id)
	return nil
}

// fakeEstablishments pages a fixed slice; only owner "pro-1" is professional.
type fakeEstablishments struct {
	items     []domain.Establishment
	lastPatch domain.EstablishmentPatch
}

func newFakeEstablishments(n int) *fakeEstablishments {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeEstablishments{}
	for i := n; i >= 1; i-- {
		f.items = append(f.items, domain.Establishment{
			ID:        "est-" + string(rune('a'+i-1)),
			Name:      "Venue",
			Address:   "1 High Street",
			Status:    domain.EstablishmentActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return f
}

func (f *fakeEstablishments) List(ctx context.Context, accountID string, page domain.Page) ([]domain.Establishment, domain.PageInfo, error) {
	if accountID != "pro-1" {
		return nil, domain.PageInfo{}, usecase.ErrProfessionalRequired
	}
	page = page.Normalize()
	start := page.Offset()
	if start > len(f.items) {
		start = len(f.items)
	}
	end := start + page.Limit
	if end > len(f.items) {
		end = len(f.items)
	}
	return f.items[start:end], domain.NewPageInfo(page, len(f.items)), nil
}

func (f *fakeEstablishments) find(accountID, id string) (*domain.Establishment, error) {
	if accountID != "pro-1" {
		return nil, usecase.ErrProfessionalRequired
	}
	for _, item := range f.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, usecase.ErrEstablishmentNotFound
}

func (f *fakeEstablishments) Get(ctx context.Context, accountID, id string) (*domain.Establishment, error) {
	return f.find(accountID, id)
}

func (f *fakeEstablishments) Create(ctx context.Context, accountID string, input usecase.CreateEstablishmentInput) (*domain.Establishment, error) {
	if accountID != "pro-1" {
		return nil, usecase.ErrProfessionalRequired
	}
	if input.Name == "" || input.Address == "" {
		return nil, usecase.ErrEstablishmentInvalid
	}
	return &domain.Establishment{ID: "est-new", Name: input.Name, Address: input.Address, Status: domain.EstablishmentActive}, nil
}

func (f *fakeEstablishments) Update(ctx context.Context, accountID, id string, patch domain.EstablishmentPatch) (*domain.Establishment, error) {
	f.lastPatch = patch
	return f.find(accountID, id)
}

func (f *fakeEstablishments) Delete(ctx context.Context, accountID, id string) error {
	_, err := f.find(accountID, id)
	return err
}

type fakeProducts struct {
	lastFilter domain.ProductFilter
	lastCreate usecase.CreateProductInput
	lastPatch  domain.ProductPatch
	err        error
}

func (f *fakeProducts) List(ctx context.Context, accountID string, filter domain.ProductFilter) ([]domain.Product, domain.PageInfo, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, domain.PageInfo{}, f.err
	}
	return nil, domain.NewPageInfo(filter.Page, 0), nil
}

func (f *fakeProducts) Get(ctx context.Context, accountID, establishmentID, id string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: id, EstablishmentID: establishmentID}, nil
}

func (f *fakeProducts) Create(ctx context.Context, accountID, establishmentID string, input usecase.CreateProductInput) (*domain.Product, error) {
	f.lastCreate = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: "prod-new", EstablishmentID: establishmentID, Name: input.Name, BasePrice: *input.BasePrice}, nil
}

func (f *fakeProducts) Update(ctx context.Context, accountID, establishmentID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	f.lastPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: id, EstablishmentID: establishmentID}, nil
}

func (f *fakeProducts) Delete(ctx context.Context, accountID, establishmentID, id string) error {
	return f.err
}

type fakeReviews struct {
	lastTarget domain.Target
	lastCreate usecase.CreateReviewInput
	err        error
}

func (f *fakeReviews) List(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, domain.PageInfo, error) {
	f.lastTarget = target
	return nil, domain.NewPageInfo(page, 0), f.err
}

func (f *fakeReviews) Create(ctx context.Context, accountID string, input usecase.CreateReviewInput) (*domain.Review, error) {
	f.lastCreate = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Review{ID: "rev-1", AccountID: accountID, Target: input.Target, Rating: input.Rating}, nil
}

type fakeFavorites struct {
	addErr    error
	removeErr error
}

func (f *fakeFavorites) List(ctx context.Context, accountID string) ([]domain.Favorite, error) {
	return nil, nil
}

func (f *fakeFavorites) Add(ctx context.Context, accountID string, target domain.Target) (*domain.Favorite, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &domain.Favorite{ID: "fav-1", AccountID: accountID, Target: target}, nil
}

func (f *fakeFavorites) Remove(ctx context.Context, accountID, id string) error {
	return f.removeErr
}

// newTestRouter mounts register under /api/v1 behind the error middleware.
// Bearer "tok-<id>" authenticates as account <id> through sessions.
func newTestRouter(t *testing.T, sessions *fakeSessions, register func(api *gin.RouterGroup, cookie *middleware.SessionCookie, requireSession gin.HandlerFunc)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cookie := middleware.NewSessionCookie(middleware.SessionCookieOptions{Name: "sid", Secret: testCookieSecret, MaxAge: time.Hour})
	router := gin.New()
	router.Use(middleware.ErrorHandler(nil), middleware.EnrichContext())
	register(router.Group("/api/v1"), cookie, middleware.RequireSession(sessions, cookie, nil))
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return out
}

func expectFailure(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	body := decode[apierror.Body](t, rr)
	if body.Status != "failed" || body.Message != message {
		t.Fatalf("expected failure %q, got %+v", message, body)
	}
}
