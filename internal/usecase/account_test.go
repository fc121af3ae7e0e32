package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/repository"
)

func TestAccountService_Create(t *testing.T) {
	accounts := newFakeAccountRepository()
	service := NewAccountService(accounts, plainHasher{}, nil, nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return now })
	ctx := context.Background()

	account, err := service.Create(ctx, CreateAccountInput{Email: "New@Example.com", Password: "Secret123!", AccountType: "professional", PhoneNumber: "+44 1234"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if account.State() != domain.AccountStatePending || account.StatusID == nil || *account.StatusID != account.Status.ID {
		t.Fatalf("expected linked PENDING status, got %+v", account.Status)
	}
	if account.EmailVerified() {
		t.Fatalf("expected unverified EMAIL verification")
	}
	if account.AccountType != domain.AccountTypeProfessional || account.PhoneNumber == nil {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.PasswordHash != "plain:Secret123!" {
		t.Fatalf("expected hashed password")
	}

	if _, err := service.Create(ctx, CreateAccountInput{Email: "new@example.com", Password: "Secret123!"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := service.Create(ctx, CreateAccountInput{Email: "x@example.com", Password: "Secret123!", AccountType: "admin"}); !errors.Is(err, ErrAccountInvalid) {
		t.Fatalf("expected ErrAccountInvalid for unknown type, got %v", err)
	}
	if _, err := service.Create(ctx, CreateAccountInput{Email: "x@example.com"}); !errors.Is(err, ErrAccountInvalid) {
		t.Fatalf("expected ErrAccountInvalid without password, got %v", err)
	}
}

func TestAccountService_ListAndGet(t *testing.T) {
	accounts := newFakeAccountRepository()
	service := NewAccountService(accounts, plainHasher{}, nil, nil)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		accounts.put(domain.Account{ID: fmt.Sprintf("acc-%d", i), Email: fmt.Sprintf("u%d@example.com", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	ctx := context.Background()

	items, info, err := service.List(ctx, domain.Page{Number: 2, Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 || info.CurrentPage != 2 || info.TotalItems != 7 || info.TotalPages != 2 {
		t.Fatalf("unexpected page: %d items, info %+v", len(items), info)
	}
	if items[0].ID != "acc-1" {
		t.Fatalf("expected newest-first ordering, got %s", items[0].ID)
	}

	if _, err := service.Get(ctx, "acc-3"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if _, err := service.Get(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_UpdateAndDeleteAreSelfOnly(t *testing.T) {
	accounts := newFakeAccountRepository()
	service := NewAccountService(accounts, plainHasher{}, nil, nil)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com", AccountType: domain.AccountTypePersonal})
	ctx := context.Background()

	forename := "Ada"
	professional := domain.AccountTypeProfessional
	if _, err := service.Update(ctx, "acc-2", "acc-1", domain.AccountPatch{Forename: &forename}); !errors.Is(err, ErrAccountForbidden) {
		t.Fatalf("expected ErrAccountForbidden, got %v", err)
	}

	updated, err := service.Update(ctx, "acc-1", "acc-1", domain.AccountPatch{Forename: &forename, AccountType: &professional})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Forename != "Ada" || updated.AccountType != domain.AccountTypeProfessional {
		t.Fatalf("unexpected account %+v", updated)
	}
	if _, err := accounts.GetProfessionalAccount(ctx, "acc-1"); err != nil {
		t.Fatalf("expected professional profile: %v", err)
	}

	if err := service.Delete(ctx, "acc-2", "acc-1"); !errors.Is(err, ErrAccountForbidden) {
		t.Fatalf("expected ErrAccountForbidden, got %v", err)
	}
	if err := service.Delete(ctx, "acc-1", "acc-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := service.Delete(ctx, "acc-1", "acc-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := accounts.GetByID(ctx, "acc-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected account to be gone")
	}
}
