package domain

import (
	"testing"
	"time"
)

func TestPageInfo(t *testing.T) {
	info := NewPageInfo(Page{Number: 2, Limit: 5}, 12)
	if info.CurrentPage != 2 || info.Limit != 5 || info.TotalItems != 12 || info.TotalPages != 3 {
		t.Fatalf("unexpected page info %+v", info)
	}

	if got := (Page{Number: 2, Limit: 5}).Offset(); got != 5 {
		t.Fatalf("expected offset 5, got %d", got)
	}

	defaults := Page{}.Normalize()
	if defaults.Number != DefaultPage || defaults.Limit != DefaultPageSize {
		t.Fatalf("unexpected defaults %+v", defaults)
	}

	if capped := (Page{Number: 1, Limit: 1000}).Normalize(); capped.Limit != MaxPageSize {
		t.Fatalf("expected limit capped at %d, got %d", MaxPageSize, capped.Limit)
	}

	if empty := NewPageInfo(Page{}, 0); empty.TotalPages != 0 {
		t.Fatalf("expected zero pages for empty result, got %d", empty.TotalPages)
	}
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("Product", " p-1 ")
	if err != nil {
		t.Fatalf("ParseTarget returned error: %v", err)
	}
	if target != ProductTarget("p-1") {
		t.Fatalf("unexpected target %+v", target)
	}

	if _, err := ParseTarget("order", "o-1"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := ParseTarget("establishment", ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestAccountEmailVerified(t *testing.T) {
	now := time.Now()
	account := Account{Verifications: []AccountVerification{{Method: VerificationMethodEmail}}}
	if account.EmailVerified() {
		t.Fatalf("expected unverified account")
	}

	account.Verifications[0].VerifiedAt = &now
	if !account.EmailVerified() {
		t.Fatalf("expected verified account")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	if !s.Expired(now) {
		t.Fatalf("session expiring at now must be expired")
	}
	if s.Expired(now.Add(-time.Second)) {
		t.Fatalf("session must be valid before expiry")
	}
}

func TestParseProductSortAndOrder(t *testing.T) {
	if ParseProductSort("RATING") != ProductSortRating {
		t.Fatalf("expected rating sort")
	}
	if ParseProductSort("bogus") != ProductSortPrice {
		t.Fatalf("expected price fallback")
	}
	if ParseSortOrder("DESC") != SortDesc || ParseSortOrder("") != SortAsc {
		t.Fatalf("unexpected sort order parsing")
	}
}
