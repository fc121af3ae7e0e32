package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFrom(t *testing.T) {
	cause := errors.New("db down")
	wrapped := fmt.Errorf("handler: %w", Wrap(http.StatusConflict, "taken", cause))

	got := From(wrapped)
	if got.Status != http.StatusConflict || got.Message != "taken" {
		t.Fatalf("unexpected error %+v", got)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("expected cause to be preserved")
	}

	unknown := From(errors.New("boom"))
	if unknown.Status != http.StatusInternalServerError || unknown.Message != InternalMessage {
		t.Fatalf("expected 500 fallback, got %+v", unknown)
	}
}

func TestNewBody(t *testing.T) {
	body := NewBody("nope")
	if body.Status != "failed" || body.Message != "nope" {
		t.Fatalf("unexpected body %+v", body)
	}
}
