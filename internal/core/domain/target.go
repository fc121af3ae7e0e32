package domain

import (
	"fmt"
	"strings"
	"time"
)

// TargetKind names the entity a review or favorite points at.
type TargetKind string

const (
	TargetProduct       TargetKind = "product"
	TargetEstablishment TargetKind = "establishment"
)

// Target is a tagged reference to a Product or an Establishment.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// ProductTarget returns a Target for a product id.
func ProductTarget(id string) Target { return Target{Kind: TargetProduct, ID: id} }

// EstablishmentTarget returns a Target for an establishment id.
func EstablishmentTarget(id string) Target { return Target{Kind: TargetEstablishment, ID: id} }

// ParseTarget validates kind and id.
func ParseTarget(kind, id string) (Target, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Target{}, fmt.Errorf("target id is required")
	}
	switch TargetKind(strings.ToLower(strings.TrimSpace(kind))) {
	case TargetProduct:
		return ProductTarget(id), nil
	case TargetEstablishment:
		return EstablishmentTarget(id), nil
	default:
		return Target{}, fmt.Errorf("unknown target kind %q", kind)
	}
}

func (t Target) String() string {
	return string(t.Kind) + ":" + t.ID
}

// Review is a rating left by an account on a target.
type Review struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId,omitempty"`
	Target      Target    `json:"target"`
	Rating      int       `json:"rating"`
	Title       *string   `json:"title,omitempty"`
	Comment     *string   `json:"comment,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Favorite is a bookmark kept by an account.
type Favorite struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}
