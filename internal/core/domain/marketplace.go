package domain

import (
	"strings"
	"time"
)

// EstablishmentStatus toggles whether an establishment is listed.
type EstablishmentStatus string

const (
	EstablishmentActive   EstablishmentStatus = "active"
	EstablishmentInactive EstablishmentStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s EstablishmentStatus) Valid() bool {
	return s == EstablishmentActive || s == EstablishmentInactive
}

// Establishment is a venue owned by a professional account.
type Establishment struct {
	ID                    string              `json:"id"`
	ProfessionalAccountID string              `json:"professionalAccountId"`
	Name                  string              `json:"name"`
	Address               string              `json:"address"`
	Description           *string             `json:"description,omitempty"`
	ProductsCount         int                 `json:"productsCount"`
	Status                EstablishmentStatus `json:"status"`
	Avatar                *string             `json:"avatar,omitempty"`
	Banner                *string             `json:"banner,omitempty"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`

	Products []Product `json:"products,omitempty"`
}

// EstablishmentPatch carries a partial update; nil fields are left untouched.
type EstablishmentPatch struct {
	Name        *string
	Address     *string
	Description *string
	Status      *EstablishmentStatus
	Avatar      *string
	Banner      *string
}

// Empty reports whether the patch changes nothing.
func (p EstablishmentPatch) Empty() bool {
	return p.Name == nil && p.Address == nil && p.Description == nil &&
		p.Status == nil && p.Avatar == nil && p.Banner == nil
}

// Category groups products inside one establishment's menu.
type Category struct {
	ID              string  `json:"id"`
	EstablishmentID string  `json:"establishmentId"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	DisplayOrder    int     `json:"displayOrder"`
}

// Product is a menu item.
type Product struct {
	ID              string     `json:"id"`
	EstablishmentID string     `json:"establishmentId"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	BasePrice       float64    `json:"basePrice"`
	IsAvailable     bool       `json:"isAvailable"`
	PreparationTime *int       `json:"preparationTime,omitempty"`
	ImageURLs       []string   `json:"imageUrls"`
	Categories      []Category `json:"categories,omitempty"`
	AverageRating   *float64   `json:"averageRating,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ProductPatch carries a partial product update.
type ProductPatch struct {
	Name            *string
	Description     *string
	BasePrice       *float64
	IsAvailable     *bool
	PreparationTime *int
	ImageURLs       *[]string
	CategoryIDs     *[]string
}

// ProductSort selects the ordering key for product listings.
type ProductSort string

const (
	ProductSortPrice      ProductSort = "price"
	ProductSortRating     ProductSort = "rating"
	ProductSortPopularity ProductSort = "popularity"
)

// ParseProductSort falls back to price for unknown values.
func ParseProductSort(raw string) ProductSort {
	switch ProductSort(strings.ToLower(strings.TrimSpace(raw))) {
	case ProductSortRating:
		return ProductSortRating
	case ProductSortPopularity:
		return ProductSortPopularity
	default:
		return ProductSortPrice
	}
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder falls back to asc for unknown values.
func ParseSortOrder(raw string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// ProductFilter drives product listing queries.
type ProductFilter struct {
	EstablishmentID string
	MinPrice        *float64
	MaxPrice        *float64
	Category        string
	AvailableOnly   bool
	Search          string
	SortBy          ProductSort
	Order           SortOrder
	Page            Page
}
