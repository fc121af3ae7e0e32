// Package seed loads fixture rows from seeds/<entity>/<id>.json.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/repository"
)

const (
	EntityAccounts       = "accounts"
	EntityEstablishments = "establishments"
	EntityProducts       = "products"
)

// AccountStore is the subset of the account repository the seeder writes through.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	CreatePending(ctx context.Context, account domain.Account, verification domain.AccountVerification) error
}

// EstablishmentStore is the subset of the establishment repository the seeder writes through.
type EstablishmentStore interface {
	GetOwned(ctx context.Context, id, professionalAccountID string) (*domain.Establishment, error)
	Create(ctx context.Context, establishment domain.Establishment) error
}

// ProductStore is the subset of the product repository the seeder writes through.
type ProductStore interface {
	Get(ctx context.Context, establishmentID, id string) (*domain.Product, error)
	Create(ctx context.Context, product domain.Product, categoryIDs []string) error
}

// Counts tallies one entity directory.
type Counts struct {
	Inserted int
	Skipped  int
}

// Report holds Counts per entity.
type Report map[string]Counts

type accountSeed struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Forename    string  `json:"forename"`
	Surname     string  `json:"surname"`
	PhoneNumber *string `json:"phoneNumber"`
	AccountType string  `json:"accountType"`
	Status      string  `json:"status"`
}

type establishmentSeed struct {
	ProfessionalAccountID string  `json:"professionalAccountId"`
	Name                  string  `json:"name"`
	Address               string  `json:"address"`
	Description           *string `json:"description"`
	Status                string  `json:"status"`
	Avatar                *string `json:"avatar"`
	Banner                *string `json:"banner"`
}

type productSeed struct {
	EstablishmentID string   `json:"establishmentId"`
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	BasePrice       float64  `json:"basePrice"`
	IsAvailable     *bool    `json:"isAvailable"`
	PreparationTime *int     `json:"preparationTime"`
	ImageURLs       []string `json:"imageUrls"`
	CategoryIDs     []string `json:"categoryIds"`
}

// Seeder inserts fixture rows that are not present yet.
type Seeder struct {
	accounts       AccountStore
	establishments EstablishmentStore
	products       ProductStore
	hasher         port.PasswordHasher
	logger         *zap.Logger
	now            func() time.Time
}

// NewSeeder constructs a Seeder.
func NewSeeder(accounts AccountStore, establishments EstablishmentStore, products ProductStore, hasher port.PasswordHasher, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		accounts:       accounts,
		establishments: establishments,
		products:       products,
		hasher:         hasher,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Run seeds accounts, then establishments, then products from dir. A missing
// entity directory is skipped.
func (s *Seeder) Run(ctx context.Context, dir string) (Report, error) {
	report := Report{}

	steps := []struct {
		entity string
		insert func(ctx context.Context, id string, raw []byte) (bool, error)
	}{
		{EntityAccounts, s.seedAccount},
		{EntityEstablishments, s.seedEstablishment},
		{EntityProducts, s.seedProduct},
	}

	for _, step := range steps {
		counts, err := s.seedEntity(ctx, filepath.Join(dir, step.entity), step.insert)
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", step.entity, err)
		}
		report[step.entity] = counts
		s.logger.Info("seeded entity",
			zap.String("entity", step.entity),
			zap.Int("inserted", counts.Inserted),
			zap.Int("skipped", counts.Skipped),
		)
	}
	return report, nil
}

func (s *Seeder) seedEntity(ctx context.Context, dir string, insert func(ctx context.Context, id string, raw []byte) (bool, error)) (Counts, error) {
	var counts Counts

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return counts, nil
	}
	if err != nil {
		return counts, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		id := strings.TrimSuffix(name, ".json")
		if _, err := uuid.Parse(id); err != nil {
			return counts, fmt.Errorf("%s: file name must be a UUID", name)
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return counts, fmt.Errorf("read %s: %w", name, err)
		}

		inserted, err := insert(ctx, id, raw)
		if err != nil {
			return counts, fmt.Errorf("%s: %w", name, err)
		}
		if inserted {
			counts.Inserted++
		} else {
			counts.Skipped++
		}
	}
	return counts, nil
}

// exists maps a repository lookup onto present/absent.
func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// created treats a unique violation as an already seeded row.
func created(err error) (bool, error) {
	if errors.Is(err, repository.ErrConflict) {
		return false, nil
	}
	return err == nil, err
}

func (s *Seeder) seedAccount(ctx context.Context, id string, raw []byte) (bool, error) {
	var in accountSeed
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, fmt.Errorf("decode account: %w", err)
	}

	_, err := s.accounts.GetByID(ctx, id)
	if found, err := exists(err); err != nil || found {
		return false, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return false, errors.New("account seed needs email and password")
	}
	accountType := domain.AccountTypePersonal
	if in.AccountType != "" {
		parsed, ok := domain.ParseAccountType(in.AccountType)
		if !ok {
			return false, fmt.Errorf("unknown account type %q", in.AccountType)
		}
		accountType = parsed
	}
	state := domain.AccountStateActive
	if in.Status != "" {
		state = domain.AccountState(strings.ToUpper(in.Status))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	verification := domain.AccountVerification{
		ID:        uuid.NewString(),
		AccountID: id,
		Method:    domain.VerificationMethodEmail,
		CreatedAt: now,
	}
	if state == domain.AccountStateActive {
		verification.VerifiedAt = &now
	}

	return created(s.accounts.CreatePending(ctx, domain.Account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Forename:     in.Forename,
		Surname:      in.Surname,
		PhoneNumber:  in.PhoneNumber,
		AccountType:  accountType,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       &domain.AccountStatus{ID: uuid.NewString(), State: state, Reason: "seeded", RecordedAt: now},
	}, verification))
}

func (s *Seeder) seedEstablishment(ctx context.Context, id string, raw []byte) (bool, error) {
	var in establishmentSeed
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, fmt.Errorf("decode establishment: %w", err)
	}
	if in.ProfessionalAccountID == "" || in.Name == "" || in.Address == "" {
		return false, errors.New("establishment seed needs professionalAccountId, name and address")
	}

	_, err := s.establishments.GetOwned(ctx, id, in.ProfessionalAccountID)
	if found, err := exists(err); err != nil || found {
		return false, err
	}

	status := domain.EstablishmentActive
	if in.Status != "" {
		status = domain.EstablishmentStatus(strings.ToLower(in.Status))
		if !status.Valid() {
			return false, fmt.Errorf("unknown establishment status %q", in.Status)
		}
	}

	now := s.now()
	return created(s.establishments.Create(ctx, domain.Establishment{
		ID:                    id,
		ProfessionalAccountID: in.ProfessionalAccountID,
		Name:                  in.Name,
		Address:               in.Address,
		Description:           in.Description,
		Status:                status,
		Avatar:                in.Avatar,
		Banner:                in.Banner,
		CreatedAt:             now,
		UpdatedAt:             now,
	}))
}

func (s *Seeder) seedProduct(ctx context.Context, id string, raw []byte) (bool, error) {
	var in productSeed
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, fmt.Errorf("decode product: %w", err)
	}
	if in.EstablishmentID == "" || in.Name == "" || in.BasePrice < 0 {
		return false, errors.New("product seed needs establishmentId, name and a non-negative basePrice")
	}

	_, err := s.products.Get(ctx, in.EstablishmentID, id)
	if found, err := exists(err); err != nil || found {
		return false, err
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	imageURLs := in.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	now := s.now()
	return created(s.products.Create(ctx, domain.Product{
		ID:              id,
		EstablishmentID: in.EstablishmentID,
		Name:            in.Name,
		Description:     in.Description,
		BasePrice:       in.BasePrice,
		IsAvailable:     available,
		PreparationTime: in.PreparationTime,
		ImageURLs:       imageURLs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, in.CategoryIDs))
}
