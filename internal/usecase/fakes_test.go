package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/repository"
)

type fakeAccountRepository struct {
	mu            sync.Mutex
	accounts      map[string]domain.Account
	professionals map[string]domain.ProfessionalAccount

	createErr      error
	createCalls    int
	activateCalls  int
	deleteCalls    int
	deletedIDs     []string
	lastActivation port.ActivateAccountParams
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{
		accounts:      make(map[string]domain.Account),
		professionals: make(map[string]domain.ProfessionalAccount),
	}
}

func (f *fakeAccountRepository) put(account domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
}

func (f *fakeAccountRepository) CreatePending(_ context.Context, account domain.Account, verification domain.AccountVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.accounts {
		if existing.Email == account.Email {
			return repository.ErrConflict
		}
	}
	account.Verifications = []domain.AccountVerification{verification}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (f *fakeAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Email == email {
			found := account
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepository) List(_ context.Context, page domain.Page) ([]domain.Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]domain.Account, 0, len(f.accounts))
	for _, account := range f.accounts {
		all = append(all, account)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page), len(all), nil
}

func (f *fakeAccountRepository) Activate(_ context.Context, params port.ActivateAccountParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activateCalls++
	f.lastActivation = params
	account, ok := f.accounts[params.AccountID]
	if !ok {
		return repository.ErrNotFound
	}
	verifiedAt := params.VerifiedAt
	for i := range account.Verifications {
		if account.Verifications[i].Method == domain.VerificationMethodEmail {
			account.Verifications[i].VerifiedAt = &verifiedAt
		}
	}
	status := params.Status
	account.Status = &status
	account.StatusID = &status.ID
	account.Forename = params.Forename
	account.Surname = params.Surname
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountRepository) Update(_ context.Context, id string, patch domain.AccountPatch, at time.Time) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Forename != nil {
		account.Forename = *patch.Forename
	}
	if patch.Surname != nil {
		account.Surname = *patch.Surname
	}
	if patch.AccountType != nil {
		account.AccountType = *patch.AccountType
		if *patch.AccountType == domain.AccountTypeProfessional {
			f.professionals[id] = domain.ProfessionalAccount{ID: "pro-" + id, AccountID: id, CreatedAt: at, UpdatedAt: at}
		} else {
			delete(f.professionals, id)
		}
	}
	account.UpdatedAt = at
	f.accounts[id] = account
	return &account, nil
}

func (f *fakeAccountRepository) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if _, ok := f.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.accounts, id)
	delete(f.professionals, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeAccountRepository) GetProfessionalAccount(_ context.Context, accountID string) (*domain.ProfessionalAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pa, ok := f.professionals[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pa, nil
}

type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	createErr    error
	touchCalls   int
	deleteCalls  int
	purgeBefore  time.Time
	purgeRemoved int64
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]domain.Session)}
}

func (f *fakeSessionRepository) Create(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.TokenHash == tokenHash {
			found := session
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessionRepository) Touch(_ context.Context, sessionID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchCalls++
	session, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	session.LastActivity = at
	f.sessions[sessionID] = session
	return nil
}

func (f *fakeSessionRepository) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeBefore = before
	var removed int64
	for id, session := range f.sessions {
		if !session.ExpiresAt.After(before) {
			delete(f.sessions, id)
			removed++
		}
	}
	f.purgeRemoved = removed
	return removed, nil
}

func (f *fakeSessionRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// plainHasher stores passwords as "plain:<password>" so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}

type recordingMailer struct {
	mu       sync.Mutex
	codes    map[string]string
	links    map[string]string
	welcomes []string
	err      error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: make(map[string]string), links: make(map[string]string)}
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return m.err
}

func (m *recordingMailer) SendMagicLink(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[to] = link
	return m.err
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, to)
	return m.err
}

type recordingPublisher struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	activated  []domain.AccountActivatedEvent
	created    []domain.SessionCreatedEvent
	revoked    []domain.SessionRevokedEvent
	err        error
}

func (p *recordingPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return p.err
}

func (p *recordingPublisher) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activated = append(p.activated, event)
	return p.err
}

func (p *recordingPublisher) PublishSessionCreated(_ context.Context, event domain.SessionCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, event)
	return p.err
}

func (p *recordingPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return p.err
}

type fakeEstablishmentRepository struct {
	items     map[string]domain.Establishment
	listCalls int
	lastPage  domain.Page
}

func newFakeEstablishmentRepository() *fakeEstablishmentRepository {
	return &fakeEstablishmentRepository{items: make(map[string]domain.Establishment)}
}

func (f *fakeEstablishmentRepository) Create(_ context.Context, establishment domain.Establishment) error {
	f.items[establishment.ID] = establishment
	return nil
}

func (f *fakeEstablishmentRepository) GetOwned(_ context.Context, id, ownerID string) (*domain.Establishment, error) {
	item, ok := f.items[id]
	if !ok || item.ProfessionalAccountID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (f *fakeEstablishmentRepository) ListOwned(_ context.Context, ownerID string, page domain.Page) ([]domain.Establishment, int, error) {
	f.listCalls++
	f.lastPage = page
	owned := make([]domain.Establishment, 0, len(f.items))
	for _, item := range f.items {
		if item.ProfessionalAccountID == ownerID {
			owned = append(owned, item)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	return paginate(owned, page), len(owned), nil
}

func (f *fakeEstablishmentRepository) Update(_ context.Context, id, ownerID string, patch domain.EstablishmentPatch, at time.Time) (*domain.Establishment, error) {
	item, ok := f.items[id]
	if !ok || item.ProfessionalAccountID != ownerID {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Address != nil {
		item.Address = *patch.Address
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	item.UpdatedAt = at
	f.items[id] = item
	return &item, nil
}

func (f *fakeEstablishmentRepository) Delete(_ context.Context, id, ownerID string) error {
	item, ok := f.items[id]
	if !ok || item.ProfessionalAccountID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeProductRepository struct {
	items          map[string]domain.Product
	lastFilter     domain.ProductFilter
	lastCategories []string
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{items: make(map[string]domain.Product)}
}

func (f *fakeProductRepository) Create(_ context.Context, product domain.Product, categoryIDs []string) error {
	f.items[product.ID] = product
	f.lastCategories = categoryIDs
	return nil
}

func (f *fakeProductRepository) Get(_ context.Context, establishmentID, id string) (*domain.Product, error) {
	item, ok := f.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (f *fakeProductRepository) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	f.lastFilter = filter
	var out []domain.Product
	for _, item := range f.items {
		if item.EstablishmentID == filter.EstablishmentID {
			out = append(out, item)
		}
	}
	return paginate(out, filter.Page), len(out), nil
}

func (f *fakeProductRepository) Update(_ context.Context, establishmentID, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	item, ok := f.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return nil, repository.ErrNotFound
	}
	if patch.BasePrice != nil {
		item.BasePrice = *patch.BasePrice
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	item.UpdatedAt = at
	f.items[id] = item
	return &item, nil
}

func (f *fakeProductRepository) Delete(_ context.Context, establishmentID, id string) error {
	item, ok := f.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeReviewRepository struct {
	created []domain.Review
	err     error
}

func (f *fakeReviewRepository) Create(_ context.Context, review domain.Review) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, review)
	return nil
}

func (f *fakeReviewRepository) ListByTarget(_ context.Context, target domain.Target, page domain.Page) ([]domain.Review, int, error) {
	var out []domain.Review
	for _, review := range f.created {
		if review.Target == target {
			out = append(out, review)
		}
	}
	return paginate(out, page), len(out), nil
}

type fakeFavoriteRepository struct {
	items map[string]domain.Favorite
}

func (f *fakeFavoriteRepository) Add(_ context.Context, favorite domain.Favorite) error {
	for _, existing := range f.items {
		if existing.AccountID == favorite.AccountID && existing.Target == favorite.Target {
			return repository.ErrConflict
		}
	}
	f.items[favorite.ID] = favorite
	return nil
}

func (f *fakeFavoriteRepository) ListByAccount(_ context.Context, accountID string) ([]domain.Favorite, error) {
	var out []domain.Favorite
	for _, item := range f.items {
		if item.AccountID == accountID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeFavoriteRepository) Delete(_ context.Context, accountID, id string) error {
	item, ok := f.items[id]
	if !ok || item.AccountID != accountID {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeTargets struct {
	known map[domain.Target]bool
	err   error
}

func (f fakeTargets) TargetExists(_ context.Context, target domain.Target) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[target], nil
}

type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string, string) (string, error) { return "", s.err }

func (s failingStore) Set(context.Context, string, string, string, time.Duration) error {
	return s.err
}

func (s failingStore) Delete(context.Context, string, string) error { return s.err }

var errBoom = errors.New("boom")

func paginate[T any](items []T, page domain.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	_ port.AccountRepository       = (*fakeAccountRepository)(nil)
	_ port.SessionRepository       = (*fakeSessionRepository)(nil)
	_ port.EstablishmentRepository = (*fakeEstablishmentRepository)(nil)
	_ port.ProductRepository       = (*fakeProductRepository)(nil)
	_ port.ReviewRepository        = (*fakeReviewRepository)(nil)
	_ port.FavoriteRepository      = (*fakeFavoriteRepository)(nil)
	_ port.TargetLookup            = fakeTargets{}
	_ port.Mailer                  = (*recordingMailer)(nil)
	_ port.EventPublisher          = (*recordingPublisher)(nil)
	_ port.KeyValueStore           = failingStore{}
)
