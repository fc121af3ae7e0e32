package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Accounts       *AccountRepository
	Sessions       *SessionRepository
	Establishments *EstablishmentRepository
	Products       *ProductRepository
	Reviews        *ReviewRepository
	Favorites      *FavoriteRepository
	Targets        *TargetRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Accounts:       NewAccountRepository(db),
		Sessions:       NewSessionRepository(db),
		Establishments: NewEstablishmentRepository(db),
		Products:       NewProductRepository(db),
		Reviews:        NewReviewRepository(db),
		Favorites:      NewFavoriteRepository(db),
		Targets:        NewTargetRepository(db),
	}
}
