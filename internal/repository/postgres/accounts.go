package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
)

var accountColumns = []string{
	"a.id",
	"a.email",
	"a.password_hash",
	"a.forename",
	"a.surname",
	"a.phone_number",
	"a.account_type",
	"a.status_id",
	"a.created_at",
	"a.updated_at",
	"s.status",
	"s.reason",
	"s.recorded_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{
		db:      db,
		builder: newBuilder(),
	}
}

// CreatePending inserts the account, its profile and its unverified
// verification in one transaction. An initial status is linked when
// account.Status is set; signup leaves it nil until activation.
func (r *AccountRepository) CreatePending(ctx context.Context, account domain.Account, verification domain.AccountVerification) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		columns := []string{"id", "email", "password_hash", "forename", "surname", "phone_number", "account_type", "created_at", "updated_at"}
		values := []any{account.ID, account.Email, account.PasswordHash, account.Forename, account.Surname, account.PhoneNumber, account.AccountType, account.CreatedAt, account.UpdatedAt}

		if status := account.Status; status != nil {
			insertStatus := r.builder.Insert("account_statuses").
				Columns("id", "status", "reason", "recorded_at").
				Values(status.ID, status.State, status.Reason, status.RecordedAt)
			if err := execStmt(ctx, tx, insertStatus, "insert account status"); err != nil {
				return err
			}
			columns = append(columns, "status_id")
			values = append(values, status.ID)
		}

		insertAccount := r.builder.Insert("accounts").Columns(columns...).Values(values...)
		if err := execStmt(ctx, tx, insertAccount, "insert account"); err != nil {
			return err
		}

		insertVerification := r.builder.Insert("account_verifications").
			Columns("id", "account_id", "method", "verified_at", "created_at").
			Values(verification.ID, account.ID, verification.Method, verification.VerifiedAt, verification.CreatedAt)
		if err := execStmt(ctx, tx, insertVerification, "insert account verification"); err != nil {
			return err
		}

		switch account.AccountType {
		case domain.AccountTypePersonal:
			insertPersonal := r.builder.Insert("personal_accounts").
				Columns("id", "account_id", "created_at").
				Values(uuid.NewString(), account.ID, account.CreatedAt)
			return execStmt(ctx, tx, insertPersonal, "insert personal account")
		case domain.AccountTypeProfessional:
			insertProfessional := r.builder.Insert("professional_accounts").
				Columns("id", "account_id", "created_at", "updated_at").
				Values(uuid.NewString(), account.ID, account.CreatedAt, account.UpdatedAt)
			return execStmt(ctx, tx, insertProfessional, "insert professional account")
		}
		return nil
	})
}

// GetByID loads an account with its status and verifications.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"a.id": id})
}

// GetByEmail loads an account by its normalised email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"a.email": email})
}

func (r *AccountRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, err
	}

	verifications, err := r.verifications(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Verifications = verifications

	return account, nil
}

// List returns a page of accounts ordered by creation date, newest first.
func (r *AccountRepository) List(ctx context.Context, page domain.Page) ([]domain.Account, int, error) {
	page = page.Normalize()

	total, err := count(ctx, r.db, r.builder.Select("COUNT(*)").From("accounts"))
	if err != nil {
		return nil, 0, err
	}

	stmt, args, err := r.selectAccounts().
		OrderBy("a.created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", mapError(err))
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, page.Limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, total, nil
}

// Activate marks the EMAIL verification complete and links a fresh ACTIVE status.
func (r *AccountRepository) Activate(ctx context.Context, params port.ActivateAccountParams) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		verify := r.builder.Update("account_verifications").
			Set("verified_at", params.VerifiedAt).
			Where(squirrel.Eq{"account_id": params.AccountID, "method": domain.VerificationMethodEmail})
		if err := execAffecting(ctx, tx, verify, "mark email verified"); err != nil {
			return err
		}

		insertStatus := r.builder.Insert("account_statuses").
			Columns("id", "status", "reason", "recorded_at").
			Values(params.Status.ID, params.Status.State, params.Status.Reason, params.Status.RecordedAt)
		if err := execStmt(ctx, tx, insertStatus, "insert account status"); err != nil {
			return err
		}

		link := r.builder.Update("accounts").
			Set("forename", params.Forename).
			Set("surname", params.Surname).
			Set("status_id", params.Status.ID).
			Set("updated_at", params.VerifiedAt).
			Where(squirrel.Eq{"id": params.AccountID})
		return execAffecting(ctx, tx, link, "activate account")
	})
}

// Update applies a partial update. Switching to PROFESSIONAL provisions a
// professional profile; switching to PERSONAL removes it.
func (r *AccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch, at time.Time) (*domain.Account, error) {
	err := runInTx(ctx, r.db, func(tx pgx.Tx) error {
		update := r.builder.Update("accounts").Set("updated_at", at).Where(squirrel.Eq{"id": id})
		if patch.Forename != nil {
			update = update.Set("forename", *patch.Forename)
		}
		if patch.Surname != nil {
			update = update.Set("surname", *patch.Surname)
		}
		if patch.AccountType != nil {
			update = update.Set("account_type", *patch.AccountType)
		}
		if err := execAffecting(ctx, tx, update, "update account"); err != nil {
			return err
		}

		if patch.AccountType == nil {
			return nil
		}

		switch *patch.AccountType {
		case domain.AccountTypeProfessional:
			insert := r.builder.Insert("professional_accounts").
				Columns("id", "account_id", "created_at", "updated_at").
				Values(uuid.NewString(), id, at, at).
				Suffix("ON CONFLICT (account_id) DO NOTHING")
			return execStmt(ctx, tx, insert, "insert professional account")
		case domain.AccountTypePersonal:
			remove := r.builder.Delete("professional_accounts").Where(squirrel.Eq{"account_id": id})
			if err := execStmt(ctx, tx, remove, "delete professional account"); err != nil {
				return err
			}
			insert := r.builder.Insert("personal_accounts").
				Columns("id", "account_id", "created_at").
				Values(uuid.NewString(), id, at).
				Suffix("ON CONFLICT (account_id) DO NOTHING")
			return execStmt(ctx, tx, insert, "insert personal account")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the account; sessions, verifications, profiles, orders,
// reviews and favorites cascade. The status row is removed explicitly.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		stmt, args, err := r.builder.Delete("accounts").
			Where(squirrel.Eq{"id": id}).
			Suffix("RETURNING status_id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete account sql: %w", err)
		}

		var statusID *string
		if err := tx.QueryRow(ctx, stmt, args...).Scan(&statusID); err != nil {
			return mapError(err)
		}

		if statusID == nil {
			return nil
		}
		return execStmt(ctx, tx, r.builder.Delete("account_statuses").Where(squirrel.Eq{"id": *statusID}), "delete account status")
	})
}

// GetProfessionalAccount returns the professional profile of accountID.
func (r *AccountRepository) GetProfessionalAccount(ctx context.Context, accountID string) (*domain.ProfessionalAccount, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "business_name", "business_registration_number", "tax_identification_number", "created_at", "updated_at").
		From("professional_accounts").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select professional account sql: %w", err)
	}

	var pa domain.ProfessionalAccount
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&pa.ID,
		&pa.AccountID,
		&pa.BusinessName,
		&pa.BusinessRegistrationNumber,
		&pa.TaxIdentificationNumber,
		&pa.CreatedAt,
		&pa.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &pa, nil
}

func (r *AccountRepository) selectAccounts() squirrel.SelectBuilder {
	return r.builder.Select(accountColumns...).
		From("accounts a").
		LeftJoin("account_statuses s ON s.id = a.status_id")
}

func (r *AccountRepository) verifications(ctx context.Context, accountID string) ([]domain.AccountVerification, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "method", "verified_at", "created_at").
		From("account_verifications").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select verifications sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select verifications: %w", mapError(err))
	}
	defer rows.Close()

	var out []domain.AccountVerification
	for rows.Next() {
		var v domain.AccountVerification
		if err := rows.Scan(&v.ID, &v.AccountID, &v.Method, &v.VerifiedAt, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account    domain.Account
		state      *string
		reason     *string
		recordedAt *time.Time
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Forename,
		&account.Surname,
		&account.PhoneNumber,
		&account.AccountType,
		&account.StatusID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&state,
		&reason,
		&recordedAt,
	); err != nil {
		return nil, mapError(err)
	}

	if account.StatusID != nil && state != nil {
		status := domain.AccountStatus{ID: *account.StatusID, State: domain.AccountState(*state)}
		if reason != nil {
			status.Reason = *reason
		}
		if recordedAt != nil {
			status.RecordedAt = *recordedAt
		}
		account.Status = &status
	}

	return &account, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
