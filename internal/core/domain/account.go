package domain

import (
	"strings"
	"time"
)

// AccountType distinguishes consumer accounts from establishment owners.
type AccountType string

const (
	AccountTypePersonal     AccountType = "PERSONAL"
	AccountTypeProfessional AccountType = "PROFESSIONAL"
)

// ParseAccountType normalises user input into an AccountType.
func ParseAccountType(raw string) (AccountType, bool) {
	switch AccountType(strings.ToUpper(strings.TrimSpace(raw))) {
	case AccountTypePersonal:
		return AccountTypePersonal, true
	case AccountTypeProfessional:
		return AccountTypeProfessional, true
	default:
		return "", false
	}
}

// AccountState enumerates the lifecycle states recorded in AccountStatus.
type AccountState string

const (
	AccountStatePending     AccountState = "PENDING"
	AccountStateActive      AccountState = "ACTIVE"
	AccountStateSuspended   AccountState = "SUSPENDED"
	AccountStateSoftDeleted AccountState = "SOFT_DELETED"
)

// VerificationMethod identifies how an account proved ownership of a contact channel.
type VerificationMethod string

const (
	VerificationMethodEmail VerificationMethod = "EMAIL"
	VerificationMethodSMS   VerificationMethod = "SMS"
)

// Account is the permanent identity record.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Forename     string
	Surname      string
	PhoneNumber  *string
	AccountType  AccountType
	StatusID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Status        *AccountStatus
	Verifications []AccountVerification
}

// AccountStatus records the current lifecycle state of an account.
type AccountStatus struct {
	ID         string
	State      AccountState
	Reason     string
	RecordedAt time.Time
}

// AccountVerification tracks proof of a contact method.
type AccountVerification struct {
	ID         string
	AccountID  string
	Method     VerificationMethod
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// Verification returns the verification row for method, if loaded.
func (a Account) Verification(method VerificationMethod) (AccountVerification, bool) {
	for _, v := range a.Verifications {
		if v.Method == method {
			return v, true
		}
	}
	return AccountVerification{}, false
}

// EmailVerified reports whether the EMAIL verification has completed.
func (a Account) EmailVerified() bool {
	v, ok := a.Verification(VerificationMethodEmail)
	return ok && v.VerifiedAt != nil
}

// State returns the loaded status value, or an empty state when none exists.
func (a Account) State() AccountState {
	if a.Status == nil {
		return ""
	}
	return a.Status.State
}

// Projection returns the restricted view attached to authenticated requests.
func (a Account) Projection() AccountProjection {
	return AccountProjection{
		ID:          a.ID,
		Email:       a.Email,
		Forename:    a.Forename,
		Surname:     a.Surname,
		AccountType: a.AccountType,
	}
}

// AccountProjection is the normalized account view stored on a session.
type AccountProjection struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Forename    string      `json:"forename"`
	Surname     string      `json:"surname"`
	AccountType AccountType `json:"accountType"`
}

// PersonalAccount marks an account as a consumer.
type PersonalAccount struct {
	ID        string
	AccountID string
	CreatedAt time.Time
}

// ProfessionalAccount owns establishments.
type ProfessionalAccount struct {
	ID                         string
	AccountID                  string
	BusinessName               *string
	BusinessRegistrationNumber *string
	TaxIdentificationNumber    *string
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// AccountPatch carries the fields an account owner may change.
type AccountPatch struct {
	Forename    *string
	Surname     *string
	AccountType *AccountType
}
