package domain

import "time"

// Ephemeral store namespaces used by the signup handshake.
const (
	NamespaceTempSignup         = "temp_signup"
	NamespaceVerificationCodes  = "verification_codes"
	NamespaceVerificationTokens = "verification_tokens"
)

// TempSignupData is the in-flight signup payload keyed by tempAccountId.
type TempSignupData struct {
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashedPassword"`
	Forename       string    `json:"forename"`
	Surname        string    `json:"surname"`
	AccountID      string    `json:"accountId"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
