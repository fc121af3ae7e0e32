package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
)

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupStartRequest starts a signup, or resends the code when ResendCode is set.
type SignupStartRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Forename      string `json:"forename"`
	Surname       string `json:"surname"`
	ResendCode    bool   `json:"resendCode"`
	TempAccountID string `json:"tempAccountId"`
}

// SignupStartResponse identifies the pending signup.
type SignupStartResponse struct {
	TempAccountID string `json:"tempAccountId"`
	AccountID     string `json:"accountId"`
}

// ResendCodeResponse acknowledges a resent verification code.
type ResendCodeResponse struct {
	Message       string `json:"message"`
	TempAccountID string `json:"tempAccountId"`
}

// VerifyEmailRequest accompanies the code in the path.
type VerifyEmailRequest struct {
	TempAccountID string `json:"tempAccountId"`
	AccountID     string `json:"accountId"`
}

// VerifyEmailResponse carries the magic-link token.
type VerifyEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// SignupCompleteRequest finalizes a signup.
type SignupCompleteRequest struct {
	TempAccountID     string `json:"tempAccountId"`
	VerificationToken string `json:"verificationToken"`
	Forename          string `json:"forename"`
	Surname           string `json:"surname"`
}

// SignupCompleteResponse describes the newly activated account.
type SignupCompleteResponse struct {
	Message      string                   `json:"message"`
	Account      domain.AccountProjection `json:"account"`
	SessionToken string                   `json:"sessionToken"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the account and the opaque session token.
type LoginResponse struct {
	Account      AccountResponse `json:"account"`
	SessionToken string          `json:"sessionToken"`
}

// CurrentAccountResponse wraps the session's account projection.
type CurrentAccountResponse struct {
	Account domain.AccountProjection `json:"account"`
}

// AccountStatusResponse is the public view of an account status.
type AccountStatusResponse struct {
	ID         string              `json:"id"`
	Status     domain.AccountState `json:"status"`
	Reason     string              `json:"reason,omitempty"`
	RecordedAt time.Time           `json:"recordedAt"`
}

// VerificationResponse is the public view of an account verification.
type VerificationResponse struct {
	Method     domain.VerificationMethod `json:"method"`
	VerifiedAt *time.Time                `json:"verified_at"`
}

// AccountResponse is an account without its password hash.
type AccountResponse struct {
	ID            string                 `json:"id"`
	Email         string                 `json:"email"`
	Forename      string                 `json:"forename"`
	Surname       string                 `json:"surname"`
	PhoneNumber   *string                `json:"phoneNumber,omitempty"`
	AccountType   domain.AccountType     `json:"accountType"`
	Status        *AccountStatusResponse `json:"status"`
	Verifications []VerificationResponse `json:"verifications"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func newAccountResponse(account domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:            account.ID,
		Email:         account.Email,
		Forename:      account.Forename,
		Surname:       account.Surname,
		PhoneNumber:   account.PhoneNumber,
		AccountType:   account.AccountType,
		Verifications: make([]VerificationResponse, 0, len(account.Verifications)),
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
	}
	if account.Status != nil {
		resp.Status = &AccountStatusResponse{
			ID:         account.Status.ID,
			Status:     account.Status.State,
			Reason:     account.Status.Reason,
			RecordedAt: account.Status.RecordedAt,
		}
	}
	for _, v := range account.Verifications {
		resp.Verifications = append(resp.Verifications, VerificationResponse{Method: v.Method, VerifiedAt: v.VerifiedAt})
	}
	return resp
}

// AccountListResponse is one page of accounts.
type AccountListResponse struct {
	Accounts   []AccountResponse `json:"accounts"`
	Pagination domain.PageInfo   `json:"pagination"`
}

// CreateAccountRequest is the payload of POST /accounts.
type CreateAccountRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Forename    string `json:"forename"`
	Surname     string `json:"surname"`
	PhoneNumber string `json:"phoneNumber"`
	AccountType string `json:"accountType"`
}

// UpdateAccountRequest is the payload of PATCH /accounts/:id.
type UpdateAccountRequest struct {
	Forename    *string `json:"forename"`
	Surname     *string `json:"surname"`
	AccountType *string `json:"accountType"`
}

// EstablishmentListResponse is one page of the caller's establishments.
type EstablishmentListResponse struct {
	Establishments []domain.Establishment `json:"establishments"`
	Pagination     domain.PageInfo        `json:"pagination"`
}

// EstablishmentRequest is the payload of establishment create and update.
type EstablishmentRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Avatar      *string `json:"avatar"`
	Banner      *string `json:"banner"`
}

// ProductListResponse is one page of an establishment's products.
type ProductListResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination domain.PageInfo  `json:"pagination"`
}

// ProductRequest is the payload of product create and update.
type ProductRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	BasePrice       *float64  `json:"basePrice"`
	IsAvailable     *bool     `json:"isAvailable"`
	PreparationTime *int      `json:"preparationTime"`
	ImageURLs       *[]string `json:"imageUrls"`
	CategoryIDs     *[]string `json:"categoryIds"`
}

// ReviewListResponse is one page of reviews of a target.
type ReviewListResponse struct {
	Reviews    []domain.Review `json:"reviews"`
	Pagination domain.PageInfo `json:"pagination"`
}

// TargetRequest addresses a product or an establishment.
type TargetRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// ReviewRequest is the payload of POST /reviews.
type ReviewRequest struct {
	Target      TargetRequest `json:"target"`
	Rating      int           `json:"rating"`
	Title       *string       `json:"title"`
	Comment     *string       `json:"comment"`
	IsAnonymous bool          `json:"isAnonymous"`
}

// FavoriteRequest is the payload of POST /favorites.
type FavoriteRequest struct {
	Target TargetRequest `json:"target"`
}

// FavoriteListResponse lists the caller's favorites.
type FavoriteListResponse struct {
	Favorites []domain.Favorite `json:"favorites"`
}

// pageFromQuery reads page and limit. Unparsable values fall back to the defaults.
func pageFromQuery(c *gin.Context) domain.Page {
	return domain.Page{
		Number: queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}.Normalize()
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &value, true
}
