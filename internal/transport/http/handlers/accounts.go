package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

// AccountManager is account CRUD.
type AccountManager interface {
	List(ctx context.Context, page domain.Page) ([]domain.Account, domain.PageInfo, error)
	Get(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	Update(ctx context.Context, callerID, id string, patch domain.AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, callerID, id string) error
}

const accountMalformedMessage = "The account info is malformed!"

var accountErrors = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "The requested account doesn't exist"},
	{Err: usecase.ErrAccountInvalid, Status: http.StatusBadRequest, Message: accountMalformedMessage},
	{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "Password does not meet complexity requirements."},
	{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "An account with this email already exists."},
	{Err: usecase.ErrAccountForbidden, Status: http.StatusForbidden, Message: "You can only modify your own account"},
}

// AccountHandler exposes /accounts.
type AccountHandler struct {
	accounts AccountManager
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds /accounts routes. Creation is public.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup, requireSession gin.HandlerFunc) {
	r.GET("", requireSession, h.list)
	r.GET("/:accountId", requireSession, h.get)
	r.POST("", h.create)
	r.PATCH("/:accountId", requireSession, h.update)
	r.DELETE("/:accountId", requireSession, h.delete)
}

func (h *AccountHandler) list(c *gin.Context) {
	accounts, info, err := h.accounts.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		RespondWithMappedError(c, err, accountErrors)
		return
	}

	resp := AccountListResponse{Accounts: make([]AccountResponse, 0, len(accounts)), Pagination: info}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, newAccountResponse(account))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) get(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		RespondWithMappedError(c, err, accountErrors)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(*account))
}

func (h *AccountHandler) create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, accountMalformedMessage)
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), usecase.CreateAccountInput{
		Email:       req.Email,
		Password:    req.Password,
		Forename:    req.Forename,
		Surname:     req.Surname,
		PhoneNumber: req.PhoneNumber,
		AccountType: req.AccountType,
	})
	if err != nil {
		RespondWithMappedError(c, err, accountErrors)
		return
	}
	c.JSON(http.StatusCreated, newAccountResponse(*account))
}

func (h *AccountHandler) update(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, accountMalformedMessage)
		return
	}

	patch := domain.AccountPatch{Forename: req.Forename, Surname: req.Surname}
	if req.AccountType != nil {
		accountType, ok := domain.ParseAccountType(*req.AccountType)
		if !ok {
			respondError(c, http.StatusBadRequest, accountMalformedMessage)
			return
		}
		patch.AccountType = &accountType
	}

	account, err := h.accounts.Update(c.Request.Context(), caller.ID, c.Param("accountId"), patch)
	if err != nil {
		RespondWithMappedError(c, err, accountErrors)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(*account))
}

func (h *AccountHandler) delete(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	if err := h.accounts.Delete(c.Request.Context(), caller.ID, c.Param("accountId")); err != nil {
		RespondWithMappedError(c, err, accountErrors)
		return
	}
	c.Status(http.StatusNoContent)
}
