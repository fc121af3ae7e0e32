package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/infra/logger"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

// SignupFlow is the signup state machine.
type SignupFlow interface {
	Start(ctx context.Context, input usecase.StartSignupInput) (*usecase.StartSignupResult, error)
	Resend(ctx context.Context, email, tempAccountID string) error
	Verify(ctx context.Context, input usecase.VerifyEmailInput) (*usecase.VerifyEmailResult, error)
	Complete(ctx context.Context, input usecase.CompleteSignupInput) (*usecase.CompleteSignupResult, error)
}

// SessionManager logs accounts in and out.
type SessionManager interface {
	middleware.SessionAuthenticator
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthRateLimits holds middleware placed ahead of the abuse-prone endpoints.
type AuthRateLimits struct {
	Login       []gin.HandlerFunc
	SignupStart []gin.HandlerFunc
	VerifyEmail []gin.HandlerFunc
}

var (
	signupStartErrors = []ErrorCase{
		{Err: usecase.ErrSignupFieldsRequired, Status: http.StatusBadRequest, Message: "Email and password are required."},
		{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "Password does not meet complexity requirements."},
		{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "An account with this email already exists."},
	}
	resendErrors = []ErrorCase{
		{Err: usecase.ErrTempSignupNotFound, Status: http.StatusNotFound, Message: "Temporary account not found or expired."},
	}
	verifyErrors = []ErrorCase{
		{Err: usecase.ErrVerificationFieldsRequired, Status: http.StatusBadRequest, Message: "Temporary account ID, account ID, and verification code are required."},
		{Err: usecase.ErrVerificationNotFound, Status: http.StatusNotFound, Message: "Verification request not found or expired."},
		{Err: usecase.ErrVerificationCodeInvalid, Status: http.StatusBadRequest, Message: "Invalid verification code."},
	}
	completeErrors = []ErrorCase{
		{Err: usecase.ErrCompletionFieldsRequired, Status: http.StatusBadRequest, Message: "Temporary account ID and verification token are required."},
		{Err: usecase.ErrVerificationTokenInvalid, Status: http.StatusUnauthorized, Message: "Invalid or expired verification token."},
		{Err: usecase.ErrTempSignupNotFound, Status: http.StatusNotFound, Message: "Temporary account not found or expired"},
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found"},
	}
	loginErrors = []ErrorCase{
		{Err: usecase.ErrLoginFieldsRequired, Status: http.StatusBadRequest, Message: "Email and password are required."},
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password."},
		{Err: usecase.ErrAccountNoStatus, Status: http.StatusForbidden, Message: "Account has no status"},
		{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "Account is not active"},
		{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "Account is suspended"},
		{Err: usecase.ErrAccountRemoved, Status: http.StatusForbidden, Message: "Account no longer exists"},
		{Err: usecase.ErrAccountNotVerified, Status: http.StatusForbidden, Message: "Account not verified"},
	}
	currentAccountErrors = []ErrorCase{
		{Err: usecase.ErrSessionInvalid, Status: http.StatusUnauthorized, Message: "Not authenticated or session expired."},
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Authenticated user not found."},
	}
)

// AuthenticationHandler exposes the signup flow and session endpoints.
type AuthenticationHandler struct {
	signup   SignupFlow
	sessions SessionManager
	cookie   *middleware.SessionCookie
	logger   *zap.Logger
}

// NewAuthenticationHandler constructs AuthenticationHandler.
func NewAuthenticationHandler(signup SignupFlow, sessions SessionManager, cookie *middleware.SessionCookie, log *zap.Logger) *AuthenticationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthenticationHandler{signup: signup, sessions: sessions, cookie: cookie, logger: log}
}

// RegisterRoutes binds /authentication routes.
func (h *AuthenticationHandler) RegisterRoutes(r *gin.RouterGroup, requireSession gin.HandlerFunc, limits AuthRateLimits) {
	r.POST("/signup/start", chain(limits.SignupStart, h.signupStart)...)
	r.POST("/verify-email/:code", chain(limits.VerifyEmail, h.verifyEmail)...)
	r.POST("/signup/complete", h.completeSignup)
	r.POST("/login", chain(limits.Login, h.login)...)
	r.POST("/logout", requireSession, h.logout)
	r.GET("/me", h.me)
	r.POST("/password/reset", notImplemented)
	r.POST("/password/reset/confirm", notImplemented)
}

func chain(before []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(before)+1)
	handlers = append(handlers, before...)
	return append(handlers, handler)
}

// bindJSON decodes the body into dst. An empty body leaves dst zeroed.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

// SignupStart godoc
// @Summary Begin signup or resend the verification code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignupStartRequest true "Signup payload"
// @Success 201 {object} SignupStartResponse
// @Success 200 {object} ResendCodeResponse
// @Failure 400,404,409,429 {object} apierror.Body
// @Router /api/v1/authentication/signup/start [post]
func (h *AuthenticationHandler) signupStart(c *gin.Context) {
	var req SignupStartRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.ResendCode {
		h.resendCode(c, req)
		return
	}

	result, err := h.signup.Start(c.Request.Context(), usecase.StartSignupInput{
		Email:    req.Email,
		Password: req.Password,
		Forename: req.Forename,
		Surname:  req.Surname,
	})
	if err != nil {
		RespondWithMappedError(c, err, signupStartErrors)
		return
	}

	c.JSON(http.StatusCreated, SignupStartResponse{TempAccountID: result.TempAccountID, AccountID: result.AccountID})
}

func (h *AuthenticationHandler) resendCode(c *gin.Context, req SignupStartRequest) {
	if err := h.signup.Resend(c.Request.Context(), req.Email, req.TempAccountID); err != nil {
		RespondWithMappedError(c, err, resendErrors)
		return
	}

	c.JSON(http.StatusOK, ResendCodeResponse{
		Message:       "Verification code resent. Please check your email.",
		TempAccountID: req.TempAccountID,
	})
}

// VerifyEmail godoc
// @Summary Verify the emailed code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param code path string true "Verification code"
// @Param request body VerifyEmailRequest true "Signup identifiers"
// @Success 200 {object} VerifyEmailResponse
// @Failure 400,404 {object} apierror.Body
// @Router /api/v1/authentication/verify-email/{code} [post]
func (h *AuthenticationHandler) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.signup.Verify(c.Request.Context(), usecase.VerifyEmailInput{
		TempAccountID: req.TempAccountID,
		AccountID:     req.AccountID,
		Code:          c.Param("code"),
	})
	if err != nil {
		RespondWithMappedError(c, err, verifyErrors)
		return
	}

	c.JSON(http.StatusOK, VerifyEmailResponse{Success: true, Message: "Email verification successful.", Token: result.Token})
}

// CompleteSignup godoc
// @Summary Activate the account and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignupCompleteRequest true "Magic link token"
// @Success 200 {object} SignupCompleteResponse
// @Failure 400,401,404 {object} apierror.Body
// @Router /api/v1/authentication/signup/complete [post]
func (h *AuthenticationHandler) completeSignup(c *gin.Context) {
	var req SignupCompleteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.signup.Complete(c.Request.Context(), usecase.CompleteSignupInput{
		TempAccountID:     req.TempAccountID,
		VerificationToken: req.VerificationToken,
		Forename:          req.Forename,
		Surname:           req.Surname,
		Metadata:          middleware.GetRequestContext(c).SessionMetadata(),
	})
	if err != nil {
		RespondWithMappedError(c, err, completeErrors)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	c.JSON(http.StatusOK, SignupCompleteResponse{
		Message:      "Account successfully created",
		Account:      result.Account,
		SessionToken: result.Session.Token,
	})
}

// Login godoc
// @Summary Password login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400,401,403,429 {object} apierror.Body
// @Router /api/v1/authentication/login [post]
func (h *AuthenticationHandler) login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Metadata: middleware.GetRequestContext(c).SessionMetadata(),
	})
	if err != nil {
		RespondWithMappedError(c, err, loginErrors)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	c.JSON(http.StatusOK, LoginResponse{
		Account:      newAccountResponse(result.Account),
		SessionToken: result.Session.Token,
	})
}

func (h *AuthenticationHandler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.CurrentSessionToken(c)); err != nil {
		RespondWithMappedError(c, err, nil)
		return
	}

	if h.cookie != nil {
		h.cookie.Clear(c)
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful."})
}

func (h *AuthenticationHandler) me(c *gin.Context) {
	session, _, err := middleware.ResolveSession(c, h.sessions, h.cookie)
	if err != nil {
		RespondWithMappedError(c, err, currentAccountErrors)
		return
	}

	c.JSON(http.StatusOK, CurrentAccountResponse{Account: session.Account})
}

func (h *AuthenticationHandler) setSessionCookie(c *gin.Context, token string) {
	if h.cookie == nil || strings.TrimSpace(token) == "" {
		return
	}
	if err := h.cookie.Set(c, token); err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Warn("set session cookie", zap.Error(err))
	}
}

func notImplemented(c *gin.Context) {
	respondError(c, http.StatusNotImplemented, "Not implemented yet")
}
