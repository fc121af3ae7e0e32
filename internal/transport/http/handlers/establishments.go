package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

// EstablishmentManager is establishment CRUD scoped to the caller.
type EstablishmentManager interface {
	List(ctx context.Context, accountID string, page domain.Page) ([]domain.Establishment, domain.PageInfo, error)
	Get(ctx context.Context, accountID, id string) (*domain.Establishment, error)
	Create(ctx context.Context, accountID string, input usecase.CreateEstablishmentInput) (*domain.Establishment, error)
	Update(ctx context.Context, accountID, id string, patch domain.EstablishmentPatch) (*domain.Establishment, error)
	Delete(ctx context.Context, accountID, id string) error
}

// establishmentErrors words the ownership failures for one operation, e.g.
// "update establishments" and "update it".
func establishmentErrors(action, target string) []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrProfessionalRequired, Status: http.StatusForbidden, Message: "Only professional accounts can " + action},
		{Err: usecase.ErrEstablishmentNotFound, Status: http.StatusNotFound, Message: "Establishment not found or you do not have permission to " + target},
		{Err: usecase.ErrEstablishmentInvalid, Status: http.StatusBadRequest, Message: "Establishment name and address are required"},
	}
}

var (
	listEstablishmentErrors   = establishmentErrors("access establishments", "access it")
	getEstablishmentErrors    = establishmentErrors("access establishments", "access it")
	createEstablishmentErrors = establishmentErrors("create establishments", "access it")
	updateEstablishmentErrors = establishmentErrors("update establishments", "update it")
	deleteEstablishmentErrors = establishmentErrors("delete establishments", "delete it")
)

// EstablishmentHandler exposes /establishments.
type EstablishmentHandler struct {
	establishments EstablishmentManager
}

// NewEstablishmentHandler constructs EstablishmentHandler.
func NewEstablishmentHandler(establishments EstablishmentManager) *EstablishmentHandler {
	return &EstablishmentHandler{establishments: establishments}
}

// RegisterRoutes binds /establishments routes. The group must already require a session.
func (h *EstablishmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.GET("/:establishmentId", h.get)
	r.POST("", h.create)
	r.PUT("/:establishmentId", h.update)
	r.DELETE("/:establishmentId", h.delete)
}

func (h *EstablishmentHandler) list(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	items, info, err := h.establishments.List(c.Request.Context(), caller.ID, pageFromQuery(c))
	if err != nil {
		RespondWithMappedError(c, err, listEstablishmentErrors)
		return
	}
	if items == nil {
		items = []domain.Establishment{}
	}
	c.JSON(http.StatusOK, EstablishmentListResponse{Establishments: items, Pagination: info})
}

func (h *EstablishmentHandler) get(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	establishment, err := h.establishments.Get(c.Request.Context(), caller.ID, c.Param("establishmentId"))
	if err != nil {
		RespondWithMappedError(c, err, getEstablishmentErrors)
		return
	}
	c.JSON(http.StatusOK, establishment)
}

func (h *EstablishmentHandler) create(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req EstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	establishment, err := h.establishments.Create(c.Request.Context(), caller.ID, usecase.CreateEstablishmentInput{
		Name:        deref(req.Name),
		Address:     deref(req.Address),
		Description: req.Description,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
	})
	if err != nil {
		RespondWithMappedError(c, err, createEstablishmentErrors)
		return
	}
	c.JSON(http.StatusCreated, establishment)
}

func (h *EstablishmentHandler) update(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req EstablishmentRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := domain.EstablishmentPatch{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
	}
	if req.Status != nil {
		status := domain.EstablishmentStatus(*req.Status)
		patch.Status = &status
	}

	establishment, err := h.establishments.Update(c.Request.Context(), caller.ID, c.Param("establishmentId"), patch)
	if err != nil {
		RespondWithMappedError(c, err, updateEstablishmentErrors)
		return
	}
	c.JSON(http.StatusOK, establishment)
}

func (h *EstablishmentHandler) delete(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	if err := h.establishments.Delete(c.Request.Context(), caller.ID, c.Param("establishmentId")); err != nil {
		RespondWithMappedError(c, err, deleteEstablishmentErrors)
		return
	}
	c.Status(http.StatusNoContent)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
