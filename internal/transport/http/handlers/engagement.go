package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

// ReviewManager lists and records reviews.
type ReviewManager interface {
	List(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, domain.PageInfo, error)
	Create(ctx context.Context, accountID string, input usecase.CreateReviewInput) (*domain.Review, error)
}

// FavoriteManager manages the caller's favorites.
type FavoriteManager interface {
	List(ctx context.Context, accountID string) ([]domain.Favorite, error)
	Add(ctx context.Context, accountID string, target domain.Target) (*domain.Favorite, error)
	Remove(ctx context.Context, accountID, id string) error
}

const invalidTargetMessage = "A target kind of product or establishment and a target id are required"

var engagementErrors = []ErrorCase{
	{Err: usecase.ErrTargetNotFound, Status: http.StatusNotFound, Message: "Target not found"},
	{Err: usecase.ErrReviewInvalid, Status: http.StatusBadRequest, Message: "Rating must be between 1 and 5"},
	{Err: usecase.ErrFavoriteExists, Status: http.StatusConflict, Message: "Target is already a favorite"},
	{Err: usecase.ErrFavoriteNotFound, Status: http.StatusNotFound, Message: "Favorite not found"},
}

// EngagementHandler exposes /reviews and /favorites.
type EngagementHandler struct {
	reviews   ReviewManager
	favorites FavoriteManager
}

// NewEngagementHandler constructs EngagementHandler.
func NewEngagementHandler(reviews ReviewManager, favorites FavoriteManager) *EngagementHandler {
	return &EngagementHandler{reviews: reviews, favorites: favorites}
}

// RegisterRoutes binds /reviews and /favorites under r. Listing reviews is public.
func (h *EngagementHandler) RegisterRoutes(r *gin.RouterGroup, requireSession gin.HandlerFunc) {
	reviews := r.Group("/reviews")
	reviews.GET("", h.listReviews)
	reviews.POST("", requireSession, h.createReview)

	favorites := r.Group("/favorites", requireSession)
	favorites.GET("", h.listFavorites)
	favorites.POST("", h.addFavorite)
	favorites.DELETE("/:favoriteId", h.removeFavorite)
}

func (h *EngagementHandler) listReviews(c *gin.Context) {
	target, err := domain.ParseTarget(c.Query("targetKind"), c.Query("targetId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, invalidTargetMessage)
		return
	}

	items, info, err := h.reviews.List(c.Request.Context(), target, pageFromQuery(c))
	if err != nil {
		RespondWithMappedError(c, err, engagementErrors)
		return
	}
	if items == nil {
		items = []domain.Review{}
	}
	c.JSON(http.StatusOK, ReviewListResponse{Reviews: items, Pagination: info})
}

func (h *EngagementHandler) createReview(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	target, err := domain.ParseTarget(req.Target.Kind, req.Target.ID)
	if err != nil {
		respondError(c, http.StatusBadRequest, invalidTargetMessage)
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), caller.ID, usecase.CreateReviewInput{
		Target:      target,
		Rating:      req.Rating,
		Title:       req.Title,
		Comment:     req.Comment,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		RespondWithMappedError(c, err, engagementErrors)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *EngagementHandler) listFavorites(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	items, err := h.favorites.List(c.Request.Context(), caller.ID)
	if err != nil {
		RespondWithMappedError(c, err, engagementErrors)
		return
	}
	if items == nil {
		items = []domain.Favorite{}
	}
	c.JSON(http.StatusOK, FavoriteListResponse{Favorites: items})
}

func (h *EngagementHandler) addFavorite(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	target, err := domain.ParseTarget(req.Target.Kind, req.Target.ID)
	if err != nil {
		respondError(c, http.StatusBadRequest, invalidTargetMessage)
		return
	}

	favorite, err := h.favorites.Add(c.Request.Context(), caller.ID, target)
	if err != nil {
		RespondWithMappedError(c, err, engagementErrors)
		return
	}
	c.JSON(http.StatusCreated, favorite)
}

func (h *EngagementHandler) removeFavorite(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	if err := h.favorites.Remove(c.Request.Context(), caller.ID, c.Param("favoriteId")); err != nil {
		RespondWithMappedError(c, err, engagementErrors)
		return
	}
	c.Status(http.StatusNoContent)
}
