package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

// ProductManager is product CRUD scoped through an owned establishment.
type ProductManager interface {
	List(ctx context.Context, accountID string, filter domain.ProductFilter) ([]domain.Product, domain.PageInfo, error)
	Get(ctx context.Context, accountID, establishmentID, id string) (*domain.Product, error)
	Create(ctx context.Context, accountID, establishmentID string, input usecase.CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, accountID, establishmentID, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, accountID, establishmentID, id string) error
}

func productErrors(action, establishmentTarget, productTarget string) []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrProfessionalRequired, Status: http.StatusForbidden, Message: "Only professional accounts can " + action},
		{Err: usecase.ErrEstablishmentNotFound, Status: http.StatusNotFound, Message: "Establishment not found or you do not have permission to " + establishmentTarget},
		{Err: usecase.ErrProductNotFound, Status: http.StatusNotFound, Message: "Product not found or you do not have permission to " + productTarget},
		{Err: usecase.ErrProductInvalid, Status: http.StatusBadRequest, Message: "Product name and a non-negative base price are required"},
	}
}

var (
	listProductErrors   = productErrors("access products", "access its products", "access it")
	getProductErrors    = productErrors("access products", "access its products", "access it")
	createProductErrors = productErrors("create products", "add products to it", "access it")
	updateProductErrors = productErrors("update products", "update its products", "update it")
	deleteProductErrors = productErrors("delete products", "delete its products", "delete it")
)

// ProductHandler exposes /establishments/:establishmentId/products.
type ProductHandler struct {
	products ProductManager
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products ProductManager) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes binds product routes. The group must already require a
// session and carry the :establishmentId parameter.
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.GET("/:productId", h.get)
	r.POST("", h.create)
	r.PUT("/:productId", h.update)
	r.DELETE("/:productId", h.delete)
}

func (h *ProductHandler) list(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	filter, ok := productFilterFromQuery(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "minPrice and maxPrice must be numbers")
		return
	}

	items, info, err := h.products.List(c.Request.Context(), caller.ID, filter)
	if err != nil {
		RespondWithMappedError(c, err, listProductErrors)
		return
	}
	if items == nil {
		items = []domain.Product{}
	}
	c.JSON(http.StatusOK, ProductListResponse{Products: items, Pagination: info})
}

func productFilterFromQuery(c *gin.Context) (domain.ProductFilter, bool) {
	minPrice, ok := queryFloat(c, "minPrice")
	if !ok {
		return domain.ProductFilter{}, false
	}
	maxPrice, ok := queryFloat(c, "maxPrice")
	if !ok {
		return domain.ProductFilter{}, false
	}
	availableOnly, _ := strconv.ParseBool(c.Query("availableOnly"))

	return domain.ProductFilter{
		EstablishmentID: c.Param("establishmentId"),
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		Category:        c.Query("category"),
		AvailableOnly:   availableOnly,
		Search:          c.Query("search"),
		SortBy:          domain.ParseProductSort(c.Query("sortBy")),
		Order:           domain.ParseSortOrder(c.Query("order")),
		Page:            pageFromQuery(c),
	}, true
}

func (h *ProductHandler) get(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	product, err := h.products.Get(c.Request.Context(), caller.ID, c.Param("establishmentId"), c.Param("productId"))
	if err != nil {
		RespondWithMappedError(c, err, getProductErrors)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) create(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	input := usecase.CreateProductInput{
		Name:            deref(req.Name),
		Description:     req.Description,
		BasePrice:       req.BasePrice,
		IsAvailable:     req.IsAvailable,
		PreparationTime: req.PreparationTime,
	}
	if req.ImageURLs != nil {
		input.ImageURLs = *req.ImageURLs
	}
	if req.CategoryIDs != nil {
		input.CategoryIDs = *req.CategoryIDs
	}

	product, err := h.products.Create(c.Request.Context(), caller.ID, c.Param("establishmentId"), input)
	if err != nil {
		RespondWithMappedError(c, err, createProductErrors)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) update(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), caller.ID, c.Param("establishmentId"), c.Param("productId"), domain.ProductPatch{
		Name:            req.Name,
		Description:     req.Description,
		BasePrice:       req.BasePrice,
		IsAvailable:     req.IsAvailable,
		PreparationTime: req.PreparationTime,
		ImageURLs:       req.ImageURLs,
		CategoryIDs:     req.CategoryIDs,
	})
	if err != nil {
		RespondWithMappedError(c, err, updateProductErrors)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) delete(c *gin.Context) {
	caller, _ := middleware.CurrentAccount(c)

	if err := h.products.Delete(c.Request.Context(), caller.ID, c.Param("establishmentId"), c.Param("productId")); err != nil {
		RespondWithMappedError(c, err, deleteProductErrors)
		return
	}
	c.Status(http.StatusNoContent)
}
