package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/http/middleware"
	"github.com/pankaj085/lotuslynx/internal/repository"
	"github.com/pankaj085/lotuslynx/internal/service"
)

// CatalogHandler exposes product CRUD, image upload and payment intents.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Logger: logger}
}

// List returns a filtered page of products.
func (h *CatalogHandler) List(c *gin.Context) {
	filter := repository.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
	}

	var ok bool
	if filter.Offset, ok = intQuery(c, "skip", 0); !ok {
		return
	}
	if filter.Limit, ok = intQuery(c, "limit", 0); !ok {
		return
	}
	if filter.MinPrice, ok = floatQuery(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = floatQuery(c, "max_price"); !ok {
		return
	}

	products, err := h.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// Get returns one product.
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create adds a product.
func (h *CatalogHandler) Create(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	product, err := h.Catalog.Create(c.Request.Context(), domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	})
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update applies a partial update.
func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var patch domain.ProductUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	product, err := h.Catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete removes a product.
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage stores a multipart image file against the product.
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "An image file is required."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	product, err := h.Catalog.AttachImage(c.Request.Context(), id, file, fileHeader.Size, contentType)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": product.ID, "image_url": product.ImageURL})
}

// CreatePaymentIntent starts a payment for one unit of the product.
func (h *CatalogHandler) CreatePaymentIntent(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Could not validate credentials."})
		return
	}

	resp, err := h.Catalog.CreatePaymentIntent(c.Request.Context(), id, user)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid product id."})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid " + name + " parameter."})
		return 0, false
	}
	return value, true
}

func floatQuery(c *gin.Context, name string) (*float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid " + name + " parameter."})
		return nil, false
	}
	return &value, true
}
