package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"shopassist/internal/model"
	"shopassist/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogService is the catalog behaviour the product endpoints need
type CatalogService interface {
	Paginate(page, pageSize int) model.Pagination
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListProducts(ctx context.Context, filters model.ProductFilters, sortBy string, page model.Pagination) (*model.ProductListResponse, error)
	SearchProducts(ctx context.Context, req *model.ProductSearchRequest, page model.Pagination) (*model.ProductListResponse, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListBrands(ctx context.Context) ([]string, error)
	FeaturedProducts(ctx context.Context) ([]model.Product, error)
}

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	catalog CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// Register mounts the product routes on rg
func (h *ProductHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/categories", h.ListCategories)
	rg.GET("", h.ListProducts)
	rg.GET("/:id", h.GetProduct)
	rg.POST("/search", h.Search)
	rg.GET("/brands", h.ListBrands)
	rg.GET("/featured", h.Featured)
}

// ListCategories handles GET /api/v1/products/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.catalog.ListProducts(c.Request.Context(), filters, c.Query("sort_by"), page)
	if err != nil {
		writeCatalogError(c, "Failed to list products", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Search handles POST /api/v1/products/search
func (h *ProductHandler) Search(c *gin.Context) {
	var req model.ProductSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	page, err := h.pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.catalog.SearchProducts(c.Request.Context(), &req, page)
	if err != nil {
		writeCatalogError(c, "Search failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct handles GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		writeCatalogError(c, "Failed to get product", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListBrands handles GET /api/v1/products/brands
func (h *ProductHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalog.ListBrands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list brands: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// Featured handles GET /api/v1/products/featured
func (h *ProductHandler) Featured(c *gin.Context) {
	products, err := h.catalog.FeaturedProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list featured products: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *ProductHandler) pagination(c *gin.Context) (model.Pagination, error) {
	page, err := optionalInt(c, "page")
	if err != nil {
		return model.Pagination{}, err
	}
	pageSize, err := optionalInt(c, "page_size")
	if err != nil {
		return model.Pagination{}, err
	}
	return h.catalog.Paginate(page, pageSize), nil
}

// filtersFromQuery reads the list filters from the query string. in_stock
// and featured only filter when set to "true".
func filtersFromQuery(c *gin.Context) (model.ProductFilters, error) {
	var filters model.ProductFilters

	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filters, errors.New("invalid category")
		}
		filters.CategoryID = &id
	}
	if v := c.Query("min_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return filters, errors.New("invalid min_price")
		}
		filters.MinPrice = &price
	}
	if v := c.Query("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return filters, errors.New("invalid max_price")
		}
		filters.MaxPrice = &price
	}
	filters.Brand = c.Query("brand")

	trueVal := true
	if c.Query("in_stock") == "true" {
		filters.InStock = &trueVal
	}
	if c.Query("featured") == "true" {
		filters.Featured = &trueVal
	}

	return filters, nil
}

func optionalInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func writeCatalogError(c *gin.Context, prefix string, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrInvalidSort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
	}
}
