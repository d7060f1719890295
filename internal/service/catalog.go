package service

import (
	"context"
	"errors"
	"fmt"

	"shopassist/internal/config"
	"shopassist/internal/model"
	"shopassist/internal/repository"
	"shopassist/internal/utils"

	"go.uber.org/zap"
)

var (
	// ErrProductNotFound is returned when no active product has the id
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidSort is returned for a sort_by outside the whitelist
	ErrInvalidSort = errors.New("invalid sort order")
)

// Cache keys
const (
	cacheKeyBrands   = "catalog:brands"
	cacheKeyFeatured = "catalog:featured"
)

// CatalogRepository is the product storage used by the catalog
type CatalogRepository interface {
	SearchProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, int, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	FindCategory(ctx context.Context, keywords []string) (*model.Category, error)
	ListBrands(ctx context.Context) ([]string, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
}

// CatalogService handles product listing and search
type CatalogService struct {
	repo   CatalogRepository
	cache  repository.Cache
	ranker *Ranker
	cfg    config.CatalogConfig
	log    *zap.Logger
}

// NewCatalogService creates a new catalog service. A nil cache disables
// caching.
func NewCatalogService(
	repo CatalogRepository,
	cache repository.Cache,
	ranker *Ranker,
	cfg config.CatalogConfig,
	log *zap.Logger,
) *CatalogService {
	if cache == nil {
		cache = repository.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		ranker: ranker,
		cfg:    cfg,
		log:    log,
	}
}

// Paginate applies defaults and the page size cap
func (s *CatalogService) Paginate(page, pageSize int) model.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	return model.Pagination{Page: page, PageSize: pageSize}
}

// ListCategories returns all categories with their active product counts
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListProducts returns one page of active products
func (s *CatalogService) ListProducts(
	ctx context.Context,
	filters model.ProductFilters,
	sortBy string,
	page model.Pagination,
) (*model.ProductListResponse, error) {
	if sortBy == "" {
		sortBy = model.DefaultSortOrder
	}
	if !isValidSort(sortBy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, sortBy)
	}

	products, total, err := s.repo.SearchProducts(ctx, model.ProductQuery{
		Filters: filters,
		SortBy:  sortBy,
		Limit:   page.PageSize,
		Offset:  page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	resp := &model.ProductListResponse{
		Products:   products,
		TotalCount: total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: model.TotalPages(total, page.PageSize),
	}

	if sortBy == model.SortRelevance && s.ranker != nil {
		ranked := s.ranker.RankProducts(products, filters)
		resp.Products = make([]model.Product, len(ranked))
		resp.Relevance = make([]model.RelevanceScore, len(ranked))
		for i, r := range ranked {
			resp.Products[i] = r.Product
			resp.Relevance[i] = model.RelevanceScore{
				ProductID:      r.Product.ID,
				Score:          r.Score,
				MatchedReasons: r.MatchedReasons,
			}
		}
	}

	return resp, nil
}

// SearchProducts runs a search request from POST /products/search
func (s *CatalogService) SearchProducts(
	ctx context.Context,
	req *model.ProductSearchRequest,
	page model.Pagination,
) (*model.ProductListResponse, error) {
	return s.ListProducts(ctx, req.Filters(), req.SortBy, page)
}

// Search returns the first limit matches of q, without a total count
func (s *CatalogService) Search(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	products, _, err := s.repo.SearchProducts(ctx, q)
	return products, err
}

// GetProduct returns an active product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// ListBrands returns the distinct brands of active products
func (s *CatalogService) ListBrands(ctx context.Context) ([]string, error) {
	var brands []string
	if s.fromCache(ctx, cacheKeyBrands, &brands) {
		return brands, nil
	}

	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cacheKeyBrands, brands)
	return brands, nil
}

// FeaturedProducts returns the newest featured products
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if s.fromCache(ctx, cacheKeyFeatured, &products) {
		return products, nil
	}

	products, err := s.repo.ListFeatured(ctx, model.FeaturedListLimit)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cacheKeyFeatured, products)
	return products, nil
}

// InvalidateCache drops cached catalog lists after the catalog changed
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cacheKeyBrands, cacheKeyFeatured)
}

// ResolveCategory maps a category hint to a category id. An unknown hint
// resolves to nil without error.
func (s *CatalogService) ResolveCategory(ctx context.Context, hint string) (*int64, error) {
	aliases := utils.CategoryAliases(hint)
	if len(aliases) == 0 {
		return nil, nil
	}

	category, err := s.repo.FindCategory(ctx, aliases)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func (s *CatalogService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func isValidSort(sortBy string) bool {
	for _, v := range model.ValidSortOrders {
		if v == sortBy {
			return true
		}
	}
	return false
}
