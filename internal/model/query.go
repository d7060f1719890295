package model

// Sort orders accepted by the catalog
const (
	SortNameAsc       = "name"
	SortNameDesc      = "-name"
	SortPriceAsc      = "price"
	SortPriceDesc     = "-price"
	SortRatingAsc     = "rating"
	SortRatingDesc    = "-rating"
	SortCreatedAsc    = "created_at"
	SortCreatedDesc   = "-created_at"
	SortRelevance     = "relevance"
	DefaultSortOrder  = SortCreatedDesc
	FeaturedListLimit = 10
)

// ValidSortOrders lists every accepted sort_by value
var ValidSortOrders = []string{
	SortNameAsc, SortNameDesc,
	SortPriceAsc, SortPriceDesc,
	SortRatingAsc, SortRatingDesc,
	SortCreatedAsc, SortCreatedDesc,
	SortRelevance,
}

// ProductFilters represents structured catalog filters
type ProductFilters struct {
	Query      string   `json:"query,omitempty"`
	CategoryID *int64   `json:"category,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Brand      string   `json:"brand,omitempty"`
	InStock    *bool    `json:"in_stock,omitempty"`
	Featured   *bool    `json:"featured,omitempty"`
}

// ProductQuery is a filtered, ordered and paginated catalog query
type ProductQuery struct {
	Filters ProductFilters
	SortBy  string
	Limit   int
	Offset  int
}

// ProductSearchRequest represents the body of POST /products/search
type ProductSearchRequest struct {
	Query    string   `json:"query"`
	Category *int64   `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty" binding:"omitempty,min=0"`
	MaxPrice *float64 `json:"max_price,omitempty" binding:"omitempty,min=0"`
	Brand    string   `json:"brand"`
	InStock  *bool    `json:"in_stock,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
	SortBy   string   `json:"sort_by"`
}

// Filters converts the request body into catalog filters
func (r *ProductSearchRequest) Filters() ProductFilters {
	return ProductFilters{
		Query:      r.Query,
		CategoryID: r.Category,
		MinPrice:   r.MinPrice,
		MaxPrice:   r.MaxPrice,
		Brand:      r.Brand,
		InStock:    r.InStock,
		Featured:   r.Featured,
	}
}

// Pagination holds a resolved page request
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the row offset of the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ProductListResponse represents a paginated product list
type ProductListResponse struct {
	Products   []Product `json:"products"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`

	// Relevance is set only for relevance-sorted lists, in Products order
	Relevance []RelevanceScore `json:"relevance,omitempty"`
}

// RelevanceScore is the ranking outcome for one listed product
type RelevanceScore struct {
	ProductID      int64    `json:"product_id"`
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matched_reasons"`
}

// TotalPages returns the number of pages needed for total rows
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ProductDetailsResponse is returned to the chat client for a single product
type ProductDetailsResponse struct {
	Product          Product `json:"product"`
	FormattedDetails string  `json:"formatted_details"`
}
