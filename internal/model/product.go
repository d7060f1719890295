package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category represents a product category
type Category struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	ProductCount int       `json:"product_count" db:"product_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Product represents a catalog product
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	CategoryID    int64           `json:"category" db:"category_id"`
	CategoryName  string          `json:"category_name" db:"category_name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	SKU           string          `json:"sku" db:"sku"`
	Brand         string          `json:"brand" db:"brand"`
	Rating        decimal.Decimal `json:"rating" db:"rating"`
	ImageURL      *string         `json:"image_url" db:"image_url"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	Featured      bool            `json:"featured" db:"featured"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// InStock reports whether any units are available
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// MarshalJSON adds the derived in_stock field
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		InStock bool `json:"in_stock"`
	}{
		alias:   alias(p),
		InStock: p.InStock(),
	})
}

// ScoredProduct is a product with its ranking score
type ScoredProduct struct {
	Product        Product
	Score          float64
	MatchedReasons []string
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONMap source type %T", value)
	}
}
