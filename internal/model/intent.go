package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Intent is the coarse purpose assigned to a chat message
type Intent string

const (
	IntentGreeting   Intent = "greeting"
	IntentSearch     Intent = "search"
	IntentFilter     Intent = "filter"
	IntentDetails    Intent = "details"
	IntentComparison Intent = "comparison"
	IntentHelp       Intent = "help"
	IntentOther      Intent = "other"

	// IntentError only appears in bot message metadata
	IntentError Intent = "error"
)

// Confidence values reported by the classifier
const (
	MatchedConfidence  = 0.8
	FallbackConfidence = 0.3
)

// IntentMatch represents the classification of a message
type IntentMatch struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ExtractedParameters represents search parameters pulled out of a message.
// Zero-valued fields are omitted from JSON.
type ExtractedParameters struct {
	MinPrice     *int64 `json:"min_price,omitempty"`
	MaxPrice     *int64 `json:"max_price,omitempty"`
	Brand        string `json:"brand,omitempty"`
	CategoryHint string `json:"category_hint,omitempty"`
	Query        string `json:"query,omitempty"`
	ProductID    *int64 `json:"product_id,omitempty"`

	// CategoryID is filled in by category resolution, never by the extractor
	CategoryID *int64 `json:"category,omitempty"`
}

// Filters converts the parameters into catalog filters
func (p ExtractedParameters) Filters() ProductFilters {
	f := ProductFilters{
		Query:      p.Query,
		CategoryID: p.CategoryID,
		Brand:      p.Brand,
	}
	if p.MinPrice != nil {
		v := float64(*p.MinPrice)
		f.MinPrice = &v
	}
	if p.MaxPrice != nil {
		v := float64(*p.MaxPrice)
		f.MaxPrice = &v
	}
	return f
}

// Value implements driver.Valuer interface
func (p ExtractedParameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *ExtractedParameters) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = ExtractedParameters{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported ExtractedParameters source type %T", value)
	}
}
