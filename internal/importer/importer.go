// Package importer loads catalog products from spreadsheet exports.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"shopassist/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column names accepted in the header row, matched case-insensitively
const (
	ColName          = "name"
	ColDescription   = "description"
	ColCategory      = "category"
	ColPrice         = "price"
	ColStockQuantity = "stock_quantity"
	ColSKU           = "sku"
	ColBrand         = "brand"
	ColRating        = "rating"
	ColImageURL      = "image_url"
	ColFeatured      = "featured"
)

var requiredColumns = []string{ColName, ColCategory, ColPrice, ColSKU, ColBrand}

// Column widths of the products and categories tables
var maxLengths = map[string]int{
	ColName:     200,
	ColSKU:      50,
	ColBrand:    100,
	ColCategory: 100,
}

var (
	maxRating = decimal.NewFromInt(5)
	// largest NUMERIC(10,2)
	maxPrice = decimal.RequireFromString("99999999.99")
)

// ErrNoRows is returned for a sheet without a header row
var ErrNoRows = errors.New("sheet has no rows")

// Store receives the imported catalog
type Store interface {
	UpsertCategory(ctx context.Context, name, description string) (int64, error)
	UpsertProduct(ctx context.Context, p *model.Product) error
}

// Row is one parsed product line of the sheet
type Row struct {
	Line     int
	Category string
	Product  model.Product
}

// RowError reports why a sheet line was skipped
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result summarizes an import
type Result struct {
	Categories int
	Products   int
	Skipped    []RowError
}

// Importer writes spreadsheet rows to the catalog
type Importer struct {
	store Store
	log   *zap.Logger
}

// New creates an importer
func New(store Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, log: log}
}

// ImportFile imports the first sheet of the xlsx file at path
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return im.Import(ctx, rows)
}

// ReadRows returns the rows of the first sheet of an xlsx document
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// Import parses rows, the first being the header, and upserts categories
// by name and products by SKU. Invalid lines are skipped and reported.
func (im *Importer) Import(ctx context.Context, rows [][]string) (*Result, error) {
	parsed, skipped, err := ParseRows(rows)
	if err != nil {
		return nil, err
	}

	result := &Result{Skipped: skipped}
	categoryIDs := map[string]int64{}

	for _, row := range parsed {
		key := strings.ToLower(row.Category)
		categoryID, ok := categoryIDs[key]
		if !ok {
			categoryID, err = im.store.UpsertCategory(ctx, row.Category, "")
			if err != nil {
				return result, err
			}
			categoryIDs[key] = categoryID
			result.Categories++
		}

		product := row.Product
		product.CategoryID = categoryID
		if err := im.store.UpsertProduct(ctx, &product); err != nil {
			return result, err
		}
		result.Products++
	}

	for _, s := range skipped {
		im.log.Warn("skipped import row", zap.Int("line", s.Line), zap.Error(s.Err))
	}
	im.log.Info("catalog import finished",
		zap.Int("categories", result.Categories),
		zap.Int("products", result.Products),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// ParseRows maps the header row to columns and parses every following
// non-blank line. Line numbers are 1-based sheet rows.
func ParseRows(rows [][]string) ([]Row, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrNoRows
	}

	columns := map[string]int{}
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		if name != "" {
			columns[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var parsed []Row
	var skipped []RowError
	seenSKU := map[string]int{}

	for i, cells := range rows[1:] {
		line := i + 2
		if isBlank(cells) {
			continue
		}

		cell := func(col string) string {
			idx, ok := columns[col]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}

		row, err := parseRow(cell)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		if first, dup := seenSKU[row.Product.SKU]; dup {
			skipped = append(skipped, RowError{Line: line, Err: fmt.Errorf("duplicate sku %s, first seen on row %d", row.Product.SKU, first)})
			continue
		}
		seenSKU[row.Product.SKU] = line
		row.Line = line
		parsed = append(parsed, row)
	}

	return parsed, skipped, nil
}

func parseRow(cell func(string) string) (Row, error) {
	p := model.Product{
		Name:        cell(ColName),
		Description: cell(ColDescription),
		SKU:         cell(ColSKU),
		Brand:       cell(ColBrand),
		IsActive:    true,
	}
	category := cell(ColCategory)

	for _, col := range requiredColumns {
		if col != ColPrice && cell(col) == "" {
			return Row{}, fmt.Errorf("%s is empty", col)
		}
	}
	for _, col := range []string{ColName, ColSKU, ColBrand, ColCategory} {
		if n := utf8.RuneCountInString(cell(col)); n > maxLengths[col] {
			return Row{}, fmt.Errorf("%s is %d characters, max %d", col, n, maxLengths[col])
		}
	}

	price, err := parseDecimal(cell(ColPrice))
	if err != nil || price.IsNegative() {
		return Row{}, fmt.Errorf("invalid price %q", cell(ColPrice))
	}
	p.Price = price.Round(2)
	if p.Price.GreaterThan(maxPrice) {
		return Row{}, fmt.Errorf("price %s exceeds %s", p.Price, maxPrice)
	}

	if v := cell(ColStockQuantity); v != "" {
		stock, err := strconv.ParseInt(v, 10, 32)
		if err != nil || stock < 0 {
			return Row{}, fmt.Errorf("invalid stock_quantity %q", v)
		}
		p.StockQuantity = int(stock)
	}

	if v := cell(ColRating); v != "" {
		rating, err := parseDecimal(v)
		if err != nil || rating.IsNegative() || rating.GreaterThan(maxRating) {
			return Row{}, fmt.Errorf("invalid rating %q", v)
		}
		p.Rating = rating.Round(2)
	}

	if v := cell(ColImageURL); v != "" {
		p.ImageURL = &v
	}

	p.Featured = parseBool(cell(ColFeatured))

	return Row{Category: category, Product: p}, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(raw))
	return decimal.NewFromString(cleaned)
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "x":
		return true
	}
	return false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
