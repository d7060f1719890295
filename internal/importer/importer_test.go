package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shopassist/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{"Name", "Description", "Category", "Price", "Stock_Quantity", "SKU", "Brand", "Rating", "Image_URL", "Featured"}

type stubStore struct {
	categories map[string]int64
	products   []model.Product
	err        error
	// productErr fails UpsertProduct once maxProducts are stored
	productErr  error
	maxProducts int
}

func (s *stubStore) UpsertCategory(_ context.Context, name, _ string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.categories == nil {
		s.categories = map[string]int64{}
	}
	if id, ok := s.categories[name]; ok {
		return id, nil
	}
	id := int64(len(s.categories) + 1)
	s.categories[name] = id
	return id, nil
}

func (s *stubStore) UpsertProduct(_ context.Context, p *model.Product) error {
	if s.err != nil {
		return s.err
	}
	if s.productErr != nil && len(s.products) >= s.maxProducts {
		return s.productErr
	}
	p.ID = int64(len(s.products) + 1)
	s.products = append(s.products, *p)
	return nil
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		header,
		{"MacBook Air", "M3 laptop", "Laptop", "$1,099.00", "4", "MBA-13", "Apple", "4.8", "https://img/mba.png", "yes"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"Pixel 9", "", "Phone", "799", "", "PX9", "Google"},
		{"Broken", "", "Phone", "cheap", "1", "BRK", "Acme"},
		{"Too good", "", "Phone", "10", "1", "TG", "Acme", "7"},
		{"No brand", "", "Phone", "10", "1", "NB", ""},
		{"Dup", "", "Phone", "10", "1", "PX9", "Google"},
	}

	parsed, skipped, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	mba := parsed[0]
	assert.Equal(t, 2, mba.Line)
	assert.Equal(t, "Laptop", mba.Category)
	assert.Equal(t, "MacBook Air", mba.Product.Name)
	assert.True(t, mba.Product.Price.Equal(decimal.RequireFromString("1099")))
	assert.Equal(t, 4, mba.Product.StockQuantity)
	assert.True(t, mba.Product.Rating.Equal(decimal.RequireFromString("4.8")))
	require.NotNil(t, mba.Product.ImageURL)
	assert.Equal(t, "https://img/mba.png", *mba.Product.ImageURL)
	assert.True(t, mba.Product.Featured)
	assert.True(t, mba.Product.IsActive)

	pixel := parsed[1]
	assert.Equal(t, 4, pixel.Line)
	assert.Equal(t, 0, pixel.Product.StockQuantity)
	assert.True(t, pixel.Product.Rating.IsZero())
	assert.Nil(t, pixel.Product.ImageURL)
	assert.False(t, pixel.Product.Featured)

	require.Len(t, skipped, 4)
	assert.Equal(t, 5, skipped[0].Line)
	assert.Contains(t, skipped[0].Error(), "invalid price")
	assert.Equal(t, 6, skipped[1].Line)
	assert.Contains(t, skipped[1].Error(), "invalid rating")
	assert.Equal(t, 7, skipped[2].Line)
	assert.Contains(t, skipped[2].Error(), "brand is empty")
	assert.Equal(t, 8, skipped[3].Line)
	assert.Contains(t, skipped[3].Error(), "duplicate sku PX9")
}

func TestParseRows_ColumnLimits(t *testing.T) {
	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{"long sku", []string{"A", "", "Audio", "10", "1", strings.Repeat("S", 51), "Sony"}, "sku is 51 characters, max 50"},
		{"long name", []string{strings.Repeat("n", 201), "", "Audio", "10", "1", "A1", "Sony"}, "name is 201 characters, max 200"},
		{"long brand", []string{"A", "", "Audio", "10", "1", "A1", strings.Repeat("b", 101)}, "brand is 101 characters, max 100"},
		{"long category", []string{"A", "", strings.Repeat("c", 101), "10", "1", "A1", "Sony"}, "category is 101 characters, max 100"},
		{"price too large", []string{"A", "", "Audio", "100000000", "1", "A1", "Sony"}, "price 100000000 exceeds 99999999.99"},
		{"price rounds past max", []string{"A", "", "Audio", "99999999.999", "1", "A1", "Sony"}, "exceeds"},
		{"stock overflows integer", []string{"A", "", "Audio", "10", "2147483648", "A1", "Sony"}, "invalid stock_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, skipped, err := ParseRows([][]string{header, tt.row})
			require.NoError(t, err)
			assert.Empty(t, parsed)
			require.Len(t, skipped, 1)
			assert.Equal(t, 2, skipped[0].Line)
			assert.Contains(t, skipped[0].Error(), tt.wantErr)
		})
	}
}

func TestParseRows_AtColumnLimits(t *testing.T) {
	row := []string{
		strings.Repeat("é", 200), "", strings.Repeat("c", 100), "99999999.99", "2147483647",
		strings.Repeat("S", 50), strings.Repeat("b", 100),
	}

	parsed, skipped, err := ParseRows([][]string{header, row})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, parsed, 1)
	assert.Equal(t, "99999999.99", parsed[0].Product.Price.StringFixed(2))
}

func TestParseRows_HeaderErrors(t *testing.T) {
	_, _, err := ParseRows(nil)
	assert.ErrorIs(t, err, ErrNoRows)

	_, _, err = ParseRows([][]string{{"name", "price", "sku", "brand"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"category"`)
}

func TestImporter_Import(t *testing.T) {
	store := &stubStore{}
	im := New(store, nil)

	result, err := im.Import(context.Background(), [][]string{
		header,
		{"A", "", "Audio", "10", "1", "A1", "Sony"},
		{"B", "", "audio", "20", "0", "B1", "Sony"},
		{"C", "", "Books", "5", "3", "C1", "Penguin"},
		{"D", "", "Books", "-5", "3", "D1", "Penguin"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Categories)
	assert.Equal(t, 3, result.Products)
	assert.Len(t, result.Skipped, 1)

	require.Len(t, store.products, 3)
	assert.Equal(t, store.products[0].CategoryID, store.products[1].CategoryID)
	assert.NotEqual(t, store.products[0].CategoryID, store.products[2].CategoryID)
}

func TestImporter_ImportStoreFailure(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}

	_, err := New(store, nil).Import(context.Background(), [][]string{
		header,
		{"A", "", "Audio", "10", "1", "A1", "Sony"},
	})
	assert.EqualError(t, err, "db down")
}

func TestImporter_ImportPartialResult(t *testing.T) {
	store := &stubStore{productErr: errors.New("db down"), maxProducts: 1}

	result, err := New(store, nil).Import(context.Background(), [][]string{
		header,
		{"A", "", "Audio", "10", "1", "A1", "Sony"},
		{"B", "", "Audio", "20", "1", "B1", "Sony"},
		{"C", "", "Audio", "30", "1", "C1", "Sony"},
	})
	assert.EqualError(t, err, "db down")
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Categories)
	assert.Equal(t, 1, result.Products)
}

func workbook(t *testing.T, data [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for r, row := range data {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return &buf
}

func TestReadRows(t *testing.T) {
	buf := workbook(t, [][]string{
		header,
		{"Galaxy S24", "Flagship", "Phone", "899.99", "10", "GS24", "Samsung", "4.6", "", "true"},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Galaxy S24", rows[1][0])

	parsed, skipped, err := ParseRows(rows)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, parsed, 1)
	assert.True(t, parsed[0].Product.Featured)
	assert.True(t, parsed[0].Product.Price.Equal(decimal.RequireFromString("899.99")))
}

func TestImporter_ImportFile(t *testing.T) {
	buf := workbook(t, [][]string{
		header,
		{"Galaxy S24", "Flagship", "Phone", "899.99", "10", "GS24", "Samsung", "4.6", "", "true"},
		{"Huge", "", "Phone", "100000000", "1", "HG1", "Acme"},
	})
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	store := &stubStore{}
	result, err := New(store, nil).ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Categories)
	assert.Equal(t, 1, result.Products)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Line)

	_, err = New(store, nil).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
