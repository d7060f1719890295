package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shopassist/internal/model"
	"shopassist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubCatalog struct {
	err          error
	lastFilters  model.ProductFilters
	lastSort     string
	lastPage     model.Pagination
	lastRequest  *model.ProductSearchRequest
	product      *model.Product
	categoryList []model.Category
	listResp     *model.ProductListResponse
}

func (s *stubCatalog) Paginate(page, pageSize int) model.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 50 {
		pageSize = 50
	}
	return model.Pagination{Page: page, PageSize: pageSize}
}

func (s *stubCatalog) ListCategories(context.Context) ([]model.Category, error) {
	return s.categoryList, s.err
}

func (s *stubCatalog) ListProducts(_ context.Context, f model.ProductFilters, sortBy string, page model.Pagination) (*model.ProductListResponse, error) {
	s.lastFilters, s.lastSort, s.lastPage = f, sortBy, page
	if s.err != nil {
		return nil, s.err
	}
	if s.listResp != nil {
		return s.listResp, nil
	}
	return &model.ProductListResponse{Products: []model.Product{}, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *stubCatalog) SearchProducts(_ context.Context, req *model.ProductSearchRequest, page model.Pagination) (*model.ProductListResponse, error) {
	s.lastRequest, s.lastPage = req, page
	if s.err != nil {
		return nil, s.err
	}
	return &model.ProductListResponse{Products: []model.Product{}, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.product == nil || s.product.ID != id {
		return nil, service.ErrProductNotFound
	}
	return s.product, nil
}

func (s *stubCatalog) ListBrands(context.Context) ([]string, error) {
	return []string{"Apple", "Sony"}, s.err
}

func (s *stubCatalog) FeaturedProducts(context.Context) ([]model.Product, error) {
	return []model.Product{}, s.err
}

type stubChat struct {
	err       error
	lastUser  string
	lastInput model.ChatInput
	lastID    string
}

func (s *stubChat) HandleMessage(_ context.Context, userID string, input model.ChatInput) (*model.ChatReply, error) {
	s.lastUser, s.lastInput = userID, input
	if s.err != nil {
		return nil, s.err
	}
	return &model.ChatReply{
		SessionID:   "abc",
		UserMessage: model.ChatMessage{MessageType: model.MessageUser, Content: input.Message},
		BotResponse: model.ChatMessage{MessageType: model.MessageBot, Content: "Hello!"},
		Intent:      model.IntentGreeting,
		Confidence:  model.MatchedConfidence,
	}, nil
}

func (s *stubChat) ListSessions(_ context.Context, userID string) ([]model.ChatSession, error) {
	s.lastUser = userID
	return []model.ChatSession{{SessionID: "abc", UserID: userID}}, s.err
}

func (s *stubChat) GetSession(_ context.Context, userID, sessionID string) (*model.ChatSession, error) {
	s.lastUser, s.lastID = userID, sessionID
	if s.err != nil {
		return nil, s.err
	}
	return &model.ChatSession{SessionID: sessionID, UserID: userID}, nil
}

func (s *stubChat) ResetSession(_ context.Context, userID, sessionID string) error {
	s.lastUser, s.lastID = userID, sessionID
	return s.err
}

func (s *stubChat) DeleteSession(_ context.Context, userID, sessionID string) error {
	s.lastUser, s.lastID = userID, sessionID
	return s.err
}

func (s *stubChat) ProductDetailsForChat(_ context.Context, productID int64) (*model.ProductDetailsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.ProductDetailsResponse{
		Product:          model.Product{ID: productID, Name: "Widget"},
		FormattedDetails: "**Widget**",
	}, nil
}

func newRouter(catalog CatalogService, chat ChatService) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	NewProductHandler(catalog).Register(api.Group("/products"))
	NewChatHandler(chat).Register(api.Group("/chat"), "X-User-ID")
	return r
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestProductHandler_ListProducts(t *testing.T) {
	catalog := &stubCatalog{}
	r := newRouter(catalog, &stubChat{})

	w := doRequest(r, http.MethodGet,
		"/api/v1/products?category=2&min_price=10&max_price=99.5&brand=sony&in_stock=true&featured=false&sort_by=-price&page=2&page_size=100",
		"", nil)
	require.Equal(t, http.StatusOK, w.Code)

	f := catalog.lastFilters
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(2), *f.CategoryID)
	assert.Equal(t, 10.0, *f.MinPrice)
	assert.Equal(t, 99.5, *f.MaxPrice)
	assert.Equal(t, "sony", f.Brand)
	require.NotNil(t, f.InStock)
	assert.True(t, *f.InStock)
	assert.Nil(t, f.Featured)
	assert.Equal(t, "-price", catalog.lastSort)
	assert.Equal(t, model.Pagination{Page: 2, PageSize: 50}, catalog.lastPage)
}

func TestProductHandler_ListProducts_RelevanceScores(t *testing.T) {
	catalog := &stubCatalog{listResp: &model.ProductListResponse{
		Products: []model.Product{{ID: 2, Name: "High"}},
		Relevance: []model.RelevanceScore{
			{ProductID: 2, Score: 0.75, MatchedReasons: []string{"Highly rated", "In stock"}},
		},
		TotalCount: 1, Page: 1, PageSize: 10, TotalPages: 1,
	}}
	r := newRouter(catalog, &stubChat{})

	w := doRequest(r, http.MethodGet, "/api/v1/products?sort_by=relevance", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	relevance, ok := body["relevance"].([]interface{})
	require.True(t, ok)
	require.Len(t, relevance, 1)
	entry := relevance[0].(map[string]interface{})
	assert.Equal(t, 2.0, entry["product_id"])
	assert.Equal(t, 0.75, entry["score"])
	assert.Equal(t, []interface{}{"Highly rated", "In stock"}, entry["matched_reasons"])
}

func TestProductHandler_ListProducts_BadInput(t *testing.T) {
	r := newRouter(&stubCatalog{}, &stubChat{})

	for _, path := range []string{
		"/api/v1/products?category=phones",
		"/api/v1/products?min_price=-1",
		"/api/v1/products?max_price=lots",
		"/api/v1/products?page=two",
	} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w), "error")
		})
	}
}

func TestProductHandler_InvalidSort(t *testing.T) {
	r := newRouter(&stubCatalog{err: service.ErrInvalidSort}, &stubChat{})

	w := doRequest(r, http.MethodGet, "/api/v1/products?sort_by=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_Search(t *testing.T) {
	catalog := &stubCatalog{}
	r := newRouter(catalog, &stubChat{})

	w := doRequest(r, http.MethodPost, "/api/v1/products/search?page=3",
		`{"query":"laptop","max_price":1000,"brand":"Dell","sort_by":"rating"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, catalog.lastRequest)
	assert.Equal(t, "laptop", catalog.lastRequest.Query)
	assert.Equal(t, 1000.0, *catalog.lastRequest.MaxPrice)
	assert.Equal(t, "Dell", catalog.lastRequest.Brand)
	assert.Equal(t, 3, catalog.lastPage.Page)

	w = doRequest(r, http.MethodPost, "/api/v1/products/search", `{"min_price":-5}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_GetProduct(t *testing.T) {
	catalog := &stubCatalog{product: &model.Product{
		ID:            5,
		Name:          "Galaxy Tab",
		Price:         decimal.RequireFromString("299.99"),
		StockQuantity: 0,
	}}
	r := newRouter(catalog, &stubChat{})

	w := doRequest(r, http.MethodGet, "/api/v1/products/5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Galaxy Tab", body["name"])
	assert.Equal(t, false, body["in_stock"])

	w = doRequest(r, http.MethodGet, "/api/v1/products/6", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_StaticRoutes(t *testing.T) {
	catalog := &stubCatalog{categoryList: []model.Category{{ID: 1, Name: "Electronics"}}}
	r := newRouter(catalog, &stubChat{})

	w := doRequest(r, http.MethodGet, "/api/v1/products/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Electronics")

	w = doRequest(r, http.MethodGet, "/api/v1/products/brands", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"brands":["Apple","Sony"]}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/v1/products/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":[]}`, w.Body.String())

	catalog.err = errors.New("db down")
	w = doRequest(r, http.MethodGet, "/api/v1/products/brands", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChatHandler_RequiresUser(t *testing.T) {
	r := newRouter(&stubCatalog{}, &stubChat{})

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/chat/message"},
		{http.MethodGet, "/api/v1/chat/sessions"},
		{http.MethodGet, "/api/v1/chat/sessions/abc"},
		{http.MethodPost, "/api/v1/chat/sessions/abc/reset"},
		{http.MethodDelete, "/api/v1/chat/sessions/abc"},
		{http.MethodGet, "/api/v1/chat/product/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestChatHandler_SendMessage(t *testing.T) {
	chat := &stubChat{}
	r := newRouter(&stubCatalog{}, chat)
	user := map[string]string{"X-User-ID": "alice"}

	w := doRequest(r, http.MethodPost, "/api/v1/chat/message", `{"message":"hi","session_id":"abc"}`, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", chat.lastUser)
	assert.Equal(t, "abc", chat.lastInput.SessionID)

	body := decodeBody(t, w)
	assert.Equal(t, "abc", body["session_id"])
	assert.Equal(t, "greeting", body["intent"])
	assert.Equal(t, 0.8, body["confidence"])

	w = doRequest(r, http.MethodPost, "/api/v1/chat/message", `{"session_id":"abc"}`, user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := `{"message":"` + strings.Repeat("x", model.MaxMessageLength+1) + `"}`
	w = doRequest(r, http.MethodPost, "/api/v1/chat/message", long, user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	user := map[string]string{"X-User-ID": "alice"}

	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidMessage, http.StatusBadRequest},
		{service.ErrSessionNotFound, http.StatusNotFound},
		{service.ErrSessionConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newRouter(&stubCatalog{}, &stubChat{err: tt.err})
			w := doRequest(r, http.MethodPost, "/api/v1/chat/message", `{"message":"hi"}`, user)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestChatHandler_Sessions(t *testing.T) {
	chat := &stubChat{}
	r := newRouter(&stubCatalog{}, chat)
	user := map[string]string{"X-User-ID": "bob"}

	w := doRequest(r, http.MethodGet, "/api/v1/chat/sessions", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w), "sessions")
	assert.NotContains(t, w.Body.String(), "bob")

	w = doRequest(r, http.MethodGet, "/api/v1/chat/sessions/xyz", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xyz", chat.lastID)

	w = doRequest(r, http.MethodPost, "/api/v1/chat/sessions/xyz/reset", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Chat session reset successfully"}`, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/api/v1/chat/sessions/xyz", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Chat session deleted successfully"}`, w.Body.String())

	chat.err = service.ErrSessionNotFound
	w = doRequest(r, http.MethodDelete, "/api/v1/chat/sessions/xyz", "", user)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatHandler_ProductDetails(t *testing.T) {
	chat := &stubChat{}
	r := newRouter(&stubCatalog{}, chat)
	user := map[string]string{"X-User-ID": "bob"}

	w := doRequest(r, http.MethodGet, "/api/v1/chat/product/9", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "**Widget**", body["formatted_details"])

	w = doRequest(r, http.MethodGet, "/api/v1/chat/product/nine", "", user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	chat.err = service.ErrProductNotFound
	w = doRequest(r, http.MethodGet, "/api/v1/chat/product/9", "", user)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
