package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopassist/internal/model"
	"shopassist/internal/repository"

	"github.com/shopspring/decimal"
)

func product(id int64, name, brand string, price, rating float64, stock int) model.Product {
	return model.Product{
		ID:            id,
		Name:          name,
		Brand:         brand,
		Price:         decimal.NewFromFloat(price),
		Rating:        decimal.NewFromFloat(rating),
		StockQuantity: stock,
		SKU:           fmt.Sprintf("SKU-%d", id),
		IsActive:      true,
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type stubCatalogRepo struct {
	products   []model.Product
	total      int
	categories []model.Category
	brands     []string
	err        error

	lastQuery    model.ProductQuery
	lastKeywords []string
	brandCalls   int
}

func (r *stubCatalogRepo) SearchProducts(_ context.Context, q model.ProductQuery) ([]model.Product, int, error) {
	r.lastQuery = q
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.products, r.total, nil
}

func (r *stubCatalogRepo) GetProductByID(_ context.Context, id int64) (*model.Product, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubCatalogRepo) ListCategories(context.Context) ([]model.Category, error) {
	return r.categories, r.err
}

func (r *stubCatalogRepo) FindCategory(_ context.Context, keywords []string) (*model.Category, error) {
	r.lastKeywords = keywords
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.categories {
		for _, kw := range keywords {
			if c.Name == kw {
				c := c
				return &c, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubCatalogRepo) ListBrands(context.Context) ([]string, error) {
	r.brandCalls++
	return r.brands, r.err
}

func (r *stubCatalogRepo) ListFeatured(_ context.Context, limit int) ([]model.Product, error) {
	if len(r.products) > limit {
		return r.products[:limit], r.err
	}
	return r.products, r.err
}

// memCache is an in-memory repository.Cache that stores values as-is
type memCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newMemCache() *memCache {
	return &memCache{data: map[string]interface{}{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]string:
		*d = v.([]string)
	case *[]model.Product:
		*d = v.([]model.Product)
	}
	return nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// memChatStore keeps sessions and messages in memory
type memChatStore struct {
	sessions map[string]*model.ChatSession
	messages map[int64][]model.ChatMessage
	intents  []model.UserIntent
	nextID   int64

	intentErr error
}

func newMemChatStore() *memChatStore {
	return &memChatStore{
		sessions: map[string]*model.ChatSession{},
		messages: map[int64][]model.ChatMessage{},
	}
}

func (s *memChatStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memChatStore) GetSession(_ context.Context, userID, sessionID string) (*model.ChatSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *session
	cp.MessageCount = len(s.messages[session.ID])
	return &cp, nil
}

func (s *memChatStore) CreateSession(_ context.Context, userID, sessionID string) (*model.ChatSession, error) {
	if _, ok := s.sessions[sessionID]; ok {
		return nil, repository.ErrConflict
	}
	session := &model.ChatSession{ID: s.id(), SessionID: sessionID, UserID: userID, IsActive: true}
	s.sessions[sessionID] = session
	cp := *session
	return &cp, nil
}

func (s *memChatStore) ListSessions(_ context.Context, userID string) ([]model.ChatSession, error) {
	out := []model.ChatSession{}
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *memChatStore) ListMessages(_ context.Context, sessionPK int64) ([]model.ChatMessage, error) {
	return append([]model.ChatMessage{}, s.messages[sessionPK]...), nil
}

func (s *memChatStore) AddMessage(_ context.Context, msg *model.ChatMessage) error {
	msg.ID = s.id()
	s.messages[msg.SessionPK] = append(s.messages[msg.SessionPK], *msg)
	return nil
}

func (s *memChatStore) AddIntent(_ context.Context, intent *model.UserIntent) error {
	if s.intentErr != nil {
		return s.intentErr
	}
	intent.ID = s.id()
	s.intents = append(s.intents, *intent)
	return nil
}

func (s *memChatStore) ClearSession(_ context.Context, sessionPK int64) error {
	delete(s.messages, sessionPK)
	kept := s.intents[:0]
	for _, in := range s.intents {
		if in.SessionPK != sessionPK {
			kept = append(kept, in)
		}
	}
	s.intents = kept
	return nil
}

func (s *memChatStore) DeleteSession(_ context.Context, sessionPK int64) error {
	for key, session := range s.sessions {
		if session.ID == sessionPK {
			delete(s.sessions, key)
			delete(s.messages, sessionPK)
			return nil
		}
	}
	return repository.ErrNotFound
}
