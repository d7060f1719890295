package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"shopassist/internal/chatbot"
	"shopassist/internal/model"
	"shopassist/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned when the user owns no such session
	ErrSessionNotFound = errors.New("chat session not found")
	// ErrSessionConflict is returned when a session id belongs to another user
	ErrSessionConflict = errors.New("chat session id already in use")
	// ErrInvalidMessage is returned for empty or oversized chat input
	ErrInvalidMessage = errors.New("invalid chat message")
)

// ChatStore persists sessions, messages and classified intents
type ChatStore interface {
	GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error)
	CreateSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error)
	ListMessages(ctx context.Context, sessionPK int64) ([]model.ChatMessage, error)
	AddMessage(ctx context.Context, msg *model.ChatMessage) error
	AddIntent(ctx context.Context, intent *model.UserIntent) error
	ClearSession(ctx context.Context, sessionPK int64) error
	DeleteSession(ctx context.Context, sessionPK int64) error
}

// ProductCatalog is the part of the catalog a chat turn needs
type ProductCatalog interface {
	ResolveCategory(ctx context.Context, hint string) (*int64, error)
	Search(ctx context.Context, q model.ProductQuery) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// ChatService runs chat turns and manages sessions
type ChatService struct {
	store       ChatStore
	catalog     ProductCatalog
	classifier  *chatbot.Classifier
	extractor   *chatbot.Extractor
	resultLimit int
	log         *zap.Logger
	newID       func() string
}

// NewChatService creates a new chat service
func NewChatService(
	store ChatStore,
	catalog ProductCatalog,
	table *chatbot.PatternTable,
	resultLimit int,
	log *zap.Logger,
) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		store:       store,
		catalog:     catalog,
		classifier:  chatbot.NewClassifier(table),
		extractor:   chatbot.NewExtractor(table),
		resultLimit: resultLimit,
		log:         log,
		newID:       uuid.NewString,
	}
}

// HandleMessage stores the user's message, answers it and stores the answer.
// Catalog and intent storage failures produce an apology reply rather than
// an error.
func (s *ChatService) HandleMessage(ctx context.Context, userID string, input model.ChatInput) (*model.ChatReply, error) {
	text := strings.TrimSpace(input.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidMessage)
	}
	if utf8.RuneCountInString(text) > model.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidMessage, model.MaxMessageLength)
	}
	if utf8.RuneCountInString(input.SessionID) > model.MaxSessionIDLength {
		return nil, fmt.Errorf("%w: session_id exceeds %d characters", ErrInvalidMessage, model.MaxSessionIDLength)
	}

	session, err := s.getOrCreateSession(ctx, userID, strings.TrimSpace(input.SessionID))
	if err != nil {
		return nil, err
	}

	userMsg := model.ChatMessage{
		SessionPK:   session.ID,
		MessageType: model.MessageUser,
		Content:     text,
		Metadata:    model.JSONMap{},
	}
	if err := s.store.AddMessage(ctx, &userMsg); err != nil {
		return nil, err
	}

	match := s.classifier.Classify(text)
	params := s.extractor.Extract(text)

	content, metadata, err := s.respond(ctx, session.ID, match, params)
	if err != nil {
		s.log.Error("chat turn failed",
			zap.String("session_id", session.SessionID),
			zap.String("intent", string(match.Intent)),
			zap.Error(err))
		content = chatbot.TechnicalDifficulties()
		metadata = model.JSONMap{"intent": model.IntentError, "error": err.Error()}
	}

	botMsg := model.ChatMessage{
		SessionPK:   session.ID,
		MessageType: model.MessageBot,
		Content:     content,
		Metadata:    metadata,
	}
	if err := s.store.AddMessage(ctx, &botMsg); err != nil {
		return nil, err
	}

	s.log.Debug("chat turn",
		zap.String("session_id", session.SessionID),
		zap.String("intent", string(match.Intent)),
		zap.Float64("confidence", match.Confidence))

	return &model.ChatReply{
		SessionID:   session.SessionID,
		UserMessage: userMsg,
		BotResponse: botMsg,
		Intent:      match.Intent,
		Confidence:  match.Confidence,
	}, nil
}

func (s *ChatService) getOrCreateSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	if sessionID == "" {
		return s.store.CreateSession(ctx, userID, s.newID())
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	session, err = s.store.CreateSession(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrSessionConflict
	}
	return session, err
}

// respond records the intent and builds the bot reply for it
func (s *ChatService) respond(
	ctx context.Context,
	sessionPK int64,
	match model.IntentMatch,
	params model.ExtractedParameters,
) (string, model.JSONMap, error) {
	if err := s.store.AddIntent(ctx, &model.UserIntent{
		SessionPK:  sessionPK,
		IntentType: match.Intent,
		Confidence: match.Confidence,
		Parameters: params,
	}); err != nil {
		return "", nil, err
	}

	switch match.Intent {
	case model.IntentGreeting:
		return chatbot.Greeting(), model.JSONMap{"intent": model.IntentGreeting}, nil

	case model.IntentSearch, model.IntentFilter:
		products, resolved, err := s.searchProducts(ctx, params)
		if err != nil {
			return "", nil, err
		}
		return chatbot.SearchResults(products), model.JSONMap{
			"intent":        match.Intent,
			"products":      products,
			"search_params": resolved,
		}, nil

	case model.IntentDetails:
		if params.ProductID == nil {
			break
		}
		product, err := s.catalog.GetProduct(ctx, *params.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			break
		}
		if err != nil {
			return "", nil, err
		}
		return chatbot.ProductDetails(*product), model.JSONMap{
			"intent":     model.IntentDetails,
			"product_id": product.ID,
		}, nil

	case model.IntentHelp:
		return chatbot.Help(), model.JSONMap{"intent": model.IntentHelp}, nil
	}

	return chatbot.Fallback(), model.JSONMap{"intent": model.IntentError}, nil
}

// searchProducts resolves the category hint and fetches the best rated
// matches
func (s *ChatService) searchProducts(ctx context.Context, params model.ExtractedParameters) ([]model.Product, model.ExtractedParameters, error) {
	if params.CategoryHint != "" {
		categoryID, err := s.catalog.ResolveCategory(ctx, params.CategoryHint)
		if err != nil {
			return nil, params, err
		}
		params.CategoryID = categoryID
	}

	products, err := s.catalog.Search(ctx, model.ProductQuery{
		Filters: params.Filters(),
		SortBy:  model.SortRatingDesc,
		Limit:   s.resultLimit,
	})
	if err != nil {
		return nil, params, err
	}
	return products, params, nil
}

// ListSessions returns the user's active sessions
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	return s.store.ListSessions(ctx, userID)
}

// GetSession returns a session with its messages
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	session, err := s.lookup(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	session.MessageCount = len(messages)
	return session, nil
}

// ResetSession clears a session's history and greets the user again
func (s *ChatService) ResetSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.lookup(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := s.store.ClearSession(ctx, session.ID); err != nil {
		return err
	}

	return s.store.AddMessage(ctx, &model.ChatMessage{
		SessionPK:   session.ID,
		MessageType: model.MessageBot,
		Content:     chatbot.Greeting(),
		Metadata:    model.JSONMap{"intent": model.IntentGreeting, "system": "reset"},
	})
}

// DeleteSession removes a session and its history
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.lookup(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	err = s.store.DeleteSession(ctx, session.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// ProductDetailsForChat returns a product with its chat formatted details
func (s *ChatService) ProductDetailsForChat(ctx context.Context, productID int64) (*model.ProductDetailsResponse, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &model.ProductDetailsResponse{
		Product:          *product,
		FormattedDetails: chatbot.ProductDetails(*product),
	}, nil
}

func (s *ChatService) lookup(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	session, err := s.store.GetSession(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}
