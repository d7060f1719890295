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

// ChatService is the chat behaviour the chat endpoints need
type ChatService interface {
	HandleMessage(ctx context.Context, userID string, input model.ChatInput) (*model.ChatReply, error)
	ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error)
	GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error)
	ResetSession(ctx context.Context, userID, sessionID string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	ProductDetailsForChat(ctx context.Context, productID int64) (*model.ProductDetailsResponse, error)
}

// ChatHandler handles chatbot HTTP requests
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register mounts the chat routes on rg. Every route requires a user.
func (h *ChatHandler) Register(rg *gin.RouterGroup, userHeader string) {
	rg.Use(RequireUser(userHeader))
	rg.POST("/message", h.SendMessage)
	rg.GET("/sessions", h.ListSessions)
	rg.GET("/sessions/:session_id", h.GetSession)
	rg.POST("/sessions/:session_id/reset", h.ResetSession)
	rg.DELETE("/sessions/:session_id", h.DeleteSession)
	rg.GET("/product/:product_id", h.ProductDetails)
}

// SendMessage handles POST /api/v1/chat/message
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var input model.ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.chat.HandleMessage(c.Request.Context(), UserID(c), input)
	if err != nil {
		writeChatError(c, "Failed to process message", err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// ListSessions handles GET /api/v1/chat/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.chat.ListSessions(c.Request.Context(), UserID(c))
	if err != nil {
		writeChatError(c, "Failed to list sessions", err)
		return
	}
	c.JSON(http.StatusOK, model.SessionListResponse{Sessions: sessions})
}

// GetSession handles GET /api/v1/chat/sessions/:session_id
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chat.GetSession(c.Request.Context(), UserID(c), c.Param("session_id"))
	if err != nil {
		writeChatError(c, "Failed to get session", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResetSession handles POST /api/v1/chat/sessions/:session_id/reset
func (h *ChatHandler) ResetSession(c *gin.Context) {
	if err := h.chat.ResetSession(c.Request.Context(), UserID(c), c.Param("session_id")); err != nil {
		writeChatError(c, "Failed to reset session", err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Chat session reset successfully"})
}

// DeleteSession handles DELETE /api/v1/chat/sessions/:session_id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chat.DeleteSession(c.Request.Context(), UserID(c), c.Param("session_id")); err != nil {
		writeChatError(c, "Failed to delete session", err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Chat session deleted successfully"})
}

// ProductDetails handles GET /api/v1/chat/product/:product_id
func (h *ChatHandler) ProductDetails(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	details, err := h.chat.ProductDetailsForChat(c.Request.Context(), productID)
	if err != nil {
		writeChatError(c, "Failed to get product", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func writeChatError(c *gin.Context, prefix string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
	case errors.Is(err, service.ErrSessionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
	}
}
