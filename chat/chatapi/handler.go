package chatapi

import (
	"bufio"

	"github.com/adi-uchiha/jems/chat"
	"github.com/adi-uchiha/jems/chat/chatsrv"
	"github.com/adi-uchiha/jems/pkg/auth"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/adi-uchiha/jems/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for chat operations
type Handlers struct {
	turns         *chatsrv.TurnService
	conversations *chatsrv.ConversationService
}

// NewHandlers creates a new chat handlers instance
func NewHandlers(turns *chatsrv.TurnService, conversations *chatsrv.ConversationService) *Handlers {
	return &Handlers{
		turns:         turns,
		conversations: conversations,
	}
}

// RunTurn runs one chat turn and streams the generated answer as plain text
// POST /api/chat
func (h *Handlers) RunTurn(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing authentication")
	}

	var req chat.TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return chat.ErrInvalidPayload().WithDetail("parse_error", err.Error())
	}

	conversationID := kernel.ConversationID(req.ConversationID)
	if conversationID.IsEmpty() {
		return chat.ErrInvalidPayload().WithDetail("conversation_id", "missing or empty")
	}

	// Validation, authorization and the user-message write happen here, so
	// failures still map to proper HTTP status codes. Once this returns a
	// stream, the response is committed as 200.
	//
	// The fasthttp request context is cancelled when the client disconnects,
	// which aborts generation mid-stream.
	stream, err := h.turns.RunTurn(c.Context(), conversationID, userID, req.Messages)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for token := range stream.Tokens() {
			if _, err := w.WriteString(token); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
		if err := stream.Err(); err != nil {
			// Too late for an error status; the stream just ends short.
			logx.Warnf("Turn stream for conversation %s ended with error: %v", conversationID, err)
		}
	})

	return nil
}

// CreateConversation creates a new empty conversation
// POST /api/conversations
func (h *Handlers) CreateConversation(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing authentication")
	}

	var req chat.CreateConversationRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return chat.ErrInvalidPayload().WithDetail("parse_error", err.Error())
	}

	conversation, err := h.conversations.CreateConversation(c.Context(), userID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conversation)
}

// ListConversations lists the user's conversations, most recently active first
// GET /api/conversations
func (h *Handlers) ListConversations(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing authentication")
	}

	pagination := parsePaginationOptions(c)

	conversations, err := h.conversations.ListConversations(c.Context(), userID, pagination)
	if err != nil {
		return err
	}

	return c.JSON(conversations)
}

// ListMessages returns the message history of a conversation, oldest first
// GET /api/conversations/:id/messages
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing authentication")
	}

	conversationID := kernel.ConversationID(c.Params("id"))
	if conversationID.IsEmpty() {
		return chat.ErrInvalidPayload().WithDetail("conversation_id", "missing or empty")
	}

	messages, err := h.conversations.ListMessages(c.Context(), conversationID, userID)
	if err != nil {
		return err
	}

	return c.JSON(messages)
}

// GetTurnStatus reports whether the conversation has a turn in flight
// GET /api/conversations/:id/status
func (h *Handlers) GetTurnStatus(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing authentication")
	}

	conversationID := kernel.ConversationID(c.Params("id"))
	if conversationID.IsEmpty() {
		return chat.ErrInvalidPayload().WithDetail("conversation_id", "missing or empty")
	}

	if err := h.conversations.Authorize(c.Context(), conversationID, userID); err != nil {
		return err
	}

	generating, err := h.turns.TurnActive(c.Context(), conversationID)
	if err != nil {
		// The marker is informational; a Redis hiccup should not fail the
		// status read.
		logx.Warnf("Turn state lookup failed for conversation %s: %v", conversationID, err)
		generating = false
	}

	return c.JSON(chat.TurnStatusResponse{
		ConversationID: conversationID,
		Generating:     generating,
	})
}

// parsePaginationOptions extracts pagination options from query parameters
func parsePaginationOptions(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}.Normalize()
}

// RegisterRoutes registers all chat routes
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware fiber.Handler) {
	api := app.Group("/api", authMiddleware)

	api.Post("/chat", handlers.RunTurn)

	api.Post("/conversations", handlers.CreateConversation)
	api.Get("/conversations", handlers.ListConversations)
	api.Get("/conversations/:id/messages", handlers.ListMessages)
	api.Get("/conversations/:id/status", handlers.GetTurnStatus)
}
