package chatsrv

import (
	"context"
	"strings"
	"time"

	"github.com/adi-uchiha/jems/chat"
	"github.com/adi-uchiha/jems/chat/recommend"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/google/uuid"
)

// ConversationService manages the conversation lifecycle around turns:
// creation, listing and history reads.
type ConversationService struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
}

func NewConversationService(conversations chat.ConversationRepository, messages chat.MessageRepository) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
	}
}

// CreateConversation creates an empty conversation for the user. Without an
// explicit title it starts with the default one and gets named by the first
// successful turn.
func (s *ConversationService) CreateConversation(ctx context.Context, userID kernel.UserID, req chat.CreateConversationRequest) (*chat.ConversationResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = chat.DefaultTitle
	}

	now := time.Now().UTC()
	conversation := &chat.Conversation{
		ID:        kernel.NewConversationID(uuid.NewString()),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, err
	}

	return toConversationResponse(conversation), nil
}

// ListConversations returns the user's conversations, most recently active
// first
func (s *ConversationService) ListConversations(ctx context.Context, userID kernel.UserID, pagination kernel.PaginationOptions) (*chat.PaginatedConversationsResponse, error) {
	page, err := s.conversations.ListByUserID(ctx, userID, pagination)
	if err != nil {
		return nil, err
	}

	responses := make([]chat.ConversationResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, *toConversationResponse(&page.Items[i]))
	}

	return &chat.PaginatedConversationsResponse{
		Items: responses,
		Page:  page.Page,
		Empty: page.Empty,
	}, nil
}

// ListMessages returns the full message history of one of the user's
// conversations, oldest first
func (s *ConversationService) ListMessages(ctx context.Context, conversationID kernel.ConversationID, userID kernel.UserID) ([]chat.MessageResponse, error) {
	if _, err := s.authorize(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	responses := make([]chat.MessageResponse, 0, len(messages))
	for _, m := range messages {
		response := chat.MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		// Assistant messages are stored raw; split out the recommendation
		// payload so the consumer renders prose and job cards separately.
		if m.Role == chat.RoleAssistant {
			extracted := recommend.Extract(m.Content)
			response.Content = extracted.Prose
			response.Jobs = extracted.Jobs
		}
		responses = append(responses, response)
	}

	return responses, nil
}

// Authorize checks that the conversation exists and belongs to the user
func (s *ConversationService) Authorize(ctx context.Context, conversationID kernel.ConversationID, userID kernel.UserID) error {
	_, err := s.authorize(ctx, conversationID, userID)
	return err
}

func (s *ConversationService) authorize(ctx context.Context, conversationID kernel.ConversationID, userID kernel.UserID) (*chat.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsOwnedBy(userID) {
		return nil, chat.ErrConversationForbidden().
			WithDetail("conversation_id", conversationID.String())
	}
	return conversation, nil
}

func toConversationResponse(c *chat.Conversation) *chat.ConversationResponse {
	return &chat.ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
