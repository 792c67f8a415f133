package chat

import (
	"time"

	"github.com/adi-uchiha/jems/chat/recommend"
	"github.com/adi-uchiha/jems/pkg/kernel"
)

// IncomingMessage is one entry of the client-visible history sent with a turn
type IncomingMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnRequest - DTO for running one chat turn
type TurnRequest struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []IncomingMessage `json:"messages"`
}

// CreateConversationRequest - DTO for creating a conversation
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// ConversationResponse - DTO for returning conversation data
type ConversationResponse struct {
	ID        kernel.ConversationID `json:"id"`
	Title     string                `json:"title"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// MessageResponse - DTO for returning message data. Assistant messages carry
// the conversational prose in Content and any embedded recommendation
// payload parsed out into Jobs.
type MessageResponse struct {
	ID        kernel.MessageID `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Jobs      []recommend.Item `json:"jobs,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// TurnStatusResponse - DTO for the per-conversation turn activity marker
type TurnStatusResponse struct {
	ConversationID kernel.ConversationID `json:"conversation_id"`
	Generating     bool                  `json:"generating"`
}

// Response type alias for paginated conversations
type PaginatedConversationsResponse = kernel.Paginated[ConversationResponse]
