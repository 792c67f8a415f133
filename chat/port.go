package chat

import (
	"context"
	"time"

	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/adi-uchiha/jems/resume"
	"github.com/adi-uchiha/jems/retrieval"
)

// ConversationRepository persists and reads conversations
type ConversationRepository interface {
	// Create creates a new conversation
	Create(ctx context.Context, conversation *Conversation) error

	// GetByID retrieves a conversation by ID
	GetByID(ctx context.Context, id kernel.ConversationID) (*Conversation, error)

	// ListByUserID retrieves a user's conversations, most recently active first
	ListByUserID(ctx context.Context, userID kernel.UserID, pagination kernel.PaginationOptions) (*kernel.Paginated[Conversation], error)

	// Touch bumps the conversation's updated_at to mark turn activity
	Touch(ctx context.Context, id kernel.ConversationID, at time.Time) error

	// UpdateTitle sets the conversation's display title
	UpdateTitle(ctx context.Context, id kernel.ConversationID, title string) error
}

// MessageRepository persists and reads messages. Messages are append-only;
// there is no update or delete.
type MessageRepository interface {
	// Create appends a message to its conversation
	Create(ctx context.Context, message *Message) error

	// ListByConversationID returns messages ordered by creation time ascending
	ListByConversationID(ctx context.Context, conversationID kernel.ConversationID) ([]Message, error)
}

// TurnStateStore tracks which conversations currently have a turn in flight.
// The marker is informational per-conversation state; it does not serialize
// concurrent turns. All operations are best-effort from the controller's
// point of view.
type TurnStateStore interface {
	MarkActive(ctx context.Context, id kernel.ConversationID, ttl time.Duration) error
	Clear(ctx context.Context, id kernel.ConversationID) error
	IsActive(ctx context.Context, id kernel.ConversationID) (bool, error)
}

// PromptMessage is one entry of the message list sent to the generator
type PromptMessage struct {
	Role    Role
	Content string
}

// GenerationStream delivers generated tokens incrementally. Next reports
// whether a token is available; after it returns false, Err distinguishes
// natural end-of-stream (nil) from failure or cancellation.
type GenerationStream interface {
	Next() bool
	Token() string
	Err() error
	Close() error
}

// Generator runs one streaming completion over a message list
type Generator interface {
	StreamChat(ctx context.Context, messages []PromptMessage) (GenerationStream, error)
}

// ContextRetriever supplies score-filtered job postings for grounding.
// Implementations degrade to an empty result instead of failing.
type ContextRetriever interface {
	Retrieve(ctx context.Context, queryText string, topK int, minScore float64) []retrieval.RetrievedPosting
}

// SnapshotLoader supplies the user's active résumé snapshot, nil when absent
type SnapshotLoader interface {
	LoadActive(ctx context.Context, userID kernel.UserID) (*resume.Snapshot, error)
}
