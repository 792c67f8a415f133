package chat

import (
	"strings"
	"time"

	"github.com/adi-uchiha/jems/pkg/kernel"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is synthesized per turn for the grounding prompt and is
	// never persisted.
	RoleSystem Role = "system"
)

// IsValid reports whether the role is one this core understands
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// DefaultTitle is the display title of a conversation before its first
// successful turn names it.
const DefaultTitle = "New Chat"

// Conversation groups the messages of one user-assistant exchange thread
type Conversation struct {
	ID        kernel.ConversationID `db:"id" json:"id"`
	UserID    kernel.UserID         `db:"user_id" json:"user_id"`
	Title     string                `db:"title" json:"title"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt time.Time             `db:"updated_at" json:"updated_at"`
}

// IsOwnedBy reports whether the conversation belongs to the given user
func (c *Conversation) IsOwnedBy(userID kernel.UserID) bool {
	return c.UserID == userID
}

// NeedsTitle reports whether the conversation still carries its default title
func (c *Conversation) NeedsTitle() bool {
	return c.Title == "" || c.Title == DefaultTitle
}

// TitleFromContent derives a display title from the first user message
func TitleFromContent(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return DefaultTitle
	}
	const maxTitleLen = 60
	if len(title) > maxTitleLen {
		title = strings.TrimSpace(title[:maxTitleLen]) + "..."
	}
	return title
}

// Message is one immutable entry in a conversation. Messages form a total
// order by creation time; a user message always precedes the assistant
// message it provoked.
type Message struct {
	ID             kernel.MessageID      `db:"id" json:"id"`
	ConversationID kernel.ConversationID `db:"conversation_id" json:"conversation_id"`
	Role           Role                  `db:"role" json:"role"`
	Content        string                `db:"content" json:"content"`
	CreatedAt      time.Time             `db:"created_at" json:"created_at"`
}
