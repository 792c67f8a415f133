package chatinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/adi-uchiha/jems/chat"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresConversationRepository persists conversations
type PostgresConversationRepository struct {
	db *sqlx.DB
}

func NewPostgresConversationRepository(db *sqlx.DB) chat.ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, conversation *chat.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		conversation.ID.String(),
		conversation.UserID.String(),
		conversation.Title,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	if err != nil {
		return chat.ErrPersistenceFailed().
			WithDetail("operation", "create_conversation").
			WithCause(err)
	}

	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id kernel.ConversationID) (*chat.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	var conversation chat.Conversation
	err := r.db.GetContext(ctx, &conversation, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, chat.ErrConversationNotFound().
				WithDetail("conversation_id", id.String())
		}
		return nil, chat.ErrPersistenceFailed().
			WithDetail("operation", "get_conversation").
			WithCause(err)
	}

	return &conversation, nil
}

func (r *PostgresConversationRepository) ListByUserID(ctx context.Context, userID kernel.UserID, pagination kernel.PaginationOptions) (*kernel.Paginated[chat.Conversation], error) {
	pagination = pagination.Normalize()

	countQuery := `SELECT COUNT(*) FROM conversations WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID.String()); err != nil {
		return nil, chat.ErrPersistenceFailed().
			WithDetail("operation", "count_conversations").
			WithCause(err)
	}

	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	conversations := []chat.Conversation{}
	err := r.db.SelectContext(ctx, &conversations, query,
		userID.String(), pagination.PageSize, pagination.Offset())
	if err != nil {
		return nil, chat.ErrPersistenceFailed().
			WithDetail("operation", "list_conversations").
			WithCause(err)
	}

	return kernel.NewPaginated(conversations, pagination, total), nil
}

func (r *PostgresConversationRepository) Touch(ctx context.Context, id kernel.ConversationID, at time.Time) error {
	query := `UPDATE conversations SET updated_at = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id.String(), at)
	if err != nil {
		return chat.ErrPersistenceFailed().
			WithDetail("operation", "touch_conversation").
			WithCause(err)
	}

	return nil
}

func (r *PostgresConversationRepository) UpdateTitle(ctx context.Context, id kernel.ConversationID, title string) error {
	query := `UPDATE conversations SET title = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id.String(), title)
	if err != nil {
		return chat.ErrPersistenceFailed().
			WithDetail("operation", "update_title").
			WithCause(err)
	}

	return nil
}

// PostgresMessageRepository persists the append-only message log
type PostgresMessageRepository struct {
	db *sqlx.DB
}

func NewPostgresMessageRepository(db *sqlx.DB) chat.MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, message *chat.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID.String(),
		message.ConversationID.String(),
		string(message.Role),
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return chat.ErrPersistenceFailed().
			WithDetail("operation", "create_message").
			WithCause(err)
	}

	return nil
}

// ListByConversationID returns the full message history oldest first. The id
// tiebreak keeps the order stable when two messages share a timestamp.
func (r *PostgresMessageRepository) ListByConversationID(ctx context.Context, conversationID kernel.ConversationID) ([]chat.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`

	messages := []chat.Message{}
	err := r.db.SelectContext(ctx, &messages, query, conversationID.String())
	if err != nil {
		return nil, chat.ErrPersistenceFailed().
			WithDetail("operation", "list_messages").
			WithCause(err)
	}

	return messages, nil
}
