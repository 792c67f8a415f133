package chatsrv

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/adi-uchiha/jems/chat"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/adi-uchiha/jems/pkg/logx"
	"github.com/adi-uchiha/jems/resume"
	"github.com/adi-uchiha/jems/retrieval"
	"github.com/google/uuid"
)

// TurnOptions tunes retrieval and persistence behavior of the turn controller
type TurnOptions struct {
	// TopK is the number of nearest postings requested from the index
	TopK int
	// MinScore is the hard similarity cutoff; postings at or below it are
	// discarded before prompt assembly
	MinScore float64
	// TurnStateTTL bounds how long the per-conversation activity marker can
	// outlive a crashed turn
	TurnStateTTL time.Duration
	// PersistTimeout bounds the detached post-stream persistence step
	PersistTimeout time.Duration
}

// DefaultTurnOptions returns the production defaults
func DefaultTurnOptions() TurnOptions {
	return TurnOptions{
		TopK:           5,
		MinScore:       0.35,
		TurnStateTTL:   2 * time.Minute,
		PersistTimeout: 10 * time.Second,
	}
}

// TurnService orchestrates one chat turn: validate and authorize the
// request, durably record the user's question, gather grounding context,
// stream the generated answer, and persist the assistant message once the
// stream completes naturally.
type TurnService struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	turnState     chat.TurnStateStore
	retriever     chat.ContextRetriever
	snapshots     chat.SnapshotLoader
	generator     chat.Generator
	opts          TurnOptions
}

func NewTurnService(
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	turnState chat.TurnStateStore,
	retriever chat.ContextRetriever,
	snapshots chat.SnapshotLoader,
	generator chat.Generator,
	opts TurnOptions,
) *TurnService {
	return &TurnService{
		conversations: conversations,
		messages:      messages,
		turnState:     turnState,
		retriever:     retriever,
		snapshots:     snapshots,
		generator:     generator,
		opts:          opts,
	}
}

// RunTurn runs one turn for the given conversation and returns a stream
// handle as soon as generation has started. Validation, authorization and
// the user-message write happen before this returns, so any error here
// produced no stream and no generation.
func (s *TurnService) RunTurn(
	ctx context.Context,
	conversationID kernel.ConversationID,
	userID kernel.UserID,
	incoming []chat.IncomingMessage,
) (*TurnStream, error) {
	userContent, err := validateIncoming(incoming)
	if err != nil {
		return nil, err
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsOwnedBy(userID) {
		// Deliberately no detail about the owning user
		return nil, chat.ErrConversationForbidden().
			WithDetail("conversation_id", conversationID.String())
	}

	// The question is recorded before generation starts: if the model call
	// fails, the user can retry without losing what they asked.
	userMessage := &chat.Message{
		ID:             kernel.NewMessageID(uuid.NewString()),
		ConversationID: conversation.ID,
		Role:           chat.RoleUser,
		Content:        userContent,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return nil, chat.ErrPersistenceFailed().
			WithDetail("conversation_id", conversationID.String()).
			WithCause(err)
	}

	if err := s.turnState.MarkActive(ctx, conversation.ID, s.opts.TurnStateTTL); err != nil {
		logx.Warnf("Turn state marker not set for conversation %s: %v", conversation.ID, err)
	}

	snapshot, postings := s.gatherContext(ctx, userID, userContent)
	systemPrompt := AssembleSystemPrompt(snapshot, postings)

	genStream, err := s.generator.StreamChat(ctx, promptMessages(systemPrompt, incoming))
	if err != nil {
		s.clearTurnState(conversation.ID)
		return nil, chat.ErrGenerationFailed().
			WithDetail("conversation_id", conversationID.String()).
			WithCause(err)
	}

	stream := newTurnStream()
	go s.pump(ctx, conversation, userContent, genStream, stream)
	return stream, nil
}

// TurnActive reports whether the conversation currently has a turn in flight
func (s *TurnService) TurnActive(ctx context.Context, conversationID kernel.ConversationID) (bool, error) {
	return s.turnState.IsActive(ctx, conversationID)
}

// gatherContext loads the résumé snapshot and retrieves postings
// concurrently: the two reads are independent and both degrade to "no
// context" on failure.
func (s *TurnService) gatherContext(ctx context.Context, userID kernel.UserID, queryText string) (*resume.Snapshot, []retrieval.RetrievedPosting) {
	var (
		wg       sync.WaitGroup
		snapshot *resume.Snapshot
		postings []retrieval.RetrievedPosting
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snap, err := s.snapshots.LoadActive(ctx, userID)
		if err != nil {
			logx.Warnf("Resume snapshot unavailable for user %s: %v", userID, err)
			return
		}
		snapshot = snap
	}()
	go func() {
		defer wg.Done()
		postings = s.retriever.Retrieve(ctx, queryText, s.opts.TopK, s.opts.MinScore)
	}()
	wg.Wait()

	return snapshot, postings
}

// pump moves tokens from the generation stream to the turn stream and runs
// the completion step. The assistant message is persisted only on natural
// end-of-stream with non-empty text: a cancelled or failed stream must never
// leave a truncated answer in the store.
func (s *TurnService) pump(
	ctx context.Context,
	conversation *chat.Conversation,
	userContent string,
	genStream chat.GenerationStream,
	stream *TurnStream,
) {
	defer genStream.Close()

	var acc strings.Builder
	for genStream.Next() {
		token := genStream.Token()
		if token == "" {
			continue
		}
		acc.WriteString(token)

		select {
		case stream.tokens <- token:
		case <-ctx.Done():
			s.clearTurnState(conversation.ID)
			stream.finish(acc.String(), chat.ErrGenerationFailed().
				WithDetail("reason", "cancelled").
				WithCause(ctx.Err()))
			return
		}
	}

	s.clearTurnState(conversation.ID)

	if err := genStream.Err(); err != nil {
		logx.Warnf("Generation ended abnormally for conversation %s: %v", conversation.ID, err)
		stream.finish(acc.String(), chat.ErrGenerationFailed().WithCause(err))
		return
	}

	if text := strings.TrimSpace(acc.String()); text != "" {
		s.persistAssistant(conversation, userContent, text)
	}

	stream.finish(acc.String(), nil)
}

// persistAssistant records the completed answer and bumps conversation
// metadata. The caller already has the streamed text, so failures here are
// logged and absorbed rather than resurfaced.
func (s *TurnService) persistAssistant(conversation *chat.Conversation, userContent, text string) {
	// Detached from the request context: a client that disconnects right
	// after end-of-stream must not abort persistence of a completed answer.
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()

	now := time.Now().UTC()
	assistantMessage := &chat.Message{
		ID:             kernel.NewMessageID(uuid.NewString()),
		ConversationID: conversation.ID,
		Role:           chat.RoleAssistant,
		Content:        text,
		CreatedAt:      now,
	}

	if err := s.messages.Create(ctx, assistantMessage); err != nil {
		logx.Warnf("Assistant message not persisted for conversation %s: %v", conversation.ID, err)
		return
	}

	if err := s.conversations.Touch(ctx, conversation.ID, now); err != nil {
		logx.Warnf("Conversation %s timestamp not bumped: %v", conversation.ID, err)
	}

	if conversation.NeedsTitle() {
		if err := s.conversations.UpdateTitle(ctx, conversation.ID, chat.TitleFromContent(userContent)); err != nil {
			logx.Warnf("Conversation %s title not updated: %v", conversation.ID, err)
		}
	}
}

func (s *TurnService) clearTurnState(conversationID kernel.ConversationID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.turnState.Clear(ctx, conversationID); err != nil {
		logx.Warnf("Turn state marker not cleared for conversation %s: %v", conversationID, err)
	}
}

// validateIncoming checks the inbound history and returns the user's latest
// utterance
func validateIncoming(incoming []chat.IncomingMessage) (string, error) {
	if len(incoming) == 0 {
		return "", chat.ErrEmptyMessages()
	}

	for i, msg := range incoming {
		if msg.Role != chat.RoleUser && msg.Role != chat.RoleAssistant {
			return "", chat.ErrInvalidPayload().
				WithDetail("index", i).
				WithDetail("role", string(msg.Role))
		}
	}

	last := incoming[len(incoming)-1]
	if last.Role != chat.RoleUser {
		return "", chat.ErrLastMessageNotUser()
	}

	content := strings.TrimSpace(last.Content)
	if content == "" {
		return "", chat.ErrInvalidPayload().WithDetail("reason", "empty user message")
	}

	return content, nil
}

// promptMessages prepends the assembled system prompt to the client-visible
// history
func promptMessages(systemPrompt string, incoming []chat.IncomingMessage) []chat.PromptMessage {
	messages := make([]chat.PromptMessage, 0, len(incoming)+1)
	messages = append(messages, chat.PromptMessage{Role: chat.RoleSystem, Content: systemPrompt})
	for _, msg := range incoming {
		messages = append(messages, chat.PromptMessage{Role: msg.Role, Content: msg.Content})
	}
	return messages
}
