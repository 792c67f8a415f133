package generation

import (
	"context"

	"github.com/adi-uchiha/jems/chat"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// Config tunes the chat completion calls
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Streamer runs streaming chat completions against the OpenAI API. It
// implements the chat generator port.
type Streamer struct {
	client      *openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
}

// NewStreamer creates a new completion streamer. Zero config fields fall
// back to working defaults.
func NewStreamer(apiKey string, config Config) *Streamer {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	model := openai.ChatModel(config.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}

	return &Streamer{
		client:      &client,
		model:       model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}
}

// StreamChat starts one streaming completion over the message list.
// Connection errors surface through the returned stream's Err, after Next
// reports no more tokens.
func (s *Streamer) StreamChat(ctx context.Context, messages []chat.PromptMessage) (chat.GenerationStream, error) {
	params := openai.ChatCompletionNewParams{
		Model:       s.model,
		Messages:    convertMessages(messages),
		MaxTokens:   openai.Int(s.maxTokens),
		Temperature: openai.Float(s.temperature),
	}

	stream := s.client.Chat.Completions.NewStreaming(ctx, params)
	return &completionStream{inner: stream}, nil
}

func convertMessages(messages []chat.PromptMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// completionStream adapts the SSE chunk stream to the token-oriented
// generation stream port. Chunks without a content delta yield empty tokens,
// which the consumer skips.
type completionStream struct {
	inner *ssestream.Stream[openai.ChatCompletionChunk]
	token string
}

func (s *completionStream) Next() bool {
	if !s.inner.Next() {
		return false
	}

	chunk := s.inner.Current()
	if len(chunk.Choices) > 0 {
		s.token = chunk.Choices[0].Delta.Content
	} else {
		s.token = ""
	}
	return true
}

func (s *completionStream) Token() string {
	return s.token
}

func (s *completionStream) Err() error {
	return s.inner.Err()
}

func (s *completionStream) Close() error {
	return s.inner.Close()
}
