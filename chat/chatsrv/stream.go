package chatsrv

import "sync"

// TurnStream is the caller-facing handle for one generating turn. Tokens
// arrive on Tokens() as the model produces them; once the channel closes,
// Err reports how the stream ended (nil for natural completion) and Text
// returns the accumulated output.
type TurnStream struct {
	tokens chan string

	mu   sync.Mutex
	err  error
	text string
}

func newTurnStream() *TurnStream {
	return &TurnStream{
		tokens: make(chan string, 16),
	}
}

// Tokens returns the channel of generated tokens. It is closed when the
// turn finishes, successfully or not.
func (s *TurnStream) Tokens() <-chan string {
	return s.tokens
}

// Err reports how the stream ended. Only meaningful after Tokens is closed.
func (s *TurnStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Text returns the full accumulated output. Only meaningful after Tokens is
// closed.
func (s *TurnStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *TurnStream) finish(text string, err error) {
	s.mu.Lock()
	s.text = text
	s.err = err
	s.mu.Unlock()
	close(s.tokens)
}
