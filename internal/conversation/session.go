// Package conversation implements the assistant chat session: message
// history, routing between the knowledge-base assistant and document-scoped
// question answering, and the uploaded-document binding.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

// DefaultResultCount is the number of knowledge-base passages requested per answer.
const DefaultResultCount = 5

var (
	// ErrEmptyMessage is returned when the utterance is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendPending is returned when a send is already in flight on the session.
	ErrSendPending = errors.New("a reply is still pending")
)

// Backend is the subset of the backend client a session needs.
type Backend interface {
	ChatRAG(ctx context.Context, req backend.RAGChatRequest) (*backend.RAGChatResponse, error)
	AskDocument(ctx context.Context, req backend.DocumentQuestionRequest) (*backend.DocumentQuestionResponse, error)
	Upload(ctx context.Context, filename string, body io.Reader) (*backend.UploadResponse, error)
	Analyze(ctx context.Context, action, documentID string) (*backend.AnalysisResponse, error)
	ClearDocument(ctx context.Context, documentID string) error
	ClearSession(ctx context.Context, sessionID string) error
}

var _ Backend = (*backend.Client)(nil)

// Session is one assistant chat session. All methods are safe for
// concurrent use; network calls run without the lock held.
type Session struct {
	id          string
	client      Backend
	resultCount int
	now         func() time.Time
	observer    func(Message)

	mu       sync.Mutex
	messages []Message
	pending  bool
	binding  *Binding
}

// Option configures a Session.
type Option func(*Session)

// WithResultCount sets how many knowledge-base passages are requested.
func WithResultCount(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.resultCount = n
		}
	}
}

// WithObserver registers a callback invoked for every appended message, in
// append order. The callback runs with the session locked and must not call
// back into the session.
func WithObserver(fn func(Message)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session with a fresh opaque identifier. The
// identifier never changes for the lifetime of the session.
func NewSession(client Backend, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		client:      client,
		resultCount: DefaultResultCount,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Pending reports whether a Send is waiting for its reply.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the message history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

// Send appends the user's utterance immediately, then asks either the
// knowledge-base assistant or, when a document is attached, the document
// question service. Network failures are surfaced as a fallback assistant
// message, not returned. Only ErrEmptyMessage and ErrSendPending are
// returned, and in both cases nothing is appended.
func (s *Session) Send(ctx context.Context, text string) error {
	_, err := s.Ask(ctx, text)
	return err
}

// Ask is Send, returning the assistant message it appended (the reply or
// the fallback). Other appends that land meanwhile do not affect the result.
func (s *Session) Ask(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return Message{}, ErrSendPending
	}
	s.pending = true
	s.appendLocked(Message{Role: RoleUser, Content: text})
	binding := s.binding
	s.mu.Unlock()

	reply, err := s.route(ctx, text, binding)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		log.Printf("conversation: session %s: send failed: %v", s.id, err)
		reply = Message{Role: RoleAssistant, Content: fallbackReply}
	}
	reply = s.appendLocked(reply)
	return reply.clone(), nil
}

func (s *Session) route(ctx context.Context, text string, binding *Binding) (Message, error) {
	if binding == nil {
		resp, err := s.client.ChatRAG(ctx, backend.RAGChatRequest{
			UserChat:  text,
			SessionID: s.id,
			NResults:  s.resultCount,
		})
		if err != nil {
			return Message{}, err
		}
		sources := make([]Source, 0, len(resp.Result.Sources))
		for _, src := range resp.Result.Sources {
			sources = append(sources, Source{Name: src.Source, Score: src.Score})
		}
		return Message{Role: RoleAssistant, Content: resp.Result.Response, Sources: sources}, nil
	}

	resp, err := s.client.AskDocument(ctx, backend.DocumentQuestionRequest{
		DocumentID: binding.DocumentID,
		Question:   text,
	})
	if err != nil {
		return Message{}, err
	}
	var sources []Source
	for _, src := range resp.Sources {
		sources = append(sources, Source{Name: fmt.Sprintf("%s, chunk %v", binding.Filename, src.ChunkID), Score: src.Similarity})
	}
	return Message{Role: RoleAssistant, Content: resp.Answer, Sources: sources}, nil
}

// Clear asks the backend to forget the conversation, then empties the local
// history. The server call is best-effort. An attached document stays attached.
func (s *Session) Clear(ctx context.Context) {
	if err := s.client.ClearSession(ctx, s.id); err != nil {
		log.Printf("conversation: session %s: server clear failed: %v", s.id, err)
	}
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// appendLocked stamps and appends a message and returns it as stored.
// Callers must hold s.mu.
func (s *Session) appendLocked(m Message) Message {
	m.Timestamp = s.now()
	s.messages = append(s.messages, m)
	if s.observer != nil {
		s.observer(m.clone())
	}
	return m
}

func (s *Session) appendAssistant(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(Message{Role: RoleAssistant, Content: content})
}
