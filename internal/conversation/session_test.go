package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

// fakeBackend serves canned responses per path and records what it received.
type fakeBackend struct {
	mu       sync.Mutex
	calls    map[string]int
	bodies   map[string][]map[string]any
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) (*fakeBackend, *backend.Client) {
	t.Helper()
	f := &fakeBackend{
		calls:    map[string]int{},
		bodies:   map[string][]map[string]any{},
		handlers: map[string]http.HandlerFunc{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, backend.NewClient(srv.URL, 5*time.Second)
}

func (f *fakeBackend) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

func (f *fakeBackend) reply(path, body string) {
	f.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	if r.Header.Get("Content-Type") == "application/json" {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		if json.Unmarshal(data, &body) == nil {
			f.bodies[r.URL.Path] = append(f.bodies[r.URL.Path], body)
		}
	}
	h := f.handlers[r.URL.Path]
	f.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
		return
	}
	h(w, r)
}

func (f *fakeBackend) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeBackend) lastBody(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := f.bodies[path]
	if len(bodies) == 0 {
		return nil
	}
	return bodies[len(bodies)-1]
}

func TestNewSessionAssignsStableID(t *testing.T) {
	_, client := newFakeBackend(t)
	s := NewSession(client)
	if s.ID() == "" {
		t.Fatal("expected a session id")
	}
	id := s.ID()
	s.Clear(context.Background())
	if s.ID() != id {
		t.Errorf("session id changed from %q to %q", id, s.ID())
	}
	if other := NewSession(client); other.ID() == id {
		t.Error("two sessions share an id")
	}
}

func TestSendKnowledgeBaseAnswer(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathRAGChat, `{"result":{"response":"Indemnity is...","sources":[{"source":"IPC","score":0.9}]}}`)

	s := NewSession(client)
	if err := s.Send(context.Background(), "What is indemnity?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "What is indemnity?" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "Indemnity is..." {
		t.Errorf("unexpected assistant message: %+v", msgs[1])
	}
	if len(msgs[1].Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(msgs[1].Sources))
	}
	if got := msgs[1].Sources[0].Percent(); got != "90%" {
		t.Errorf("score rendered as %q, want 90%%", got)
	}

	body := fb.lastBody(backend.PathRAGChat)
	if body["user_chat"] != "What is indemnity?" {
		t.Errorf("user_chat = %v", body["user_chat"])
	}
	if body["session_id"] != s.ID() {
		t.Errorf("session_id = %v, want %s", body["session_id"], s.ID())
	}
	if body["n_results"] != float64(5) {
		t.Errorf("n_results = %v, want 5", body["n_results"])
	}
	if s.Pending() {
		t.Error("session still pending after reply")
	}
}

func TestSendEmptyIsNoop(t *testing.T) {
	fb, client := newFakeBackend(t)
	s := NewSession(client)

	if err := s.Send(context.Background(), "   \n"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Error("empty send appended a message")
	}
	if fb.count(backend.PathRAGChat) != 0 {
		t.Error("empty send made a network call")
	}
}

func TestSendFailureAppendsFallback(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(backend.PathRAGChat, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s := NewSession(client)
	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send should not surface backend failures, got %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Content != fallbackReply {
		t.Errorf("expected fallback reply, got %q", msgs[1].Content)
	}
	if s.Pending() {
		t.Error("pending not cleared after failure")
	}
}

func TestSendRejectedWhilePending(t *testing.T) {
	fb, client := newFakeBackend(t)
	release := make(chan struct{})
	fb.handle(backend.PathRAGChat, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"result":{"response":"first answer","sources":[]}}`))
	})

	s := NewSession(client)
	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "first") }()

	deadline := time.Now().Add(2 * time.Second)
	for !s.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("session never became pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Send(context.Background(), "second"); !errors.Is(err, ErrSendPending) {
		t.Fatalf("expected ErrSendPending, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Send: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "first" || msgs[1].Content != "first answer" {
		t.Errorf("unexpected history: %+v", msgs)
	}
	if fb.count(backend.PathRAGChat) != 1 {
		t.Errorf("expected 1 chat call, got %d", fb.count(backend.PathRAGChat))
	}
}

func TestSequentialSendsAlternateRoles(t *testing.T) {
	fb, client := newFakeBackend(t)
	n := 0
	fb.handle(backend.PathRAGChat, func(w http.ResponseWriter, r *http.Request) {
		n++
		json.NewEncoder(w).Encode(backend.RAGChatResponse{Result: backend.RAGResult{Response: "answer " + string(rune('0'+n))}})
	})

	s := NewSession(client)
	ctx := context.Background()
	for _, q := range []string{"q1", "q2", "q3"} {
		if err := s.Send(ctx, q); err != nil {
			t.Fatalf("Send(%q): %v", q, err)
		}
	}

	msgs := s.Messages()
	want := []struct {
		role    Role
		content string
	}{
		{RoleUser, "q1"}, {RoleAssistant, "answer 1"},
		{RoleUser, "q2"}, {RoleAssistant, "answer 2"},
		{RoleUser, "q3"}, {RoleAssistant, "answer 3"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i, w := range want {
		if msgs[i].Role != w.role || msgs[i].Content != w.content {
			t.Errorf("message %d = %s %q, want %s %q", i, msgs[i].Role, msgs[i].Content, w.role, w.content)
		}
	}
}

func TestSendRoutesToAttachedDocument(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathUpload, `{"success":true,"document_id":"d1","filename":"nda.pdf","word_count":500,"total_chunks":10}`)
	fb.reply(backend.PathDocQuestion, `{"success":true,"answer":"The term is two years."}`)

	s := NewSession(client)
	ctx := context.Background()
	if err := s.Attach(ctx, Upload{Filename: "nda.pdf", Body: stringsReader("%PDF")}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.Send(ctx, "What is the term?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if fb.count(backend.PathRAGChat) != 0 {
		t.Error("question went to the knowledge base while a document was attached")
	}
	body := fb.lastBody(backend.PathDocQuestion)
	if body["document_id"] != "d1" || body["question"] != "What is the term?" {
		t.Errorf("unexpected question body: %v", body)
	}

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != "The term is two years." {
		t.Errorf("unexpected answer %q", last.Content)
	}
	if last.Sources != nil {
		t.Errorf("expected no sources, got %+v", last.Sources)
	}
}

func TestClearEmptiesHistoryButKeepsBinding(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathRAGChat, `{"result":{"response":"ok"}}`)
	fb.reply(backend.PathUpload, `{"success":true,"document_id":"d1","filename":"nda.pdf"}`)
	// No handler for the clear endpoint: the server answers 404 and the
	// local clear must still happen.

	s := NewSession(client)
	ctx := context.Background()
	s.Send(ctx, "hi")
	s.Attach(ctx, Upload{Filename: "nda.pdf", Body: stringsReader("x")})

	s.Clear(ctx)

	if len(s.Messages()) != 0 {
		t.Errorf("expected empty history, got %d messages", len(s.Messages()))
	}
	if s.Binding() == nil {
		t.Error("Clear detached the document")
	}
	if fb.count(backend.PathSessionClear) != 1 {
		t.Errorf("expected 1 server clear, got %d", fb.count(backend.PathSessionClear))
	}
	if body := fb.lastBody(backend.PathSessionClear); body["session_id"] != s.ID() {
		t.Errorf("unexpected clear body %v", body)
	}
}

func TestObserverSeesAppendsInOrder(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathRAGChat, `{"result":{"response":"pong"}}`)

	var seen []string
	s := NewSession(client, WithObserver(func(m Message) {
		seen = append(seen, string(m.Role)+":"+m.Content)
	}))
	s.Send(context.Background(), "ping")

	if len(seen) != 2 || seen[0] != "user:ping" || seen[1] != "assistant:pong" {
		t.Errorf("observer saw %v", seen)
	}
}

func TestMessagesReturnsCopies(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathRAGChat, `{"result":{"response":"a","sources":[{"source":"IPC","score":0.5}]}}`)

	s := NewSession(client)
	s.Send(context.Background(), "q")

	msgs := s.Messages()
	msgs[1].Sources[0].Name = "tampered"
	msgs[0].Content = "tampered"

	again := s.Messages()
	if again[1].Sources[0].Name != "IPC" || again[0].Content != "q" {
		t.Error("caller mutation leaked into session history")
	}
}

func TestWithResultCount(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.reply(backend.PathRAGChat, `{"result":{"response":"a"}}`)

	s := NewSession(client, WithResultCount(8))
	s.Send(context.Background(), "q")

	if body := fb.lastBody(backend.PathRAGChat); body["n_results"] != float64(8) {
		t.Errorf("n_results = %v, want 8", body["n_results"])
	}
}

func TestAskReturnsItsOwnReply(t *testing.T) {
	fb, client := newFakeBackend(t)
	s := NewSession(client)
	fb.handle(backend.PathRAGChat, func(w http.ResponseWriter, r *http.Request) {
		// Another caller appends while the question is in flight.
		s.RunAction(context.Background(), ActionSummarize)
		w.Write([]byte(`{"result":{"response":"Consideration is...","sources":[{"source":"Contract Act","score":0.8}]}}`))
	})

	reply, err := s.Ask(context.Background(), "what is consideration?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.Role != RoleAssistant || reply.Content != "Consideration is..." {
		t.Errorf("reply = %+v", reply)
	}
	if len(reply.Sources) != 1 || reply.Sources[0].Percent() != "80%" {
		t.Errorf("sources = %+v", reply.Sources)
	}
	if reply.Timestamp.IsZero() {
		t.Error("reply not stamped")
	}
	if n := len(s.Messages()); n != 3 {
		t.Errorf("expected 3 messages, got %d", n)
	}
}

func TestAskReturnsFallbackOnFailure(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(backend.PathRAGChat, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	reply, err := NewSession(client).Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.Content != fallbackReply {
		t.Errorf("reply = %q, want fallback", reply.Content)
	}
}
