package conversation

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

// AcceptedExtensions lists the upload formats the backend can analyze.
var AcceptedExtensions = []string{".pdf", ".docx", ".doc"}

// Binding records that an uploaded document is attached to a session. It
// only exists while attached; detaching drops it without touching the
// server copy.
type Binding struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	WordCount   int    `json:"word_count"`
	TotalChunks int    `json:"total_chunks"`
}

// Upload is a document payload to attach.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Action is a fixed analysis that can run against the attached document.
type Action string

const (
	ActionSummarize Action = "summarize"
	ActionClauses   Action = "clauses"
	ActionRisks     Action = "risks"
)

// Actions lists every analysis action in display order.
var Actions = []Action{ActionSummarize, ActionClauses, ActionRisks}

// ParseAction converts user input into an Action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

func (a Action) heading() string {
	switch a {
	case ActionSummarize:
		return "## Document Summary"
	case ActionClauses:
		return "## Key Clauses"
	case ActionRisks:
		return "## Risk Analysis"
	}
	panic(fmt.Sprintf("conversation: unknown action %q", string(a)))
}

func (a Action) body(resp *backend.AnalysisResponse) string {
	switch a {
	case ActionSummarize:
		return resp.Summary
	case ActionClauses:
		return resp.Clauses
	default:
		return resp.Risks
	}
}

// CheckFormat rejects filenames whose extension is not accepted. The
// comparison is case-insensitive.
func CheckFormat(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, ok := range AcceptedExtensions {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (accepted: %s)", backend.ErrUnsupportedFormat, filepath.Base(filename), strings.Join(AcceptedExtensions, ", "))
}

// Binding returns a copy of the attached document record, or nil.
func (s *Session) Binding() *Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binding == nil {
		return nil
	}
	b := *s.binding
	return &b
}

// Attach validates and uploads a document, then binds it to the session so
// later questions are answered from it. Every outcome is surfaced as an
// assistant message; the returned error only tells the caller whether a
// binding was established. An unsupported extension is rejected before any
// network call with an error wrapping backend.ErrUnsupportedFormat. A failed
// upload leaves no document attached, even if one was attached before.
func (s *Session) Attach(ctx context.Context, up Upload) error {
	if err := CheckFormat(up.Filename); err != nil {
		s.appendAssistant(fmt.Sprintf("Unsupported file format for %q. Please upload a PDF or Word document (%s).",
			filepath.Base(up.Filename), strings.Join(AcceptedExtensions, ", ")))
		return err
	}

	name := filepath.Base(up.Filename)
	resp, err := s.client.Upload(ctx, name, up.Body)
	if err != nil {
		log.Printf("conversation: session %s: upload %s failed: %v", s.id, name, err)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.binding = nil
		s.appendLocked(Message{Role: RoleAssistant, Content: uploadFailureReply})
		return err
	}

	b := &Binding{
		DocumentID:  resp.DocumentID,
		Filename:    resp.Filename,
		WordCount:   resp.WordCount,
		TotalChunks: resp.TotalChunks,
	}
	if b.Filename == "" {
		b.Filename = name
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = b
	s.appendLocked(Message{Role: RoleAssistant, Content: attachedReply(b)})
	return nil
}

func attachedReply(b *Binding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Document uploaded:** %s\n\n", b.Filename)
	fmt.Fprintf(&sb, "- Words: %d\n", b.WordCount)
	fmt.Fprintf(&sb, "- Sections analyzed: %d\n\n", b.TotalChunks)
	sb.WriteString("You can now:\n")
	sb.WriteString("- Ask any question about this document\n")
	sb.WriteString("- **summarize** for a summary\n")
	sb.WriteString("- **clauses** to extract the key clauses\n")
	sb.WriteString("- **risks** to assess potential legal risks\n")
	return sb.String()
}

// RunAction dispatches one analysis action against the attached document
// and appends the result under a heading. Without a binding it only asks
// the user to upload first. Passing an Action outside Actions panics.
// Concurrent calls are allowed; results append in completion order.
func (s *Session) RunAction(ctx context.Context, action Action) error {
	heading := action.heading()

	b := s.Binding()
	if b == nil {
		s.appendAssistant(uploadFirstReply)
		return fmt.Errorf("%s: no document attached", action)
	}

	resp, err := s.client.Analyze(ctx, string(action), b.DocumentID)
	if err != nil {
		log.Printf("conversation: session %s: %s on %s failed: %v", s.id, action, b.DocumentID, err)
		s.appendAssistant(actionFailureReply)
		return err
	}

	s.appendAssistant(heading + "\n\n" + strings.TrimSpace(action.body(resp)))
	return nil
}

// Detach drops the attached document. The server is notified best-effort;
// the local binding is cleared and confirmed regardless of its answer.
func (s *Session) Detach(ctx context.Context) {
	b := s.Binding()
	if b == nil {
		return
	}

	if err := s.client.ClearDocument(ctx, b.DocumentID); err != nil {
		log.Printf("conversation: session %s: server clear of %s failed: %v", s.id, b.DocumentID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binding != nil && s.binding.DocumentID == b.DocumentID {
		s.binding = nil
	}
	s.appendLocked(Message{
		Role:    RoleAssistant,
		Content: fmt.Sprintf("Document %q removed. Questions now go to the legal knowledge base.", b.Filename),
	})
}
