package conversation

import (
	"fmt"
	"time"
)

// Role identifies who authored a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a citation attached to an assistant answer.
type Source struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"` // relevance in [0,1]
}

// Percent renders the relevance score as a whole percentage, e.g. "90%".
func (s Source) Percent() string {
	return fmt.Sprintf("%.0f%%", s.Score*100)
}

// Message is one turn in a conversation. Messages are values; the session
// never mutates one after appending it.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (m Message) clone() Message {
	if m.Sources != nil {
		m.Sources = append([]Source(nil), m.Sources...)
	}
	return m
}

// Fixed user-visible texts.
const (
	fallbackReply      = "Sorry, I encountered an error. Please try again."
	uploadFirstReply   = "Please upload a document first."
	actionFailureReply = "Sorry, I couldn't complete that analysis. Please try again."
	uploadFailureReply = "Sorry, I encountered an error while uploading the document. Please try again."
)
