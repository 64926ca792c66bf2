// Package workspace tracks one document under construction through the
// authoring workflow: describe, generate, edit, validate, export.
package workspace

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

// Stage is a step of the authoring workflow.
type Stage string

const (
	StageDescribe Stage = "describe"
	StageGenerate Stage = "generate"
	StageEdit     Stage = "edit"
	StageValidate Stage = "validate"
	StageExport   Stage = "export"
)

// ValidationStatus is the backend's overall verdict on a document.
type ValidationStatus string

const (
	StatusValid           ValidationStatus = "valid"
	StatusNeedsCorrection ValidationStatus = "needs_correction"
	StatusInvalid         ValidationStatus = "invalid"
	StatusError           ValidationStatus = "error"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed from
	// the current stage.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrStaleValidation is returned when a validation result no longer
	// matches the document text.
	ErrStaleValidation = errors.New("validation result is stale")
)

// Issue is one finding of a compliance review.
type Issue struct {
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	ClauseReference string `json:"clause_reference,omitempty"`
	Recommendation  string `json:"recommendation,omitempty"`
}

// Turn is one entry of the drafting dialogue.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerationResult is what a completed generation request sets.
type GenerationResult struct {
	DocumentText    string
	DocumentType    string
	Title           string
	DocumentID      string
	ExtractedFields map[string]string
	MissingFields   []string
}

// ValidationResult is what a completed validation request sets. When
// DocumentText is non-empty it must equal the current text, otherwise the
// result is rejected as stale. The score is model output and may be
// fractional or out of range; it is rounded and clamped to 0..100.
type ValidationResult struct {
	DocumentText    string
	Status          ValidationStatus
	ComplianceScore *float64
	Issues          []Issue
}

// Snapshot is a deep copy of the workspace for display.
type Snapshot struct {
	Stage            Stage             `json:"stage"`
	DocumentText     string            `json:"document_text"`
	DocumentType     string            `json:"document_type"`
	Title            string            `json:"title"`
	DocumentID       *string           `json:"document_id"`
	ExtractedFields  map[string]string `json:"extracted_fields"`
	MissingFields    []string          `json:"missing_fields"`
	ValidationStatus *ValidationStatus `json:"validation_status"`
	ComplianceScore  *int              `json:"compliance_score"`
	Issues           []Issue           `json:"validation_issues"`
	Turns            []Turn            `json:"draft_conversation"`
}

// State is the workflow state machine for one document. Transitions only
// update memory; network calls live in Drafter. Safe for concurrent use.
type State struct {
	now func() time.Time

	mu      sync.Mutex
	stage   Stage
	text    string
	docType string
	title   string
	docID   string
	fields  map[string]string
	missing map[string]struct{}
	status  *ValidationStatus
	score   *int
	issues  []Issue
	turns   []Turn
}

// New returns a workspace in the describe stage.
func New() *State {
	s := &State{now: time.Now}
	s.resetLocked()
	return s
}

func (s *State) resetLocked() {
	s.stage = StageDescribe
	s.text = ""
	s.docType = ""
	s.title = ""
	s.docID = ""
	s.fields = map[string]string{}
	s.missing = map[string]struct{}{}
	s.status = nil
	s.score = nil
	s.issues = nil
	s.turns = nil
}

// Reset returns every field to its initial value. Allowed from any stage.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func transitionError(op string, from Stage) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, op, from)
}

// ApplyGeneration records a completed generation: describe -> generate.
func (s *State) ApplyGeneration(res GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageDescribe {
		return transitionError("apply generation", s.stage)
	}

	s.stage = StageGenerate
	s.text = res.DocumentText
	s.docType = res.DocumentType
	s.title = res.Title
	if s.title == "" {
		s.title = res.DocumentType
	}
	s.docID = res.DocumentID
	s.fields = make(map[string]string, len(res.ExtractedFields))
	for k, v := range res.ExtractedFields {
		s.fields[k] = v
	}
	s.missing = make(map[string]struct{}, len(res.MissingFields))
	for _, f := range res.MissingFields {
		if _, ok := s.fields[f]; !ok {
			s.missing[f] = struct{}{}
		}
	}
	return nil
}

// EditText replaces the document text. From generate, edit or export the
// stage becomes edit. From validate it goes through RevertToEdit, so a
// validation verdict is never shown against changed text.
func (s *State) EditText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.stage {
	case StageValidate:
		s.revertToEditLocked()
	case StageGenerate, StageEdit, StageExport:
		s.stage = StageEdit
	default:
		return transitionError("edit text", s.stage)
	}
	s.text = text
	return nil
}

// RevertToEdit is the validate -> edit transition: the stage becomes edit
// and the validation verdict, score and issues are dropped. It is a no-op
// outside the validate stage.
func (s *State) RevertToEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageValidate {
		s.revertToEditLocked()
	}
}

func (s *State) revertToEditLocked() {
	s.stage = StageEdit
	s.status = nil
	s.score = nil
	s.issues = nil
}

// ApplyValidation records a completed validation: edit or validate -> validate.
func (s *State) ApplyValidation(res ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageEdit && s.stage != StageValidate {
		return transitionError("apply validation", s.stage)
	}
	if res.DocumentText != "" && res.DocumentText != s.text {
		return ErrStaleValidation
	}

	status := res.Status
	if status == "" {
		status = StatusError
	}
	s.stage = StageValidate
	s.status = &status
	s.score = nil
	if res.ComplianceScore != nil {
		raw := *res.ComplianceScore
		if math.IsNaN(raw) {
			raw = 0
		}
		if raw < 0 || raw > 100 {
			log.Printf("workspace: compliance score %g out of range, clamping", raw)
		}
		score := int(math.Round(min(max(raw, 0), 100)))
		s.score = &score
	}
	s.issues = append([]Issue(nil), res.Issues...)
	return nil
}

// MarkExported records a completed export: edit or validate -> export.
// Re-exporting from export is allowed. The text is not touched.
func (s *State) MarkExported() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.stage {
	case StageEdit, StageValidate, StageExport:
		s.stage = StageExport
		return nil
	}
	return transitionError("export", s.stage)
}

// FillField records a value for a field the backend reported as missing.
func (s *State) FillField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageDescribe {
		return transitionError("fill field", s.stage)
	}
	s.fields[name] = value
	delete(s.missing, name)
	return nil
}

// SetTitle changes the export title.
func (s *State) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// AppendTurn adds an entry to the drafting dialogue.
func (s *State) AppendTurn(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, Timestamp: s.now()})
}

// Stage returns the current stage.
func (s *State) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Text returns the document text.
func (s *State) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// DocumentType returns the document type reported by generation.
func (s *State) DocumentType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docType
}

// Title returns the export title.
func (s *State) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// ValidationStatus returns the current verdict, or nil when there is none.
func (s *State) ValidationStatus() *ValidationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return nil
	}
	v := *s.status
	return &v
}

// ComplianceScore returns the 0-100 score, or nil.
func (s *State) ComplianceScore() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.score == nil {
		return nil
	}
	v := *s.score
	return &v
}

// MissingFields returns the missing field names, sorted.
func (s *State) MissingFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked()
}

func (s *State) missingLocked() []string {
	out := make([]string, 0, len(s.missing))
	for f := range s.missing {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy of every field.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Stage:           s.stage,
		DocumentText:    s.text,
		DocumentType:    s.docType,
		Title:           s.title,
		ExtractedFields: make(map[string]string, len(s.fields)),
		MissingFields:   s.missingLocked(),
		Issues:          append([]Issue(nil), s.issues...),
		Turns:           append([]Turn(nil), s.turns...),
	}
	if s.docID != "" {
		id := s.docID
		snap.DocumentID = &id
	}
	for k, v := range s.fields {
		snap.ExtractedFields[k] = v
	}
	if s.status != nil {
		v := *s.status
		snap.ValidationStatus = &v
	}
	if s.score != nil {
		v := *s.score
		snap.ComplianceScore = &v
	}
	return snap
}
