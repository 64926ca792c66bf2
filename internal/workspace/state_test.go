package workspace

import (
	"errors"
	"reflect"
	"testing"
)

func scorePtr(v float64) *float64 { return &v }

func generated(t *testing.T) *State {
	t.Helper()
	s := New()
	err := s.ApplyGeneration(GenerationResult{
		DocumentText:    "MUTUAL NON-DISCLOSURE AGREEMENT",
		DocumentType:    "nda",
		DocumentID:      "doc-1",
		ExtractedFields: map[string]string{"party_a": "Acme"},
		MissingFields:   []string{"party_b", "party_a", "effective_date"},
	})
	if err != nil {
		t.Fatalf("ApplyGeneration: %v", err)
	}
	return s
}

func validated(t *testing.T) *State {
	t.Helper()
	s := generated(t)
	if err := s.EditText("edited"); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	err := s.ApplyValidation(ValidationResult{
		Status:          StatusNeedsCorrection,
		ComplianceScore: scorePtr(72),
		Issues:          []Issue{{Severity: "high", Description: "No governing law clause"}},
	})
	if err != nil {
		t.Fatalf("ApplyValidation: %v", err)
	}
	return s
}

func TestNewStartsInDescribe(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	if snap.Stage != StageDescribe {
		t.Errorf("stage = %s, want describe", snap.Stage)
	}
	if snap.DocumentID != nil || snap.ValidationStatus != nil || snap.ComplianceScore != nil {
		t.Errorf("expected nil optionals, got %+v", snap)
	}
	if len(snap.ExtractedFields) != 0 || len(snap.MissingFields) != 0 || len(snap.Turns) != 0 {
		t.Errorf("expected empty collections, got %+v", snap)
	}
}

func TestApplyGeneration(t *testing.T) {
	s := generated(t)
	snap := s.Snapshot()

	if snap.Stage != StageGenerate {
		t.Errorf("stage = %s, want generate", snap.Stage)
	}
	if snap.Title != "nda" {
		t.Errorf("title defaults to document type, got %q", snap.Title)
	}
	if snap.DocumentID == nil || *snap.DocumentID != "doc-1" {
		t.Errorf("document id = %v", snap.DocumentID)
	}
	// Fields already extracted are not reported as missing.
	if want := []string{"effective_date", "party_b"}; !reflect.DeepEqual(snap.MissingFields, want) {
		t.Errorf("missing = %v, want %v", snap.MissingFields, want)
	}
}

func TestApplyGenerationOnlyFromDescribe(t *testing.T) {
	s := generated(t)
	err := s.ApplyGeneration(GenerationResult{DocumentText: "again"})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if s.Text() != "MUTUAL NON-DISCLOSURE AGREEMENT" {
		t.Error("rejected generation changed the text")
	}
}

func TestEditTextTransitions(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(t *testing.T) *State
	}{
		{"from generate", generated},
		{"from edit", func(t *testing.T) *State {
			s := generated(t)
			s.EditText("first")
			return s
		}},
		{"from export", func(t *testing.T) *State {
			s := generated(t)
			s.EditText("first")
			if err := s.MarkExported(); err != nil {
				t.Fatalf("MarkExported: %v", err)
			}
			return s
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.setup(t)
			if err := s.EditText("new text"); err != nil {
				t.Fatalf("EditText: %v", err)
			}
			if s.Stage() != StageEdit || s.Text() != "new text" {
				t.Errorf("got stage %s text %q", s.Stage(), s.Text())
			}
		})
	}
}

func TestEditTextFromDescribeRejected(t *testing.T) {
	s := New()
	if err := s.EditText("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if s.Text() != "" {
		t.Error("rejected edit changed the text")
	}
}

func TestEditDuringValidateClearsVerdict(t *testing.T) {
	s := validated(t)
	if s.ValidationStatus() == nil {
		t.Fatal("precondition: expected a validation status")
	}

	if err := s.EditText("changed after review"); err != nil {
		t.Fatalf("EditText: %v", err)
	}

	snap := s.Snapshot()
	if snap.Stage != StageEdit {
		t.Errorf("stage = %s, want edit", snap.Stage)
	}
	if snap.ValidationStatus != nil || snap.ComplianceScore != nil || len(snap.Issues) != 0 {
		t.Errorf("verdict survived the edit: %+v", snap)
	}
	if snap.DocumentText != "changed after review" {
		t.Errorf("text = %q", snap.DocumentText)
	}
}

func TestRevertToEdit(t *testing.T) {
	s := validated(t)
	s.RevertToEdit()
	if s.Stage() != StageEdit || s.ValidationStatus() != nil || s.ComplianceScore() != nil {
		t.Errorf("unexpected state %+v", s.Snapshot())
	}
	if s.Text() != "edited" {
		t.Error("revert changed the text")
	}

	// Outside validate it does nothing.
	g := generated(t)
	g.RevertToEdit()
	if g.Stage() != StageGenerate {
		t.Errorf("stage = %s, want generate", g.Stage())
	}
}

func TestApplyValidation(t *testing.T) {
	s := validated(t)
	snap := s.Snapshot()
	if snap.Stage != StageValidate {
		t.Errorf("stage = %s", snap.Stage)
	}
	if *snap.ValidationStatus != StatusNeedsCorrection || *snap.ComplianceScore != 72 {
		t.Errorf("verdict = %v %v", *snap.ValidationStatus, *snap.ComplianceScore)
	}
	if len(snap.Issues) != 1 || snap.Issues[0].Severity != "high" {
		t.Errorf("issues = %+v", snap.Issues)
	}

	// Re-validating from validate replaces the verdict.
	if err := s.ApplyValidation(ValidationResult{Status: StatusValid}); err != nil {
		t.Fatalf("ApplyValidation: %v", err)
	}
	if *s.ValidationStatus() != StatusValid || s.ComplianceScore() != nil {
		t.Errorf("verdict not replaced: %+v", s.Snapshot())
	}
}

func TestApplyValidationRejected(t *testing.T) {
	if err := generated(t).ApplyValidation(ValidationResult{Status: StatusValid}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("from generate: expected ErrInvalidTransition, got %v", err)
	}

	s := generated(t)
	s.EditText("current")
	err := s.ApplyValidation(ValidationResult{DocumentText: "older", Status: StatusValid})
	if !errors.Is(err, ErrStaleValidation) {
		t.Fatalf("expected ErrStaleValidation, got %v", err)
	}
	if s.Stage() != StageEdit || s.ValidationStatus() != nil {
		t.Error("stale validation was applied")
	}
}

func TestApplyValidationDefaultsAndClamps(t *testing.T) {
	s := generated(t)
	s.EditText("x")
	if err := s.ApplyValidation(ValidationResult{ComplianceScore: scorePtr(140)}); err != nil {
		t.Fatalf("ApplyValidation: %v", err)
	}
	if *s.ValidationStatus() != StatusError {
		t.Errorf("empty status = %s, want error", *s.ValidationStatus())
	}
	if *s.ComplianceScore() != 100 {
		t.Errorf("score = %d, want 100", *s.ComplianceScore())
	}
}

func TestMarkExported(t *testing.T) {
	s := validated(t)
	if err := s.MarkExported(); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	if s.Stage() != StageExport || s.Text() != "edited" {
		t.Errorf("got stage %s text %q", s.Stage(), s.Text())
	}

	for _, st := range []*State{New(), generated(t)} {
		if err := st.MarkExported(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("from %s: expected ErrInvalidTransition, got %v", st.Stage(), err)
		}
	}
}

func TestResetRestoresInitialValues(t *testing.T) {
	s := validated(t)
	s.SetTitle("Acme NDA")
	s.AppendTurn(RoleUser, "hello")
	s.Reset()

	got := s.Snapshot()
	want := New().Snapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after reset\n got %+v\nwant %+v", got, want)
	}
}

func TestFillField(t *testing.T) {
	s := generated(t)
	if err := s.FillField("party_b", "Globex"); err != nil {
		t.Fatalf("FillField: %v", err)
	}
	snap := s.Snapshot()
	if snap.ExtractedFields["party_b"] != "Globex" {
		t.Errorf("fields = %v", snap.ExtractedFields)
	}
	if !reflect.DeepEqual(snap.MissingFields, []string{"effective_date"}) {
		t.Errorf("missing = %v", snap.MissingFields)
	}

	if err := New().FillField("a", "b"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := validated(t)
	snap := s.Snapshot()
	snap.ExtractedFields["party_a"] = "Mutated"
	snap.Issues[0].Severity = "low"
	*snap.ComplianceScore = 1

	again := s.Snapshot()
	if again.ExtractedFields["party_a"] != "Acme" || again.Issues[0].Severity != "high" || *again.ComplianceScore != 72 {
		t.Error("snapshot shares memory with the state")
	}
}

func TestApplyValidationRoundsFractionalScore(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int
	}{
		{87.5, 88},
		{87.4, 87},
		{-3.2, 0},
		{100.4, 100},
	} {
		s := generated(t)
		s.EditText("x")
		if err := s.ApplyValidation(ValidationResult{Status: StatusValid, ComplianceScore: scorePtr(tc.in)}); err != nil {
			t.Fatalf("ApplyValidation(%v): %v", tc.in, err)
		}
		if got := *s.ComplianceScore(); got != tc.want {
			t.Errorf("score for %v = %d, want %d", tc.in, got, tc.want)
		}
	}
}
