package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

const (
	// DefaultExportFormat is used when Export is given no format.
	DefaultExportFormat = "docx"

	fallbackTurn = "Sorry, I encountered an error. Please try again."
)

var (
	// ErrEmptyInput is returned for a blank description or instruction.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNoDocument is returned when validation or export runs on empty text.
	ErrNoDocument = errors.New("no document text")
	// ErrNoIssue is returned when a fix names an issue the last review did
	// not report.
	ErrNoIssue = errors.New("no such validation issue")
)

// Backend is the subset of the backend client the drafter needs.
type Backend interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (*backend.GenerateResponse, error)
	Refine(ctx context.Context, req backend.RefineRequest) (*backend.RefineResponse, error)
	Validate(ctx context.Context, req backend.ValidateRequest) (*backend.ValidateResponse, error)
	Export(ctx context.Context, req backend.ExportRequest, w io.Writer) (*backend.ExportResult, error)
	FixIssue(ctx context.Context, req backend.FixIssueRequest) (*backend.FixResponse, error)
	FixAllIssues(ctx context.Context, req backend.FixAllIssuesRequest) (*backend.FixResponse, error)
	QueryDocument(ctx context.Context, req backend.DocumentQueryRequest) (*backend.DocumentQueryResponse, error)
}

// Drafter drives a State through the backend. Each call checks the stage
// first, performs one request without holding the state lock, and applies
// exactly one transition on success.
type Drafter struct {
	client       Backend
	state        *State
	jurisdiction string
}

// NewDrafter creates a drafter for state. jurisdiction is sent with every
// validation request.
func NewDrafter(client Backend, state *State, jurisdiction string) *Drafter {
	return &Drafter{client: client, state: state, jurisdiction: jurisdiction}
}

// State returns the workspace the drafter operates on.
func (d *Drafter) State() *State { return d.state }

func (d *Drafter) fail(err error) error {
	d.state.AppendTurn(RoleAssistant, fallbackTurn)
	return err
}

// Generate drafts a document from a plain-language description. When the
// backend asks for more information without producing a document, the
// question is recorded and the workspace stays in describe.
func (d *Drafter) Generate(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrEmptyInput
	}
	if st := d.state.Stage(); st != StageDescribe {
		return transitionError("generate", st)
	}
	d.state.AppendTurn(RoleUser, description)

	resp, err := d.client.Generate(ctx, backend.GenerateRequest{Description: description})
	if err != nil {
		log.Printf("workspace: generate failed: %v", err)
		return d.fail(err)
	}

	if resp.Document == "" && resp.NeedsMoreInfo {
		d.state.AppendTurn(RoleAssistant, resp.NextQuestion)
		return nil
	}

	fields := make(map[string]string, len(resp.ExtractedFields))
	for k, v := range resp.ExtractedFields {
		if v == nil {
			continue
		}
		fields[k] = fmt.Sprint(v)
	}
	if err := d.state.ApplyGeneration(GenerationResult{
		DocumentText:    resp.Document,
		DocumentType:    resp.DocumentType,
		DocumentID:      resp.DocumentID,
		ExtractedFields: fields,
		MissingFields:   resp.MissingFields,
	}); err != nil {
		return err
	}

	reply := resp.NextQuestion
	if reply == "" {
		reply = fmt.Sprintf("Your %s is ready. Review and edit it, then validate.", displayType(resp.DocumentType))
	}
	d.state.AppendTurn(RoleAssistant, reply)
	return nil
}

// Refine asks the backend to apply instruction to the current text. The
// result replaces the text through EditText.
func (d *Drafter) Refine(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return ErrEmptyInput
	}
	snap := d.state.Snapshot()
	switch snap.Stage {
	case StageGenerate, StageEdit, StageValidate, StageExport:
	default:
		return transitionError("refine", snap.Stage)
	}
	d.state.AppendTurn(RoleUser, instruction)

	resp, err := d.client.Refine(ctx, backend.RefineRequest{
		CurrentDocument: snap.DocumentText,
		Instruction:     instruction,
		DocumentType:    snap.DocumentType,
	})
	if err != nil {
		log.Printf("workspace: refine failed: %v", err)
		return d.fail(err)
	}
	if err := d.state.EditText(resp.RefinedDocument); err != nil {
		return err
	}
	d.state.AppendTurn(RoleAssistant, "Updated the document: "+instruction)
	return nil
}

// Validate requests a compliance review of the current text. A result that
// arrives after the text was edited is dropped with ErrStaleValidation.
func (d *Drafter) Validate(ctx context.Context) error {
	snap := d.state.Snapshot()
	if snap.Stage != StageEdit && snap.Stage != StageValidate {
		return transitionError("validate", snap.Stage)
	}
	if strings.TrimSpace(snap.DocumentText) == "" {
		return ErrNoDocument
	}

	resp, err := d.client.Validate(ctx, backend.ValidateRequest{
		Content:      snap.DocumentText,
		DocumentType: snap.DocumentType,
		Jurisdiction: d.jurisdiction,
	})
	if err != nil {
		log.Printf("workspace: validate failed: %v", err)
		return d.fail(err)
	}

	issues := make([]Issue, 0, len(resp.Validation.Issues))
	for _, i := range resp.Validation.Issues {
		issues = append(issues, Issue{
			Severity:        i.Severity,
			Description:     i.Issue,
			ClauseReference: i.ClauseReference,
			Recommendation:  i.Recommendation,
		})
	}
	res := ValidationResult{
		DocumentText:    snap.DocumentText,
		Status:          ValidationStatus(resp.OverallStatus),
		ComplianceScore: resp.ComplianceScore,
		Issues:          issues,
	}
	if err := d.state.ApplyValidation(res); err != nil {
		return err
	}

	summary := fmt.Sprintf("Validation complete: %s", displayStatus(res.Status))
	if score := d.state.ComplianceScore(); score != nil {
		summary += fmt.Sprintf(", score %d/100", *score)
	}
	summary += fmt.Sprintf(", %d issue(s).", len(issues))
	d.state.AppendTurn(RoleAssistant, summary)
	return nil
}

// Export renders the document in format and writes the file into w. An
// empty format means DefaultExportFormat. The returned Filename is always a
// bare file name: the server's suggestion stripped of any directory, or
// title.format when the server sent none.
func (d *Drafter) Export(ctx context.Context, format string, w io.Writer) (*backend.ExportResult, error) {
	if format == "" {
		format = DefaultExportFormat
	}
	snap := d.state.Snapshot()
	switch snap.Stage {
	case StageEdit, StageValidate, StageExport:
	default:
		return nil, transitionError("export", snap.Stage)
	}
	if strings.TrimSpace(snap.DocumentText) == "" {
		return nil, ErrNoDocument
	}

	title := snap.Title
	if title == "" {
		title = "Legal_Document"
	}
	res, err := d.client.Export(ctx, backend.ExportRequest{
		Content: snap.DocumentText,
		Format:  format,
		Title:   title,
	}, w)
	if err != nil {
		log.Printf("workspace: export failed: %v", err)
		return nil, d.fail(err)
	}
	if err := d.state.MarkExported(); err != nil {
		return nil, err
	}

	res.Filename = exportName(res.Filename, title, format)
	d.state.AppendTurn(RoleAssistant, fmt.Sprintf("Exported %s (%d bytes).", res.Filename, res.Bytes))
	return res, nil
}

func exportName(suggested, title, format string) string {
	name := filepath.Base(filepath.FromSlash(strings.ReplaceAll(suggested, `\`, "/")))
	switch name {
	case ".", "..", string(filepath.Separator):
		name = filepath.Base(title + "." + format)
	}
	return name
}

// FixIssue asks the backend to resolve issue index (1-based, in review
// order) of the last validation. The fixed text replaces the document
// through EditText, so the workspace returns to edit and the verdict is
// dropped.
func (d *Drafter) FixIssue(ctx context.Context, index int) error {
	snap := d.state.Snapshot()
	if snap.Stage != StageValidate {
		return transitionError("fix issue", snap.Stage)
	}
	if index < 1 || index > len(snap.Issues) {
		return fmt.Errorf("%w: %d of %d", ErrNoIssue, index, len(snap.Issues))
	}
	issue := snap.Issues[index-1]
	d.state.AppendTurn(RoleUser, "Fix issue "+strconv.Itoa(index)+": "+issue.Description)

	resp, err := d.client.FixIssue(ctx, backend.FixIssueRequest{
		DocumentHTML: snap.DocumentText,
		Issue:        toBackendIssue(issue),
	})
	if err != nil {
		log.Printf("workspace: fix issue failed: %v", err)
		return d.fail(err)
	}
	return d.applyFix(snap.DocumentText, resp.FixedDocument, "Fixed: "+issue.Description)
}

// FixAll asks the backend to resolve every issue of the last validation at
// once.
func (d *Drafter) FixAll(ctx context.Context) error {
	snap := d.state.Snapshot()
	if snap.Stage != StageValidate {
		return transitionError("fix issues", snap.Stage)
	}
	if len(snap.Issues) == 0 {
		return fmt.Errorf("%w: the review reported none", ErrNoIssue)
	}
	d.state.AppendTurn(RoleUser, "Fix all issues")

	issues := make([]backend.ValidationIssue, 0, len(snap.Issues))
	for _, i := range snap.Issues {
		issues = append(issues, toBackendIssue(i))
	}
	resp, err := d.client.FixAllIssues(ctx, backend.FixAllIssuesRequest{
		DocumentHTML: snap.DocumentText,
		Issues:       issues,
	})
	if err != nil {
		log.Printf("workspace: fix all failed: %v", err)
		return d.fail(err)
	}
	n := resp.IssuesFixed
	if n == 0 {
		n = len(issues)
	}
	return d.applyFix(snap.DocumentText, resp.FixedDocument, fmt.Sprintf("Fixed %d issue(s). Validate again to confirm.", n))
}

// applyFix installs fixed unless the text changed while the request was in
// flight.
func (d *Drafter) applyFix(sent, fixed, reply string) error {
	if strings.TrimSpace(fixed) == "" {
		d.state.AppendTurn(RoleAssistant, fallbackTurn)
		return fmt.Errorf("%w: empty fixed document", backend.ErrServerRejected)
	}
	if d.state.Text() != sent {
		return ErrStaleValidation
	}
	if err := d.state.EditText(fixed); err != nil {
		return err
	}
	d.state.AppendTurn(RoleAssistant, reply)
	return nil
}

func toBackendIssue(i Issue) backend.ValidationIssue {
	return backend.ValidationIssue{
		Severity:        i.Severity,
		Issue:           i.Description,
		ClauseReference: i.ClauseReference,
		Recommendation:  i.Recommendation,
	}
}

// Ask answers a question about the current draft. The document is not
// changed and the stage stays where it is.
func (d *Drafter) Ask(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyInput
	}
	snap := d.state.Snapshot()
	if snap.Stage == StageDescribe || strings.TrimSpace(snap.DocumentText) == "" {
		return "", ErrNoDocument
	}
	d.state.AppendTurn(RoleUser, question)

	resp, err := d.client.QueryDocument(ctx, backend.DocumentQueryRequest{
		UserQuery:       question,
		DocumentContent: snap.DocumentText,
		DocumentType:    snap.DocumentType,
		QueryType:       backend.QueryGeneral,
		SessionID:       sessionID,
	})
	if err != nil {
		log.Printf("workspace: document query failed: %v", err)
		return "", d.fail(err)
	}
	d.state.AppendTurn(RoleAssistant, resp.Response)
	return resp.Response, nil
}

func displayType(t string) string {
	if t == "" {
		return "document"
	}
	return strings.ReplaceAll(t, "_", " ")
}

func displayStatus(s ValidationStatus) string {
	if s == "" {
		return string(StatusError)
	}
	return strings.ReplaceAll(string(s), "_", " ")
}
