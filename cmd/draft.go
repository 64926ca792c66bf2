package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/config"
	"github.com/ziadkadry99/lexdraft/internal/transcript"
	"github.com/ziadkadry99/lexdraft/internal/workspace"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft, refine, validate and export a legal document",
	Long: `Starts an interactive drafting workspace. Describe the document you need in
plain language; once it is generated, plain lines are refinement instructions.

Commands:
  /show              print the current document
  /edit <file>       replace the document with the contents of a file
  /field name=value  fill in a missing field
  /title <title>     set the export title
  /validate          run a compliance review
  /fix <n>           let the backend resolve issue n of the last review
  /fixall            let the backend resolve every issue of the last review
  /ask <question>    ask about the draft without changing it
  /export [file]     export (format from the file extension or config)
  /status            show stage, fields and the last review
  /reset             start over
  /transcript        save the drafting conversation as HTML
  /quit              leave`,
	RunE: runDraft,
}

func init() {
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	d := workspace.NewDrafter(newClient(cfg), workspace.New(), cfg.Jurisdiction)
	sessionID := uuid.NewString()
	seen := 0

	fmt.Printf("lexdraft draft (%s jurisdiction). Describe the document you need, or /quit.\n\n", cfg.Jurisdiction)

	for {
		line, err := readLine(string(d.State().Stage()))
		if err == errQuit {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		if err := draftCommand(ctx, cfg, d, sessionID, line); err == errQuit {
			return nil
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		seen = printTurns(d.State().Snapshot().Turns, seen)
	}
}

func draftCommand(ctx context.Context, cfg *config.Config, d *workspace.Drafter, sessionID, line string) error {
	state := d.State()
	name, arg := splitCommand(line)

	switch name {
	case "":
		if state.Stage() == workspace.StageDescribe {
			return d.Generate(ctx, arg)
		}
		return d.Refine(ctx, arg)
	case "quit", "exit":
		return errQuit
	case "show":
		if state.Text() == "" {
			fmt.Println("No document yet.")
			return nil
		}
		fmt.Printf("\n%s\n\n", state.Text())
		return nil
	case "edit":
		if arg == "" {
			return fmt.Errorf("usage: /edit <file>")
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("reading %s: %w", arg, err)
		}
		if err := state.EditText(string(data)); err != nil {
			return err
		}
		fmt.Printf("Document replaced with %s (%d bytes).\n", arg, len(data))
		return nil
	case "field":
		field, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return fmt.Errorf("usage: /field name=value")
		}
		return state.FillField(strings.TrimSpace(field), strings.TrimSpace(value))
	case "title":
		state.SetTitle(arg)
		return nil
	case "validate":
		return d.Validate(ctx)
	case "fix":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("usage: /fix <issue number>")
		}
		return d.FixIssue(ctx, n)
	case "fixall":
		return d.FixAll(ctx)
	case "ask":
		if arg == "" {
			return fmt.Errorf("usage: /ask <question>")
		}
		// The answer is printed with the other new turns.
		_, err := d.Ask(ctx, sessionID, arg)
		return err
	case "export":
		return exportDraft(ctx, cfg, d, arg)
	case "status":
		printStatus(state.Snapshot())
		return nil
	case "reset":
		state.Reset()
		fmt.Println("Workspace reset.")
		return nil
	case "transcript":
		path, err := transcript.Write(cfg.TranscriptDir, "Drafting session", transcript.FromDraft(state.Snapshot()))
		if err != nil {
			return err
		}
		fmt.Printf("Transcript written to %s\n", path)
		return nil
	}
	return fmt.Errorf("unknown command /%s", name)
}

// exportDraft exports into path, or into the export's file name in the
// working directory when path is empty. The format follows path's extension
// when it has one.
func exportDraft(ctx context.Context, cfg *config.Config, d *workspace.Drafter, path string) error {
	format := string(cfg.ExportFormat)
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext != "" {
		format = ext
	}

	var buf bytes.Buffer
	res, err := d.Export(ctx, format, &buf)
	if err != nil {
		return err
	}
	if path == "" {
		path = res.Filename
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}

func printTurns(turns []workspace.Turn, seen int) int {
	if seen > len(turns) {
		// The workspace was reset.
		seen = 0
	}
	for _, t := range turns[seen:] {
		if t.Role == workspace.RoleUser {
			continue
		}
		fmt.Printf("\n%s\n\n", t.Content)
	}
	return len(turns)
}

func printStatus(snap workspace.Snapshot) {
	fmt.Printf("Stage: %s\n", snap.Stage)
	if snap.DocumentType != "" {
		fmt.Printf("Type:  %s\n", snap.DocumentType)
	}
	if snap.Title != "" {
		fmt.Printf("Title: %s\n", snap.Title)
	}

	if len(snap.ExtractedFields) > 0 {
		names := make([]string, 0, len(snap.ExtractedFields))
		for k := range snap.ExtractedFields {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Println("Fields:")
		for _, k := range names {
			fmt.Printf("  %s = %s\n", k, snap.ExtractedFields[k])
		}
	}
	if len(snap.MissingFields) > 0 {
		fmt.Printf("Missing: %s\n", strings.Join(snap.MissingFields, ", "))
	}

	if snap.ValidationStatus != nil {
		fmt.Printf("Review: %s", *snap.ValidationStatus)
		if snap.ComplianceScore != nil {
			fmt.Printf(" (%d/100)", *snap.ComplianceScore)
		}
		fmt.Println()
		for i, issue := range snap.Issues {
			fmt.Printf("  %d. [%s] %s\n", i+1, issue.Severity, issue.Description)
			if issue.Recommendation != "" {
				fmt.Printf("        -> %s\n", issue.Recommendation)
			}
		}
	}
}
