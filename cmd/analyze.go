package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/config"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
	"github.com/ziadkadry99/lexdraft/internal/progress"
	"github.com/ziadkadry99/lexdraft/internal/transcript"
	"github.com/ziadkadry99/lexdraft/internal/walker"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <glob|dir>",
	Short: "Run a document analysis over every matching PDF or Word file",
	Long: `Finds documents matching a glob such as "contracts/**/*.pdf" (or every document
under a directory), uploads each one, runs the analysis action and prints the
result. Identical files are analyzed once.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("action", string(conversation.ActionSummarize), "analysis to run: summarize, clauses or risks")
	analyzeCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	analyzeCmd.Flags().Int64("max-size", walker.DefaultMaxFileSize>>20, "skip files larger than this many MB")
	analyzeCmd.Flags().Bool("transcript", false, "also save each analysis as an HTML transcript")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	actionName, _ := cmd.Flags().GetString("action")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	maxSizeMB, _ := cmd.Flags().GetInt64("max-size")
	writeTranscripts, _ := cmd.Flags().GetBool("transcript")

	action, ok := conversation.ParseAction(actionName)
	if !ok {
		return fmt.Errorf("unknown action %q (want summarize, clauses or risks)", actionName)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, include, err := splitGlob(args[0])
	if err != nil {
		return err
	}

	res, err := walker.Walk(walker.WalkerConfig{
		RootDir:     root,
		Include:     include,
		Exclude:     exclude,
		MaxFileSize: maxSizeMB << 20,
	})
	if err != nil {
		return err
	}
	if verbose {
		for _, s := range res.Skipped {
			fmt.Fprintf(os.Stderr, "skip %s: %s\n", s.RelPath, s.Reason)
		}
	}
	if len(res.Files) == 0 {
		fmt.Println("No documents matched.")
		return nil
	}

	ctx := cmd.Context()
	client := newClient(cfg)
	reporter := progress.NewReporter(false)
	reporter.Start(int64(len(res.Files)), fmt.Sprintf("Analyzing (%s)", action))

	type outcome struct {
		file   walker.FileInfo
		result string
		err    error
	}
	var outcomes []outcome
	for i, f := range res.Files {
		sess := conversation.NewSession(client, conversation.WithResultCount(cfg.ResultCount))
		result, err := analyzeFile(ctx, sess, f, action)
		if err == nil && writeTranscripts {
			err = saveAnalysis(cfg, f, sess)
		}
		outcomes = append(outcomes, outcome{file: f, result: result, err: err})
		reporter.Update(int64(i+1), f.RelPath)
	}
	reporter.Finish()

	failed := 0
	for _, o := range outcomes {
		fmt.Printf("\n=== %s ===\n", o.file.RelPath)
		if o.err != nil {
			failed++
			fmt.Printf("failed: %v\n", o.err)
			continue
		}
		fmt.Println(strings.TrimSpace(o.result))
	}

	fmt.Printf("\nAnalyzed %d document(s), %d failed, %d skipped.\n", len(outcomes)-failed, failed, len(res.Skipped))
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed", failed)
	}
	return nil
}

// analyzeFile attaches one document to a fresh session, runs action and
// returns the analysis text. The server-side document is always released.
func analyzeFile(ctx context.Context, sess *conversation.Session, f walker.FileInfo, action conversation.Action) (string, error) {
	body, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := sess.Attach(ctx, conversation.Upload{Filename: filepath.Base(f.Path), Body: body}); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer sess.Detach(context.WithoutCancel(ctx))

	if err := sess.RunAction(ctx, action); err != nil {
		return "", err
	}
	msgs := sess.Messages()
	return msgs[len(msgs)-1].Content, nil
}

func saveAnalysis(cfg *config.Config, f walker.FileInfo, sess *conversation.Session) error {
	path, err := transcript.Write(cfg.TranscriptDir, f.RelPath, transcript.FromSession(sess.Messages()))
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	fmt.Fprintf(os.Stderr, "transcript for %s: %s\n", f.RelPath, path)
	return nil
}

// splitGlob turns the command argument into a walk root and include
// patterns. A directory is walked whole.
func splitGlob(arg string) (root string, include []string, err error) {
	if info, statErr := os.Stat(arg); statErr == nil && info.IsDir() {
		return arg, nil, nil
	}

	pattern := filepath.ToSlash(arg)
	if !doublestar.ValidatePattern(pattern) {
		return "", nil, fmt.Errorf("invalid glob %q", arg)
	}
	base, rest := doublestar.SplitPattern(pattern)
	return filepath.FromSlash(base), []string{rest}, nil
}
