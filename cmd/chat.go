package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/config"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
	"github.com/ziadkadry99/lexdraft/internal/progress"
	"github.com/ziadkadry99/lexdraft/internal/transcript"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask legal questions and analyze an attached document",
	Long: `Starts an interactive research session. Plain lines are questions; they go to
the legal knowledge base, or to the attached document once one is uploaded.

Commands:
  /upload <file>   attach a PDF or Word document
  /summarize       summarize the attached document
  /clauses         extract its key clauses
  /risks           assess its legal risks
  /detach          drop the attached document
  /clear           start a new conversation
  /transcript      save the conversation as HTML
  /quit            leave`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess := conversation.NewSession(newClient(cfg), conversation.WithResultCount(cfg.ResultCount))
	seen := 0

	fmt.Printf("lexdraft chat (backend %s). Type /quit to leave.\n\n", cfg.BaseURL)

	for {
		line, err := readLine("you")
		if err == errQuit {
			break
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		if err := chatCommand(ctx, cfg, sess, line); err == errQuit {
			break
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		seen = printMessages(sess.Messages(), seen)
	}

	// Release the server-side document before leaving.
	sess.Detach(context.WithoutCancel(ctx))
	return nil
}

// chatCommand handles one REPL line. Outcomes the session records as
// messages are printed by the caller, so errors here are only the ones the
// session returns without a message.
func chatCommand(ctx context.Context, cfg *config.Config, sess *conversation.Session, line string) error {
	name, arg := splitCommand(line)
	switch name {
	case "":
		return sess.Send(ctx, arg)
	case "quit", "exit":
		return errQuit
	case "upload":
		if arg == "" {
			return fmt.Errorf("usage: /upload <file>")
		}
		return uploadFile(ctx, sess, arg)
	case "detach":
		sess.Detach(ctx)
		return nil
	case "clear":
		sess.Clear(ctx)
		fmt.Println("Conversation cleared.")
		return nil
	case "transcript":
		path, err := transcript.Write(cfg.TranscriptDir, "Legal research", transcript.FromSession(sess.Messages()))
		if err != nil {
			return err
		}
		fmt.Printf("Transcript written to %s\n", path)
		return nil
	}

	action, ok := conversation.ParseAction(name)
	if !ok {
		return fmt.Errorf("unknown command /%s", name)
	}
	// RunAction records failures as messages too.
	_ = sess.RunAction(ctx, action)
	return nil
}

// uploadFile attaches the file at path, showing upload progress. Attach
// records its own outcome as a message, so only local failures to read the
// file are returned.
func uploadFile(ctx context.Context, sess *conversation.Session, path string) error {
	up := conversation.Upload{Filename: filepath.Base(path)}
	if conversation.CheckFormat(path) != nil {
		// Let the session reject it so the refusal lands in the conversation.
		_ = sess.Attach(ctx, up)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	up.Body = progress.NewReader(f, progress.NewReporter(true), info.Size(), "Uploading "+up.Filename)
	_ = sess.Attach(ctx, up)
	return nil
}

// printMessages prints messages from index seen onward, skipping the user's
// own turns, and returns the new count.
func printMessages(msgs []conversation.Message, seen int) int {
	if seen > len(msgs) {
		// The conversation was cleared.
		seen = 0
	}
	for _, m := range msgs[seen:] {
		if m.Role == conversation.RoleUser {
			continue
		}
		fmt.Printf("\n%s\n", strings.TrimSpace(m.Content))
		if len(m.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range m.Sources {
				fmt.Printf("  - %s (%s)\n", src.Name, src.Percent())
			}
		}
		fmt.Println()
	}
	return len(msgs)
}
