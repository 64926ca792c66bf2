package cmd

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/lexdraft/internal/backend"
	"github.com/ziadkadry99/lexdraft/internal/config"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lexdraft init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newClient creates a backend client from config.
func newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.BaseURL, cfg.RequestTimeout())
}

// errQuit ends a REPL loop.
var errQuit = errors.New("quit")

// readLine prompts for one REPL line. Ctrl-C and Ctrl-D both end the loop.
func readLine(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	line, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", errQuit
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// splitCommand splits "/upload contract.pdf" into ("upload", "contract.pdf").
// Lines that are not slash commands return an empty name.
func splitCommand(line string) (name, arg string) {
	if !strings.HasPrefix(line, "/") {
		return "", line
	}
	name, arg, _ = strings.Cut(line[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
