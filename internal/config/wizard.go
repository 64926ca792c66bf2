package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to lexdraft! Let's point it at your drafting backend.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend URL.
	urlPrompt := promptui.Prompt{
		Label:    "Backend base URL",
		Default:  cfg.BaseURL,
		Validate: validateURL,
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	// 2. Jurisdiction.
	jurisdictionPrompt := promptui.Select{
		Label: "Jurisdiction used for compliance checks",
		Items: Jurisdictions,
	}
	_, cfg.Jurisdiction, err = jurisdictionPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("jurisdiction selection: %w", err)
	}

	// 3. Export format.
	formatPrompt := promptui.Select{
		Label: "Default export format",
		Items: []string{
			"docx - Word document",
			"pdf  - portable document",
			"txt  - plain text",
		},
	}
	formatIdx, _, err := formatPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("format selection: %w", err)
	}
	cfg.ExportFormat = []ExportFormat{FormatDOCX, FormatPDF, FormatTXT}[formatIdx]

	// 4. Sources per answer.
	countPrompt := promptui.Prompt{
		Label:    "Reference passages per answer",
		Default:  strconv.Itoa(cfg.ResultCount),
		Validate: validatePositive,
	}
	countStr, err := countPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("result count: %w", err)
	}
	cfg.ResultCount, _ = strconv.Atoi(strings.TrimSpace(countStr))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
