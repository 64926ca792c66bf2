package config

import "time"

// ExportFormat is a file format the backend can render a document into.
type ExportFormat string

const (
	FormatDOCX ExportFormat = "docx"
	FormatPDF  ExportFormat = "pdf"
	FormatTXT  ExportFormat = "txt"
)

// Config is the top-level lexdraft configuration, corresponding to .lexdraft.yml.
type Config struct {
	BaseURL               string       `yaml:"base_url" koanf:"base_url"`
	ResultCount           int          `yaml:"result_count" koanf:"result_count"`
	ClauseTopK            int          `yaml:"clause_top_k" koanf:"clause_top_k"`
	Jurisdiction          string       `yaml:"jurisdiction" koanf:"jurisdiction"`
	ExportFormat          ExportFormat `yaml:"export_format" koanf:"export_format"`
	RequestTimeoutSeconds int          `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	TranscriptDir         string       `yaml:"transcript_dir" koanf:"transcript_dir"`
	Shell                 ShellConfig  `yaml:"shell" koanf:"shell"`
}

// ShellConfig holds settings for the browser shell served by lexdraft serve.
type ShellConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// RequestTimeout returns the per-request bound applied to every backend call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
