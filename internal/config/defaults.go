package config

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".lexdraft.yml"

// Jurisdictions offered by the init wizard. Any non-empty value is accepted.
var Jurisdictions = []string{"US", "UK", "EU", "CA", "AU", "IN"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               "http://localhost:5000",
		ResultCount:           5,
		ClauseTopK:            5,
		Jurisdiction:          "US",
		ExportFormat:          FormatDOCX,
		RequestTimeoutSeconds: 60,
		TranscriptDir:         "transcripts",
		Shell: ShellConfig{
			Port:            8080,
			AllowAllOrigins: false,
		},
	}
}
