package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during uploads and batch analysis.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64, message string)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set. bytes selects byte
// units for the terminal bar.
func NewReporter(bytes bool) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Bytes: bytes}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	Bytes bool

	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int64, description string) {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	}
	if r.Bytes {
		opts = append(opts, progressbar.OptionShowBytes(true))
	} else {
		opts = append(opts, progressbar.OptionShowCount())
	}
	r.bar = progressbar.NewOptions64(total, opts...)
}

func (r *TerminalReporter) Update(current int64, message string) {
	if r.bar != nil {
		if message != "" {
			r.bar.Describe(message)
		}
		_ = r.bar.Set64(current)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out io.Writer

	total       int64
	description string
}

func (r *CIReporter) out() io.Writer {
	if r.Out == nil {
		return os.Stderr
	}
	return r.Out
}

func (r *CIReporter) Start(total int64, description string) {
	r.total = total
	r.description = description
	fmt.Fprintf(r.out(), "%s: starting (%d total)\n", description, total)
}

func (r *CIReporter) Update(current int64, message string) {
	fmt.Fprintf(r.out(), "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.out(), "%s: done\n", r.description)
}
