// Package transcript renders chat and drafting dialogues to standalone HTML.
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/lexdraft/internal/conversation"
	"github.com/ziadkadry99/lexdraft/internal/workspace"
)

// Source is a reference passage shown under an entry.
type Source struct {
	Name    string
	Percent string
}

// Entry is one rendered turn.
type Entry struct {
	Role      string
	Content   string
	Sources   []Source
	Timestamp time.Time
}

// FromSession converts chat messages into entries, in order.
func FromSession(msgs []conversation.Message) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		e := Entry{Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp}
		for _, s := range m.Sources {
			e.Sources = append(e.Sources, Source{Name: s.Name, Percent: s.Percent()})
		}
		out = append(out, e)
	}
	return out
}

// FromDraft converts the drafting dialogue into entries and, when there is
// document text, appends it as a final entry.
func FromDraft(snap workspace.Snapshot) []Entry {
	out := make([]Entry, 0, len(snap.Turns)+1)
	for _, t := range snap.Turns {
		out = append(out, Entry{Role: t.Role, Content: t.Content, Timestamp: t.Timestamp})
	}
	if snap.DocumentText != "" {
		out = append(out, Entry{
			Role:    "document",
			Content: "```\n" + snap.DocumentText + "\n```",
		})
	}
	return out
}

// newMarkdown builds the converter. Raw HTML in messages is not passed
// through: backend text is untrusted.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

type pageEntry struct {
	Role      string
	Content   template.HTML
	Sources   []Source
	Timestamp string
}

type pageData struct {
	Title   string
	Created string
	Entries []pageEntry
}

var pageTmpl = template.Must(template.New("transcript").Parse(pageTemplate))

// Render writes a complete HTML page for entries to w.
func Render(w io.Writer, title string, entries []Entry) error {
	md := newMarkdown()

	data := pageData{
		Title:   title,
		Created: time.Now().Format(time.RFC1123),
		Entries: make([]pageEntry, 0, len(entries)),
	}
	for i, e := range entries {
		var buf bytes.Buffer
		if err := md.Convert([]byte(e.Content), &buf); err != nil {
			return fmt.Errorf("converting entry %d: %w", i, err)
		}
		pe := pageEntry{
			Role:    e.Role,
			Content: template.HTML(buf.String()),
			Sources: e.Sources,
		}
		if !e.Timestamp.IsZero() {
			pe.Timestamp = e.Timestamp.Format("15:04:05")
		}
		data.Entries = append(data.Entries, pe)
	}

	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing transcript template: %w", err)
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(title string, entries []Entry) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, title, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Write renders entries into dir under a name derived from title and the
// current time, creating dir if needed. It returns the file path.
func Write(dir, title string, entries []Entry) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating transcript dir: %w", err)
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "transcript"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.html", slug, time.Now().Format("20060102-150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Render(f, title, entries); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
