package walker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// writeTree creates files under a temp dir. Contents default to the path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if content == "" {
			content = "%PDF " + rel
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	sort.Strings(out)
	return out
}

func TestWalk_AcceptedExtensionsOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"nda.pdf":              "",
		"contracts/lease.docx": "",
		"contracts/old.DOC":    "",
		"notes.txt":            "",
		"contracts/scan.png":   "",
	})

	res, err := Walk(WalkerConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(res.Files)
	want := []string{"contracts/lease.docx", "contracts/old.DOC", "nda.pdf"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("expected 2 skipped (txt, png), got %+v", res.Skipped)
	}
}

func TestWalk_FileInfoFields(t *testing.T) {
	root := writeTree(t, map[string]string{"nda.pdf": "%PDF-1.7 body"})

	res, err := Walk(WalkerConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(res.Files))
	}
	f := res.Files[0]
	if !filepath.IsAbs(f.Path) {
		t.Errorf("Path %q is not absolute", f.Path)
	}
	if f.Size != int64(len("%PDF-1.7 body")) {
		t.Errorf("Size = %d", f.Size)
	}
	if len(f.ContentHash) != 64 {
		t.Errorf("ContentHash length = %d, want 64", len(f.ContentHash))
	}
}

func TestWalk_IncludeExclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"clients/acme/nda.pdf":    "",
		"clients/acme/msa.docx":   "",
		"clients/globex/nda.pdf":  "",
		"templates/blank_nda.pdf": "",
	})

	res, err := Walk(WalkerConfig{
		RootDir: root,
		Include: []string{"clients/**/*.pdf"},
		Exclude: []string{"clients/globex/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	got := relPaths(res.Files)
	if len(got) != 1 || got[0] != "clients/acme/nda.pdf" {
		t.Errorf("files = %v", got)
	}
}

func TestWalk_DuplicatesAndEmpty(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/nda.pdf":      "same bytes",
		"b/nda_copy.pdf": "same bytes",
		"c/blank.pdf":    "",
	})
	// writeTree fills empty contents; truncate blank.pdf explicitly.
	if err := os.WriteFile(filepath.Join(root, "c", "blank.pdf"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Walk(WalkerConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file after dedupe, got %v", relPaths(res.Files))
	}

	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.RelPath] = s.Reason
	}
	if reasons["c/blank.pdf"] != "empty file" {
		t.Errorf("blank.pdf reason = %q", reasons["c/blank.pdf"])
	}
	if !strings.HasPrefix(reasons["b/nda_copy.pdf"], "duplicate of a/nda.pdf") {
		t.Errorf("duplicate reason = %q", reasons["b/nda_copy.pdf"])
	}
}

func TestWalk_MaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{"big.pdf": strings.Repeat("x", 100)})

	res, err := Walk(WalkerConfig{RootDir: root, MaxFileSize: 10})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(res.Files) != 0 || len(res.Skipped) != 1 {
		t.Errorf("expected big.pdf skipped, got files=%v skipped=%+v", relPaths(res.Files), res.Skipped)
	}
}

func TestWalk_DefaultExcludesAndLockFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"nda.pdf":                  "",
		"~$nda.docx":               "",
		".git/objects/x.pdf":       "",
		"transcripts/old.pdf":      "",
		"__MACOSX/contract.pdf":    "",
		"node_modules/pkg/doc.pdf": "",
	})

	res, err := Walk(WalkerConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := relPaths(res.Files); len(got) != 1 || got[0] != "nda.pdf" {
		t.Errorf("files = %v", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":         "drafts/\n# comment\n*_private.pdf\n",
		"nda.pdf":            "",
		"drafts/v1.pdf":      "",
		"board_private.pdf":  "",
		"archive/drafts.pdf": "",
	})

	res, err := Walk(WalkerConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	got := relPaths(res.Files)
	want := []string{"archive/drafts.pdf", "nda.pdf"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestMatchesIncludeCaseInsensitive(t *testing.T) {
	if !MatchesInclude("Contracts/NDA.PDF", []string{"contracts/*.pdf"}) {
		t.Error("expected case-insensitive match")
	}
	if !MatchesInclude("deep/path/nda.pdf", []string{"*.pdf"}) {
		t.Error("expected basename match")
	}
	if MatchesInclude("nda.docx", []string{"*.pdf"}) {
		t.Error("unexpected match")
	}
	if !MatchesInclude("anything", nil) {
		t.Error("empty include should match everything")
	}
}
