// Package walker finds legal documents on disk for batch analysis.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/lexdraft/internal/conversation"
)

// DefaultMaxFileSize is the largest document uploaded (25 MB).
const DefaultMaxFileSize int64 = 25 << 20

// FileInfo holds metadata about a single document discovered during traversal.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the root directory.
	Size        int64  // File size in bytes.
	ContentHash string // SHA-256 hex digest of the file content.
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns; only matching files are included.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Skipped describes a candidate that matched the patterns but was not
// returned, with the reason.
type Skipped struct {
	RelPath string
	Reason  string
}

// Result is the outcome of a walk.
type Result struct {
	Files   []FileInfo
	Skipped []Skipped
}

// Walk traverses the directory tree rooted at config.RootDir and returns
// every document with an accepted extension that passes filtering. Files
// with identical content are returned once. It honours .gitignore files.
func Walk(config WalkerConfig) (*Result, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	// Load .gitignore patterns from root if present.
	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	res := &Result{}
	seen := make(map[string]string)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		name := d.Name()

		// Skip default-excluded directories.
		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		// Only process regular files.
		if !d.Type().IsRegular() || isLockFile(name) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) || MatchesExclude(relPath, config.Exclude) {
			return nil
		}
		if conversation.CheckFormat(name) != nil {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: "unsupported format"})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() == 0 {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: "empty file"})
			return nil
		}
		if info.Size() > maxSize {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: fmt.Sprintf("larger than %d bytes", maxSize)})
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: err.Error()})
			return nil
		}
		if first, dup := seen[hash]; dup {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: "duplicate of " + first})
			return nil
		}
		seen[hash] = relPath

		res.Files = append(res.Files, FileInfo{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			ContentHash: hash,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	return res, nil
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative path matches any gitignore pattern.
func matchesGitignore(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			// Anchored pattern: match against the full relative path.
			if matched, _ := filepath.Match(strings.TrimPrefix(pattern, "/"), relPath); matched {
				return true
			}
			continue
		}

		// Unanchored: any directory component, or the basename for file patterns.
		parts := strings.Split(relPath, "/")
		for i, part := range parts {
			isDir := i < len(parts)-1
			if dirOnly && !isDir {
				continue
			}
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}
