// Package corpus loads the raw legal documents that feed the index build.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"legal-rag/internal/contextutil"
)

// Document is one input document.
type Document struct {
	Source string // File name without extension
	Path   string // Path the document was read from
	Text   string // Plain text content
	Hash   string // SHA256 hex of the file bytes
}

// File is a document found during scanning.
type File struct {
	Source string
	Path   string
}

// Loader reads .txt and .md documents from a directory tree.
type Loader struct {
	markdown *MarkdownConverter
}

// NewLoader creates a new loader.
func NewLoader() *Loader {
	return &Loader{markdown: NewMarkdownConverter()}
}

// Supported reports whether path has a document extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// SourceName returns the document source for path: its base name without extension.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Scan walks dir in lexical order and returns every supported file. Hidden
// directories are skipped. Two files with the same source name are an error.
func (l *Loader) Scan(ctx context.Context, dir string) ([]File, error) {
	var files []File
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(path) {
			return nil
		}

		source := SourceName(path)
		if prev, ok := seen[source]; ok {
			return fmt.Errorf("duplicate source %q: %s and %s", source, prev, path)
		}
		seen[source] = path

		files = append(files, File{Source: source, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	return files, nil
}

// Load reads a single document. Markdown is reduced to plain text; the hash
// always covers the raw file bytes.
func (l *Loader) Load(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	sum := sha256.Sum256(content)

	text := string(content)
	if strings.EqualFold(filepath.Ext(path), ".md") {
		text = l.markdown.Convert(content)
	}

	return Document{
		Source: SourceName(path),
		Path:   path,
		Text:   text,
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}

// LoadAll scans dir and loads every document found.
func (l *Loader) LoadAll(ctx context.Context, dir string) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := l.Scan(ctx, dir)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := l.Load(f.Path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	logger.InfoContext(ctx, "loaded corpus", "dir", dir, "documents", len(docs))
	return docs, nil
}
