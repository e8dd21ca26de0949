// Package loader reads a folder of mixed-format documents and produces raw text
// blobs for chunking and embedding.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docchat/docchat/internal/extract"
	"go.uber.org/zap"
)

// DefaultMaxChars caps the total extracted character count per load. Once
// appending another blob would exceed it, loading stops early and returns what
// has been accumulated. A cost and memory guard, not an error.
const DefaultMaxChars = 1_000_000

// Blob is one extracted text unit with an opaque source reference
// (file path or URL).
type Blob struct {
	Source string
	Text   string
}

// Loader walks a documents folder and extracts text per file extension.
// Lines inside .txt files that reference remote .pdf/.docx resources are fetched
// through temporary files which are always removed afterwards.
type Loader struct {
	extractor *extract.Extractor
	maxChars  int
	client    *http.Client
	logger    *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithMaxChars overrides the extracted-character ceiling.
func WithMaxChars(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxChars = n
		}
	}
}

// WithHTTPClient overrides the client used to fetch remote document references.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithLogger sets a logger for skip diagnostics and fetch events.
func WithLogger(lg *zap.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// New creates a Loader with the given extractor.
func New(extractor *extract.Extractor, opts ...Option) *Loader {
	l := &Loader{
		extractor: extractor,
		maxChars:  DefaultMaxChars,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDir extracts text from every regular file in folder, in name order.
// Unsupported extensions are skipped with a diagnostic; blobs that are empty
// after trimming are dropped. Returns early once the character ceiling is hit.
func (l *Loader) LoadDir(ctx context.Context, folder string) ([]Blob, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read docs folder: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var blobs []Blob
	total := 0
	appendBlob := func(source, text string) bool {
		text = strings.TrimSpace(text)
		if text == "" {
			return true
		}
		if total+len(text) > l.maxChars {
			l.logger.Info("character ceiling reached, stopping load",
				zap.Int("total", total), zap.Int("max_chars", l.maxChars))
			return false
		}
		total += len(text)
		blobs = append(blobs, Blob{Source: source, Text: text})
		return true
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))

		if ext == ".txt" {
			ok, err := l.loadTextFile(ctx, path, appendBlob)
			if err != nil {
				return nil, err
			}
			if !ok {
				return blobs, nil
			}
			continue
		}
		if !l.extractor.Supported(ext) {
			l.logger.Info("skipping unsupported file", zap.String("file", entry.Name()))
			continue
		}
		text, err := l.extractor.Extract(path)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", entry.Name(), err)
		}
		if !appendBlob(path, text) {
			return blobs, nil
		}
	}
	return blobs, nil
}

// loadTextFile reads a .txt file line by line. Lines that look like remote
// .pdf/.docx URLs are resolved into their own blobs; the remaining inline lines
// form one blob emitted last. Returns false when the character ceiling was hit.
func (l *Loader) loadTextFile(ctx context.Context, path string, appendBlob func(source, text string) bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	var inline strings.Builder
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if isRemoteDocURL(trimmed) {
			text, err := l.fetchRemote(ctx, trimmed)
			if err != nil {
				return false, fmt.Errorf("fetch %s: %w", trimmed, err)
			}
			if !appendBlob(trimmed, text) {
				return false, nil
			}
			continue
		}
		inline.WriteString(line)
		inline.WriteByte('\n')
	}
	return appendBlob(path, inline.String()), nil
}

// isRemoteDocURL reports whether line is an http(s) URL referencing a document
// format we can extract remotely.
func isRemoteDocURL(line string) bool {
	if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
		return false
	}
	lower := strings.ToLower(line)
	return strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".docx")
}

// fetchRemote downloads url to a temporary file, extracts its text by extension,
// and removes the temporary copy.
func (l *Loader) fetchRemote(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	ext := strings.ToLower(filepath.Ext(url))
	tmp, err := os.CreateTemp("", "docchat-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	l.logger.Debug("fetched remote document", zap.String("url", url))
	return l.extractor.Extract(tmp.Name())
}
