package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/extract"
)

func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	xml := `<w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := f.Write([]byte(xml)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), content, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir_mixedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("plain text content"))
	writeFile(t, dir, "b.docx", buildDocx(t, "docx content"))
	writeFile(t, dir, "c.unsupported", []byte("ignored"))

	l := New(extract.NewExtractor())
	blobs, err := l.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(blobs))
	}
	if blobs[0].Text != "plain text content" {
		t.Errorf("blob 0: %q", blobs[0].Text)
	}
	if blobs[1].Text != "docx content" {
		t.Errorf("blob 1: %q", blobs[1].Text)
	}
}

func TestLoadDir_skipsEmptyBlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", []byte("   \n\t\n"))
	writeFile(t, dir, "full.txt", []byte("content"))

	l := New(extract.NewExtractor())
	blobs, err := l.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Text != "content" {
		t.Errorf("got %v", blobs)
	}
}

func TestLoadDir_characterCeiling(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte(strings.Repeat("a", 400)))
	writeFile(t, dir, "b.txt", []byte(strings.Repeat("b", 400)))
	writeFile(t, dir, "c.txt", []byte(strings.Repeat("c", 400)))

	l := New(extract.NewExtractor(), WithMaxChars(900))
	blobs, err := l.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 blobs before ceiling, got %d", len(blobs))
	}
	total := 0
	for _, b := range blobs {
		total += len(b.Text)
	}
	if total > 900 {
		t.Errorf("accumulated %d chars, ceiling 900", total)
	}
}

func TestLoadDir_remoteURLLine(t *testing.T) {
	docx := buildDocx(t, "remote document body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".docx") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(docx)
	}))
	defer srv.Close()

	dir := t.TempDir()
	content := "inline line one\n" + srv.URL + "/remote.docx\ninline line two\n"
	writeFile(t, dir, "refs.txt", []byte(content))

	l := New(extract.NewExtractor())
	blobs, err := l.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 blobs (remote + inline), got %d", len(blobs))
	}
	if blobs[0].Text != "remote document body" {
		t.Errorf("remote blob: %q", blobs[0].Text)
	}
	if !strings.Contains(blobs[1].Text, "inline line one") || !strings.Contains(blobs[1].Text, "inline line two") {
		t.Errorf("inline blob: %q", blobs[1].Text)
	}
}

func TestLoadDir_remoteFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, "refs.txt", []byte(srv.URL+"/doc.pdf\n"))

	l := New(extract.NewExtractor())
	if _, err := l.LoadDir(context.Background(), dir); err == nil {
		t.Error("expected error for failed remote fetch")
	}
}

func TestLoadDir_missingFolder(t *testing.T) {
	l := New(extract.NewExtractor())
	if _, err := l.LoadDir(context.Background(), "/nonexistent/docs"); err == nil {
		t.Error("expected error for missing folder")
	}
}

func TestIsRemoteDocURL(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"https://example.com/report.pdf", true},
		{"http://example.com/a.docx", true},
		{"https://example.com/page.html", false},
		{"just some text", false},
		{"ftp://example.com/file.pdf", false},
	}
	for _, tt := range tests {
		if got := isRemoteDocURL(tt.line); got != tt.want {
			t.Errorf("isRemoteDocURL(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
