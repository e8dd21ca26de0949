package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

var (
	// wpClose marks paragraph boundaries in the document XML.
	wpClose = regexp.MustCompile(`</w:p>`)
	// wtTag matches <w:t>text</w:t> including variants with attributes
	// such as xml:space="preserve".
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
)

// extractDOCX extracts paragraph text from .docx bytes. DOCX is a ZIP containing
// word/document.xml (OOXML); text nodes within a paragraph are concatenated and
// paragraphs are joined with newlines.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentXMLPath)
	}

	var paragraphs []string
	for _, para := range wpClose.Split(string(docXML), -1) {
		nodes := wtTag.FindAllStringSubmatch(para, -1)
		if len(nodes) == 0 {
			continue
		}
		var b strings.Builder
		for _, n := range nodes {
			b.WriteString(n[1])
		}
		paragraphs = append(paragraphs, b.String())
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}
