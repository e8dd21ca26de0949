// Package chunker splits raw text blobs into overlapping fixed-size segments
// suitable for embedding.
package chunker

import "fmt"

// Splitter produces ordered text chunks from a single blob. Implementations must
// guarantee that no chunk exceeds the configured maximum size and that
// concatenating chunks minus their overlap regions reconstructs the input.
type Splitter interface {
	Split(text string) []string
}

// CharacterSplitter is a fixed-size sliding-window splitter over runes.
// Consecutive chunks from the same blob share exactly overlap characters.
type CharacterSplitter struct {
	size    int
	overlap int
}

// NewCharacterSplitter creates a splitter with the given chunk size and overlap,
// both in characters. overlap must be smaller than size.
func NewCharacterSplitter(size, overlap int) (*CharacterSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d/%d", overlap, size)
	}
	return &CharacterSplitter{size: size, overlap: overlap}, nil
}

// Split returns the chunks of text in order. Empty input yields nil.
func (s *CharacterSplitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := s.size - s.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for i := 0; ; i += step {
		end := i + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end >= len(runes) {
			break
		}
	}
	return chunks
}
