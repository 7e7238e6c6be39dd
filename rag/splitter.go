package rag

import (
	"fmt"
	"maps"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/graphflow/graphflow/store"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 250

	// Transcripts use larger chunks.
	TranscriptChunkSize = 2000
)

// Splitter cuts documents into overlapping chunks along paragraph, line and
// word boundaries.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// SplitterOption configures a Splitter.
type SplitterOption func(*splitterOptions)

type splitterOptions struct {
	size, overlap int
}

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) SplitterOption {
	return func(o *splitterOptions) { o.size = size }
}

// WithChunkOverlap sets how many characters consecutive chunks share.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(o *splitterOptions) { o.overlap = overlap }
}

// NewSplitter creates a splitter, 1000 characters with 250 overlap by default.
func NewSplitter(opts ...SplitterOption) *Splitter {
	o := splitterOptions{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(&o)
	}
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(o.size),
			textsplitter.WithChunkOverlap(o.overlap),
		),
	}
}

// SplitText splits raw text.
func (s *Splitter) SplitText(text string) ([]string, error) {
	return s.splitter.SplitText(text)
}

// Split chunks every document in order. Chunks are numbered across all
// documents through Seq and carry the document metadata plus "document" (the
// document ID) and "offset" (the byte offset of the chunk in its document, or
// -1 when it could not be located).
func (s *Splitter) Split(docs []Document) ([]store.Chunk, error) {
	var chunks []store.Chunk
	for _, doc := range docs {
		parts, err := s.splitter.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", doc.ID, err)
		}

		from := 0
		for i, part := range parts {
			offset := locate(doc.Content, part, from)
			if offset >= 0 {
				from = offset + 1
			}

			metadata := make(map[string]any, len(doc.Metadata)+2)
			maps.Copy(metadata, doc.Metadata)
			metadata["document"] = doc.ID
			metadata["offset"] = offset

			chunks = append(chunks, store.Chunk{
				ID:       fmt.Sprintf("%s:%d", doc.ID, i),
				Content:  part,
				Metadata: metadata,
				Seq:      len(chunks),
			})
		}
	}
	return chunks, nil
}

// locate finds part in text at or after from, falling back to a search from
// the start.
func locate(text, part string, from int) int {
	if from < len(text) {
		if i := strings.Index(text[from:], part); i >= 0 {
			return from + i
		}
	}
	return strings.Index(text, part)
}
