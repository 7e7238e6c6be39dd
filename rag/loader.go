package rag

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Document is a unit of source text, typically one PDF page.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// LoadPDF reads a PDF file into one Document per page. Each document carries
// "source", "page" and "total_pages" metadata.
func LoadPDF(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	return LoadPDFReader(ctx, f, info.Size(), filepath.Base(path))
}

// LoadPDFReader reads PDF data of the given size.
func LoadPDFReader(ctx context.Context, r io.ReaderAt, size int64, source string) ([]Document, error) {
	docs, err := documentloaders.NewPDF(r, size).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pdf %s: %w", source, err)
	}
	return convertSchemaDocuments(docs, source), nil
}

// LoadText reads plain text, such as a transcript, into a single Document.
func LoadText(ctx context.Context, r io.Reader, source string) ([]Document, error) {
	docs, err := documentloaders.NewText(r).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load text %s: %w", source, err)
	}
	return convertSchemaDocuments(docs, source), nil
}

func convertSchemaDocuments(schemaDocs []schema.Document, source string) []Document {
	docs := make([]Document, len(schemaDocs))
	for i, schemaDoc := range schemaDocs {
		metadata := make(map[string]any, len(schemaDoc.Metadata)+1)
		maps.Copy(metadata, schemaDoc.Metadata)
		metadata["source"] = source

		id := fmt.Sprintf("%s#%d", source, i)
		if page, ok := schemaDoc.Metadata["page"]; ok {
			id = fmt.Sprintf("%s#p%v", source, page)
		}

		docs[i] = Document{
			ID:       id,
			Content:  schemaDoc.PageContent,
			Metadata: metadata,
		}
	}
	return docs
}
