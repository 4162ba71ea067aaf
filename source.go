package metamodel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

// Source provides a metadata document under a stable identity. Two sources with
// the same identity are expected to provide the same document.
type Source interface {
	Identity() string
	Document(ctx context.Context) (Document, error)
}

// Document is a decoded CSDL JSON metadata document.
type Document = csdl.Document

// ParseDocument decodes a CSDL JSON metadata document.
func ParseDocument(r io.Reader) (Document, error) {
	return csdl.Parse(r)
}

// ReadDocumentFile decodes the CSDL JSON metadata document stored at path.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata document: %w", err)
	}
	defer f.Close()
	return ParseDocument(f)
}

type documentSource struct {
	identity string
	doc      Document
}

func (s *documentSource) Identity() string { return s.identity }

func (s *documentSource) Document(ctx context.Context) (Document, error) {
	return s.doc, nil
}

// NewDocumentSource wraps an in-memory document in a Source with a random identity.
// Keep the returned Source to hit the cache on later conversions.
func NewDocumentSource(doc Document) Source {
	return NewDocumentSourceWithIdentity(uuid.NewString(), doc)
}

// NewDocumentSourceWithIdentity wraps an in-memory document in a Source with the
// given identity.
func NewDocumentSourceWithIdentity(identity string, doc Document) Source {
	return &documentSource{identity: identity, doc: doc}
}
