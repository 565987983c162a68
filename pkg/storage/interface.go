package storage

import (
	"context"
	"time"

	"github.com/vakya-app/vakya/pkg/models"
)

// DocumentStore handles document metadata persistence
type DocumentStore interface {
	// PutDocument inserts or replaces a document record
	PutDocument(doc *models.Document) error

	// GetDocument retrieves a document by ID.
	// Returns utils.ErrNotFound (wrapped) when the ID is unknown.
	GetDocument(id string) (*models.Document, error)

	// ListDocuments returns all documents, newest first
	ListDocuments() ([]*models.Document, error)

	// DeleteDocument removes a document record and all of its vocabulary.
	// Deleting an unknown ID is not an error.
	DeleteDocument(id string) error

	// FindByContentHash returns the document with the given content hash,
	// or nil if no document matches. Used for duplicate-import detection.
	FindByContentHash(hash string) (*models.Document, error)
}

// VocabStore handles vocabulary entry persistence
type VocabStore interface {
	// PutVocab inserts or replaces a vocabulary entry
	PutVocab(entry *models.VocabEntry) error

	// GetVocab retrieves a single entry by document and entry ID.
	// Returns utils.ErrNotFound (wrapped) when unknown.
	GetVocab(documentID, vocabID string) (*models.VocabEntry, error)

	// ListVocab returns all vocabulary entries for a document, oldest first
	ListVocab(documentID string) ([]*models.VocabEntry, error)

	// DeleteVocab removes a single entry. Unknown IDs are not an error.
	DeleteVocab(documentID, vocabID string) error
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// RunGC runs periodic value-log garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database
	Close() error
}

// Store combines all store interfaces for components that need full access
type Store interface {
	DocumentStore
	VocabStore
	StoreAdmin
}
