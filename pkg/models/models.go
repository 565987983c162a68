package models

import "time"

// DocumentKind distinguishes how a document entered the library
type DocumentKind string

const (
	KindPDF     DocumentKind = "pdf"     // Uploaded PDF file
	KindArticle DocumentKind = "article" // Clipped web article
)

// Document is a single item in a user's study library
type Document struct {
	ID          string         `json:"id"`
	Kind        DocumentKind   `json:"kind"`
	Title       string         `json:"title"`                  // Display title, not storage-safe
	SourceURL   string         `json:"source_url,omitempty"`   // Original page URL (articles)
	StorageKey  string         `json:"storage_key,omitempty"`  // Object-storage path (PDFs)
	Level       string         `json:"level,omitempty"`        // CEFR level the text was adapted to
	Markdown    string         `json:"markdown,omitempty"`     // Extracted/adapted content
	TokenCount  int            `json:"token_count,omitempty"`  // Token count of Markdown
	ContentHash string         `json:"content_hash,omitempty"` // SHA-256 of Markdown, for duplicate detection
	Status      DocumentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// VocabEntry is a single vocabulary item saved while studying a document
type VocabEntry struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Term        string    `json:"term"`
	Reading     string    `json:"reading,omitempty"` // Pronunciation/transliteration
	Meaning     string    `json:"meaning"`
	Context     string    `json:"context,omitempty"` // Sentence the term was saved from
	AddedAt     time.Time `json:"added_at"`
	ReviewCount int       `json:"review_count"`
	LastReview  time.Time `json:"last_review,omitempty"`
}
