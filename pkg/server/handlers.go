package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vakya-app/vakya/pkg/adapt"
	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/render"
	"github.com/vakya-app/vakya/pkg/safename"
	"github.com/vakya-app/vakya/pkg/utils"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpStatusFor maps domain sentinel errors onto response codes.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, utils.ErrInvalidPDF),
		errors.Is(err, utils.ErrParsing),
		errors.Is(err, utils.ErrAdaptation):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrRobotsDisallowed):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrClientHTTPError),
		errors.Is(err, utils.ErrServerHTTPError),
		errors.Is(err, utils.ErrOtherHTTPError),
		errors.Is(err, utils.ErrExtraction),
		errors.Is(err, utils.ErrMarkdownConversion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSizeBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, handler, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'pdf' form file")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(handler.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only .pdf files are accepted")
		return
	}

	info, err := s.checker.Check(file)
	if err != nil {
		s.log.WithError(err).WithField("filename", handler.Filename).Warn("Rejected PDF upload")
		writeError(w, httpStatusFor(err), "uploaded file is not a valid PDF")
		return
	}

	hash, err := utils.CalculateReaderSHA256(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	existing, err := s.store.FindByContentHash(hash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":       "document already in library",
			"document_id": existing.ID,
		})
		return
	}

	key := safename.PDFStorageKey(handler.Filename)
	if err := s.blobs.Put(r.Context(), key, file); err != nil {
		s.log.WithError(err).Error("Failed to store uploaded PDF")
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:          uuid.NewString(),
		Kind:        models.KindPDF,
		Title:       safename.PDFTitle(handler.Filename),
		StorageKey:  key,
		ContentHash: hash,
		Status:      models.DocStatusReady,
		CreatedAt:   now,
	}
	if err := s.store.PutDocument(doc); err != nil {
		s.log.WithError(err).Error("Failed to save PDF document record")
		writeError(w, http.StatusInternalServerError, "failed to save document")
		return
	}

	s.log.WithFields(map[string]interface{}{
		"id":    doc.ID,
		"key":   key,
		"pages": info.PageCount,
		"bytes": info.SizeBytes,
	}).Info("PDF imported")
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleClipArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with a 'url' field")
		return
	}

	page, err := s.fetcher.FetchPage(r.Context(), req.URL)
	if err != nil {
		s.log.WithError(err).WithField("url", req.URL).Warn("Article fetch failed")
		writeError(w, httpStatusFor(err), utils.CategorizeError(err))
		return
	}

	doc, err := s.clipper.Clip(page)
	if err != nil {
		s.log.WithError(err).WithField("url", req.URL).Warn("Article extraction failed")
		writeError(w, httpStatusFor(err), utils.CategorizeError(err))
		return
	}

	existing, err := s.store.FindByContentHash(doc.ContentHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":       "document already in library",
			"document_id": existing.ID,
		})
		return
	}

	doc.TokenCount = adapt.CountTokens(doc.Markdown)
	if err := s.store.PutDocument(doc); err != nil {
		s.log.WithError(err).Error("Failed to save clipped document")
		writeError(w, http.StatusInternalServerError, "failed to save document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, _ *http.Request) {
	docs, err := s.store.ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	// Listings omit content so the library view stays light.
	summaries := make([]*models.Document, 0, len(docs))
	for _, doc := range docs {
		summary := *doc
		summary.Markdown = ""
		summaries = append(summaries, &summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := render.HTML(doc.Markdown)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to render document")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	doc, err := s.store.GetDocument(id)
	if err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}

	if doc.StorageKey != "" {
		if err := s.blobs.Delete(r.Context(), doc.StorageKey); err != nil {
			s.log.WithError(err).WithField("key", doc.StorageKey).Error("Failed to delete stored file")
			writeError(w, http.StatusInternalServerError, "failed to delete stored file")
			return
		}
	}
	if err := s.store.DeleteDocument(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentFile(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}
	if doc.StorageKey == "" {
		writeError(w, http.StatusNotFound, "document has no stored file")
		return
	}

	rc, err := s.blobs.Open(r.Context(), doc.StorageKey)
	if err != nil {
		s.log.WithError(err).WithField("key", doc.StorageKey).Error("Failed to open stored file")
		writeError(w, http.StatusNotFound, "stored file unavailable")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filepath.Base(safename.ExtractStorageKey(doc.StorageKey))+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		s.log.WithError(err).Debug("File stream interrupted")
	}
}

func (s *Server) handleAdaptDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level models.ProficiencyLevel `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with a 'level' field")
		return
	}
	if !req.Level.IsValid() {
		writeError(w, http.StatusBadRequest, "level must be one of A1, A2, B1, B2, C1, C2")
		return
	}

	doc, err := s.store.GetDocument(chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}
	if doc.Markdown == "" {
		writeError(w, http.StatusUnprocessableEntity, "document has no extracted text to adapt")
		return
	}

	doc.Status = models.DocStatusAdapting
	if err := s.store.PutDocument(doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update document")
		return
	}

	adapted, err := s.adapter.AdaptMarkdown(r.Context(), doc.Markdown, req.Level)
	if err != nil {
		doc.Status = models.DocStatusFailed
		doc.UpdatedAt = time.Now().UTC()
		if putErr := s.store.PutDocument(doc); putErr != nil {
			s.log.WithError(putErr).Error("Failed to record adaptation failure")
		}
		s.log.WithError(err).WithField("id", doc.ID).Warn("Adaptation failed")
		writeError(w, httpStatusFor(err), utils.CategorizeError(err))
		return
	}

	doc.Markdown = adapted
	doc.Level = req.Level.String()
	doc.TokenCount = adapt.CountTokens(adapted)
	doc.ContentHash = utils.CalculateStringSHA256(adapted)
	doc.Status = models.DocStatusReady
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.PutDocument(doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save adapted document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAddVocab(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if _, err := s.store.GetDocument(documentID); err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}

	var req struct {
		Term    string `json:"term"`
		Reading string `json:"reading"`
		Meaning string `json:"meaning"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Term) == "" || strings.TrimSpace(req.Meaning) == "" {
		writeError(w, http.StatusBadRequest, "'term' and 'meaning' are required")
		return
	}

	entry := &models.VocabEntry{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Term:       strings.TrimSpace(req.Term),
		Reading:    strings.TrimSpace(req.Reading),
		Meaning:    strings.TrimSpace(req.Meaning),
		Context:    strings.TrimSpace(req.Context),
		AddedAt:    time.Now().UTC(),
	}
	if err := s.store.PutVocab(entry); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save vocabulary entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListVocab(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if _, err := s.store.GetDocument(documentID); err != nil {
		writeError(w, httpStatusFor(err), "document not found")
		return
	}
	entries, err := s.store.ListVocab(documentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vocabulary")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteVocab(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVocab(chi.URLParam(r, "documentID"), chi.URLParam(r, "vocabID")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete vocabulary entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReviewVocab(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetVocab(chi.URLParam(r, "documentID"), chi.URLParam(r, "vocabID"))
	if err != nil {
		writeError(w, httpStatusFor(err), "vocabulary entry not found")
		return
	}
	entry.ReviewCount++
	entry.LastReview = time.Now().UTC()
	if err := s.store.PutVocab(entry); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update vocabulary entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
