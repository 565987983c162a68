package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vakya-app/vakya/pkg/adapt"
	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/render"
	"github.com/vakya-app/vakya/pkg/utils"
)

// handleClipArticle handles the clip_article tool
func (s *Server) handleClipArticle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urlStr := request.GetString("url", "")
	if urlStr == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	startTime := time.Now()

	page, err := s.cfg.Fetcher.FetchPage(ctx, urlStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch URL: %v", err)), nil
	}

	doc, err := s.cfg.Clipper.Clip(page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract article: %v", err)), nil
	}

	existing, err := s.cfg.Store.FindByContentHash(doc.ContentHash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("duplicate check failed: %v", err)), nil
	}
	if existing != nil {
		result := map[string]interface{}{
			"status":      "already_in_library",
			"document_id": existing.ID,
			"title":       existing.Title,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	doc.TokenCount = adapt.CountTokens(doc.Markdown)
	if err := s.cfg.Store.PutDocument(doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save document: %v", err)), nil
	}

	result := map[string]interface{}{
		"status":        "clipped",
		"document_id":   doc.ID,
		"title":         doc.Title,
		"source_url":    doc.SourceURL,
		"token_count":   doc.TokenCount,
		"fetch_time_ms": time.Since(startTime).Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleListDocuments handles the list_documents tool
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.cfg.Store.ListDocuments()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}

	documents := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		info := map[string]interface{}{
			"id":         doc.ID,
			"kind":       doc.Kind,
			"title":      doc.Title,
			"status":     doc.Status,
			"created_at": doc.CreatedAt.Format(time.RFC3339),
		}
		if doc.SourceURL != "" {
			info["source_url"] = doc.SourceURL
		}
		if doc.Level != "" {
			info["level"] = doc.Level
		}
		if doc.TokenCount > 0 {
			info["token_count"] = doc.TokenCount
		}
		if s.jobManager.IsRunning(doc.ID) {
			info["adaptation"] = "running"
		}
		documents = append(documents, info)
	}

	result := map[string]interface{}{
		"documents":       documents,
		"total_documents": len(documents),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetDocument handles the get_document tool
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID := request.GetString("document_id", "")
	if documentID == "" {
		return mcp.NewToolResultError("document_id parameter is required"), nil
	}

	doc, err := s.cfg.Store.GetDocument(documentID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("document '%s' not found", documentID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load document: %v", err)), nil
	}

	result := map[string]interface{}{
		"id":         doc.ID,
		"kind":       doc.Kind,
		"title":      doc.Title,
		"status":     doc.Status,
		"content":    doc.Markdown,
		"created_at": doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.SourceURL != "" {
		result["source_url"] = doc.SourceURL
	}
	if doc.StorageKey != "" {
		result["storage_key"] = doc.StorageKey
	}
	if doc.Level != "" {
		result["level"] = doc.Level
	}
	if outline := render.Headings([]byte(doc.Markdown)); len(outline) > 0 {
		result["outline"] = outline
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchDocuments handles the search_documents tool
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	maxResults := clampMaxResults(request.GetInt("max_results", 10))

	docs, err := s.cfg.Store.ListDocuments()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}

	queryLower := strings.ToLower(query)
	results := make([]map[string]interface{}, 0)
	for _, doc := range docs {
		if len(results) >= maxResults {
			break
		}

		matchLocation := ""
		if strings.Contains(strings.ToLower(doc.Title), queryLower) {
			matchLocation = "title"
		} else if strings.Contains(strings.ToLower(doc.Markdown), queryLower) {
			matchLocation = "content"
		} else {
			continue
		}

		results = append(results, map[string]interface{}{
			"document_id":    doc.ID,
			"title":          doc.Title,
			"snippet":        extractSnippet(doc.Markdown, query, 150),
			"match_location": matchLocation,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchVocab handles the search_vocab tool
func (s *Server) handleSearchVocab(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	documentID := request.GetString("document_id", "")
	maxResults := clampMaxResults(request.GetInt("max_results", 10))

	// Determine which documents to search
	var docIDs []string
	if documentID != "" {
		if _, err := s.cfg.Store.GetDocument(documentID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document '%s' not found", documentID)), nil
		}
		docIDs = []string{documentID}
	} else {
		docs, err := s.cfg.Store.ListDocuments()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
		}
		for _, doc := range docs {
			docIDs = append(docIDs, doc.ID)
		}
	}

	queryLower := strings.ToLower(query)
	results := make([]map[string]interface{}, 0)
	for _, id := range docIDs {
		if len(results) >= maxResults {
			break
		}
		entries, err := s.cfg.Store.ListVocab(id)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if len(results) >= maxResults {
				break
			}
			if m, location := vocabMatch(entry, queryLower); m {
				results = append(results, map[string]interface{}{
					"vocab_id":       entry.ID,
					"document_id":    entry.DocumentID,
					"term":           entry.Term,
					"meaning":        entry.Meaning,
					"context":        entry.Context,
					"review_count":   entry.ReviewCount,
					"match_location": location,
				})
			}
		}
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	if documentID != "" {
		response["document_id"] = documentID
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAdaptDocument handles the adapt_document tool
func (s *Server) handleAdaptDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID := request.GetString("document_id", "")
	if documentID == "" {
		return mcp.NewToolResultError("document_id parameter is required"), nil
	}

	level := models.ProficiencyLevel(strings.ToUpper(request.GetString("level", "")))
	if !level.IsValid() {
		return mcp.NewToolResultError("level must be one of A1, A2, B1, B2, C1, C2"), nil
	}

	doc, err := s.cfg.Store.GetDocument(documentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document '%s' not found", documentID)), nil
	}
	if doc.Markdown == "" {
		return mcp.NewToolResultError("document has no extracted text to adapt"), nil
	}

	// Check if already running
	if s.jobManager.IsRunning(documentID) {
		existingJob := s.jobManager.GetJobByDocument(documentID)
		result := map[string]interface{}{
			"status":      "already_running",
			"message":     "An adaptation is already in progress for this document",
			"job_id":      existingJob.ID,
			"document_id": documentID,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	job, err := s.jobManager.CreateJob(documentID, level.String())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create job: %v", err)), nil
	}

	// Run adaptation in background
	go s.runAdaptJob(job, doc, level)

	result := map[string]interface{}{
		"status":      "started",
		"message":     "Adaptation started successfully",
		"job_id":      job.ID,
		"document_id": documentID,
		"level":       level.String(),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"level":       job.Level,
		"status":      job.Status,
		"started_at":  job.StartedAt.Format(time.RFC3339),
	}

	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}

	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runAdaptJob runs an adaptation job in the background
func (s *Server) runAdaptJob(job *Job, doc *models.Document, level models.ProficiencyLevel) {
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")

	jobCtx := s.jobManager.GetContext(job.ID)

	adapted, err := s.cfg.Adapter.AdaptMarkdown(jobCtx, doc.Markdown, level)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.jobManager.UpdateStatus(job.ID, JobStatusCancelled, "")
		} else {
			s.jobManager.UpdateStatus(job.ID, JobStatusFailed, err.Error())
		}
		return
	}

	doc.Markdown = adapted
	doc.Level = level.String()
	doc.TokenCount = adapt.CountTokens(adapted)
	doc.ContentHash = utils.CalculateStringSHA256(adapted)
	doc.Status = models.DocStatusReady
	doc.UpdatedAt = time.Now().UTC()
	if err := s.cfg.Store.PutDocument(doc); err != nil {
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, fmt.Sprintf("failed to save adapted document: %v", err))
		return
	}

	s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
}

// vocabMatch reports whether the entry matches the lowercased query and where
func vocabMatch(entry *models.VocabEntry, queryLower string) (bool, string) {
	switch {
	case strings.Contains(strings.ToLower(entry.Term), queryLower):
		return true, "term"
	case strings.Contains(strings.ToLower(entry.Meaning), queryLower):
		return true, "meaning"
	case strings.Contains(strings.ToLower(entry.Context), queryLower):
		return true, "context"
	default:
		return false, ""
	}
}

func clampMaxResults(n int) int {
	if n <= 0 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	contentLowerRunes := []rune(strings.ToLower(content))

	// Find match position in runes
	idx := -1
	for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
		if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	// Calculate start and end positions in rune space
	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}

	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}

	return snippet
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
