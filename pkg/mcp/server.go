// Package mcp exposes the document library to MCP clients, so assistants
// can clip articles, browse the library, and kick off level adaptations.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/adapt"
	"github.com/vakya-app/vakya/pkg/clip"
	"github.com/vakya-app/vakya/pkg/config"
	"github.com/vakya-app/vakya/pkg/fetch"
	"github.com/vakya-app/vakya/pkg/storage"
)

const (
	serverName    = "vakya"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration and dependencies for the MCP server
type ServerConfig struct {
	AppConfig *config.AppConfig
	Store     storage.Store
	Fetcher   *fetch.Fetcher
	Clipper   *clip.Clipper
	Adapter   *adapt.Adapter
	Transport string // "stdio" or "sse"
	Port      int
	Logger    *logrus.Logger
}

// Server wraps the MCP server with library-specific functionality
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// clip_article - Import a web article into the library
	clipArticleTool := mcp.NewTool("clip_article",
		mcp.WithDescription("Fetch a web article, extract its main content as markdown, and save it to the study library"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The article URL to clip"),
		),
	)
	s.mcpServer.AddTool(clipArticleTool, s.handleClipArticle)

	// list_documents - List everything in the library
	listDocumentsTool := mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents in the study library"),
	)
	s.mcpServer.AddTool(listDocumentsTool, s.handleListDocuments)

	// get_document - Fetch one document including its content
	getDocumentTool := mcp.NewTool("get_document",
		mcp.WithDescription("Get a single library document including its markdown content"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The document ID returned by list_documents or clip_article"),
		),
	)
	s.mcpServer.AddTool(getDocumentTool, s.handleGetDocument)

	// search_documents - Search document content
	searchDocumentsTool := mcp.NewTool("search_documents",
		mcp.WithDescription("Search library documents using text matching"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (case-insensitive substring match)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchDocumentsTool, s.handleSearchDocuments)

	// search_vocab - Search saved vocabulary
	searchVocabTool := mcp.NewTool("search_vocab",
		mcp.WithDescription("Search saved vocabulary entries across the library"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query matched against term, meaning, and context"),
		),
		mcp.WithString("document_id",
			mcp.Description("Limit search to one document (optional)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchVocabTool, s.handleSearchVocab)

	// adapt_document - Start a background level adaptation
	adaptDocumentTool := mcp.NewTool("adapt_document",
		mcp.WithDescription("Rewrite a document at a CEFR proficiency level. Returns immediately with a job ID."),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The document to adapt"),
		),
		mcp.WithString("level",
			mcp.Required(),
			mcp.Description("Target CEFR level: A1, A2, B1, B2, C1, or C2"),
		),
	)
	s.mcpServer.AddTool(adaptDocumentTool, s.handleAdaptDocument)

	// get_job_status - Check status of an adaptation job
	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of an adaptation job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by adapt_document"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	s.log.Infof("Registered %d MCP tools", 7)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	// Cancel any running adaptation jobs
	s.jobManager.CancelAll()
	return nil
}
