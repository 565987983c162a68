package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/adapt"
	"github.com/vakya-app/vakya/pkg/clip"
	"github.com/vakya-app/vakya/pkg/config"
	"github.com/vakya-app/vakya/pkg/fetch"
	"github.com/vakya-app/vakya/pkg/mcp"
	"github.com/vakya-app/vakya/pkg/storage"
)

func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8081, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: vakya mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  vakya mcp-server -config config.yaml

  # Start with SSE transport on port 8081
  vakya mcp-server -config config.yaml -transport sse -port 8081

Available MCP Tools:
  clip_article      Clip a web article into the library
  list_documents    List library documents
  get_document      Get a document with its content
  search_documents  Search document content
  search_vocab      Search saved vocabulary
  adapt_document    Start a background level adaptation
  get_job_status    Check an adaptation job
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doMcpServer(*configFile, *transport, *port, *logLevel, os.Stderr)
	os.Exit(exitCode)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stderr io.Writer) int {
	// Setup logger
	log := logrus.New()
	log.SetOutput(stderr) // MCP protocol uses stdout, logs go to stderr
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %s\n", logLevel)
		return 1
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}

	if err := adapt.InitTokenizer(cfg.Adapt.TokenizerEncoding); err != nil {
		log.Warnf("Tokenizer unavailable, falling back to word counts: %v", err)
	}

	store, err := storage.NewBadgerStore(cfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		fmt.Fprintf(stderr, "Error opening document store: %v\n", err)
		return 1
	}
	defer store.Close()

	serverCfg := &mcp.ServerConfig{
		AppConfig: cfg,
		Store:     store,
		Fetcher:   fetch.NewFetcher(cfg.Fetch, log),
		Clipper:   clip.NewClipper(log),
		Adapter:   adapt.NewAdapter(newLanguageModel(cfg, log), cfg.Adapt, log),
		Transport: transport,
		Port:      port,
		Logger:    log,
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
