package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/lexdraft/internal/clauses"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Backend is what the tools call on the drafting backend. *backend.Client
// satisfies it.
type Backend interface {
	conversation.Backend
	clauses.Backend
}

// Options tunes the tool defaults.
type Options struct {
	ResultCount int
	ClauseTopK  int
}

// Server wraps an MCP server that exposes legal research tools. Questions
// share one chat session so follow-ups keep their context.
type Server struct {
	client   Backend
	opts     Options
	session  *conversation.Session
	searcher *clauses.Searcher
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server backed by client.
func NewServer(client Backend, opts Options) *Server {
	s := &Server{
		client:   client,
		opts:     opts,
		session:  conversation.NewSession(client, conversation.WithResultCount(opts.ResultCount)),
		searcher: clauses.NewSearcher(client, opts.ClauseTopK),
	}

	s.mcp = server.NewMCPServer(
		"lexdraft",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askLegalQuestionTool, s.handleAskLegalQuestion)
	s.mcp.AddTool(searchClausesTool, s.handleSearchClauses)
	s.mcp.AddTool(analyzeDocumentTool, s.handleAnalyzeDocument)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
