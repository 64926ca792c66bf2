package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/lexdraft/internal/backend"
	"github.com/ziadkadry99/lexdraft/internal/clauses"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
)

// handleAskLegalQuestion sends a question through the shared chat session.
func (s *Server) handleAskLegalQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	reply, err := s.session.Ask(ctx, question)
	if err != nil {
		if errors.Is(err, conversation.ErrSendPending) {
			return mcp.NewToolResultError("another question is still being answered; try again shortly"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(reply)), nil
}

// handleSearchClauses runs a single clause search.
func (s *Server) handleSearchClauses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	clauseType := request.GetString("clause_type", clauses.AllTypes)
	topK := request.GetInt("top_k", 0)

	rs, err := s.searcher.Search(ctx, query, clauseType, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clause search failed: %v", err)), nil
	}
	if rs == nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if len(rs.Clauses) == 0 {
		return mcp.NewToolResultText("No matching clauses found."), nil
	}

	return mcp.NewToolResultText(formatClauses(rs)), nil
}

// handleAnalyzeDocument uploads a file in a throwaway session, runs one
// analysis and removes the document from the backend again.
func (s *Server) handleAnalyzeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_path"), nil
	}
	action, ok := conversation.ParseAction(request.GetString("action", string(conversation.ActionSummarize)))
	if !ok {
		return mcp.NewToolResultError("action must be one of summarize, clauses, risks"), nil
	}

	if err := conversation.CheckFormat(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open document: %v", err)), nil
	}
	defer f.Close()

	sess := conversation.NewSession(s.client)
	defer sess.Detach(context.WithoutCancel(ctx))

	if err := sess.Attach(ctx, conversation.Upload{Filename: filepath.Base(path), Body: f}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}
	if err := sess.RunAction(ctx, action); err != nil {
		log.Printf("mcp: %s on %s: %v", action, path, err)
		if errors.Is(err, backend.ErrNetworkFailure) {
			return mcp.NewToolResultError("the backend could not be reached"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	msgs := sess.Messages()
	return mcp.NewToolResultText(msgs[len(msgs)-1].Content), nil
}

// formatAnswer renders an assistant message and its sources.
func formatAnswer(m conversation.Message) string {
	if len(m.Sources) == 0 {
		return m.Content
	}
	var sb strings.Builder
	sb.WriteString(m.Content)
	sb.WriteString("\n\nSources:\n")
	for _, src := range m.Sources {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", src.Name, src.Percent()))
	}
	return sb.String()
}

// formatClauses converts a result set into a text format suited to AI
// agent consumption.
func formatClauses(rs *clauses.ResultSet) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d clause(s) for %q:\n", rs.TotalFound, rs.Query))

	for _, c := range rs.Clauses {
		sb.WriteString(fmt.Sprintf("\n--- #%d ", c.Rank))
		if c.ClauseType != "" {
			sb.WriteString(fmt.Sprintf("[%s] ", c.ClauseType))
		}
		sb.WriteString(fmt.Sprintf("relevance %.1f%% ---\n", c.RelevanceScore*100))
		if c.Source != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", c.Source))
		}
		sb.WriteString(c.ClauseText)
		sb.WriteString("\n")
	}

	return sb.String()
}
