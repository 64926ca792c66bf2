package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askLegalQuestionTool defines the ask_legal_question MCP tool.
var askLegalQuestionTool = mcp.NewTool("ask_legal_question",
	mcp.WithDescription("Ask the legal research assistant a question. Answers cite the knowledge-base passages they rely on. Follow-up questions share context."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question in plain language"),
	),
)

// searchClausesTool defines the search_clauses MCP tool.
var searchClausesTool = mcp.NewTool("search_clauses",
	mcp.WithDescription("Find reference contract clauses similar to a description, ranked by relevance."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("What the clause should cover, e.g. 'termination for convenience'"),
	),
	mcp.WithString("clause_type",
		mcp.Description("Restrict to one clause category (default all)"),
	),
	mcp.WithNumber("top_k",
		mcp.Description("Maximum number of clauses to return (default 5)"),
	),
)

// analyzeDocumentTool defines the analyze_document MCP tool.
var analyzeDocumentTool = mcp.NewTool("analyze_document",
	mcp.WithDescription("Upload a local PDF or Word document and summarize it, list its key clauses, or analyze its risks."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path to a .pdf, .docx or .doc file"),
	),
	mcp.WithString("action",
		mcp.Description("Analysis to run (default summarize)"),
		mcp.Enum("summarize", "clauses", "risks"),
	),
)
