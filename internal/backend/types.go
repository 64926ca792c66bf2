package backend

// Endpoint paths consumed from the drafting backend.
const (
	PathSignup         = "/api/signup"
	PathRAGChat        = "/api/chat/rag"
	PathUpload         = "/api/document/analyze/upload"
	PathDocQuestion    = "/api/document/analyze/question"
	PathAnalyzePrefix  = "/api/document/analyze/"
	PathDocClear       = "/api/document/analyze/clear"
	PathSessionClear   = "/api/conversation/clear"
	PathClauseSearch   = "/api/quick-actions/clause-search"
	PathGenerateFromNL = "/api/document/generate-from-nl"
	PathRefine         = "/api/document/refine"
	PathValidate       = "/api/document/validate"
	PathExport         = "/api/document/export"
	PathFixIssue       = "/api/document/fix-issue"
	PathFixAllIssues   = "/api/document/fix-all-issues"
	PathDocumentQuery  = "/api/chat/document-query"
)

// SignupRequest registers a new account.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RAGChatRequest asks the knowledge-base assistant a question.
type RAGChatRequest struct {
	UserChat  string `json:"user_chat"`
	SessionID string `json:"session_id"`
	NResults  int    `json:"n_results"`
}

// RAGSource is one citation returned by the knowledge-base assistant.
type RAGSource struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// RAGResult is the nested result object of a knowledge-base answer.
type RAGResult struct {
	Response string      `json:"response"`
	Sources  []RAGSource `json:"sources"`
	UsedRAG  bool        `json:"used_rag"`
}

// RAGChatResponse is the body of /api/chat/rag.
type RAGChatResponse struct {
	Result    RAGResult `json:"result"`
	SessionID string    `json:"session_id,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// UploadResponse is the body of the document upload endpoint.
type UploadResponse struct {
	Success     bool   `json:"success"`
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	WordCount   int    `json:"word_count"`
	TotalChunks int    `json:"total_chunks"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DocumentRequest carries only a server-side document identifier.
type DocumentRequest struct {
	DocumentID string `json:"document_id"`
}

// DocumentQuestionRequest asks a question scoped to an uploaded document.
type DocumentQuestionRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

// DocumentSource points at a chunk of the uploaded document.
type DocumentSource struct {
	ChunkID    any     `json:"chunk_id"`
	Similarity float64 `json:"similarity"`
}

// DocumentQuestionResponse is the body of the document question endpoint.
type DocumentQuestionResponse struct {
	Success bool             `json:"success"`
	Answer  string           `json:"answer"`
	Sources []DocumentSource `json:"sources,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// AnalysisResponse is the body of the summarize, clauses and risks endpoints.
// Only the field matching the requested action is populated.
type AnalysisResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
	Clauses string `json:"clauses,omitempty"`
	Risks   string `json:"risks,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ClearSessionRequest asks the backend to drop its conversation memory.
type ClearSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ClauseSearchRequest is a reference-clause lookup.
type ClauseSearchRequest struct {
	Query      string `json:"query"`
	ClauseType string `json:"clause_type"`
	TopK       int    `json:"top_k"`
}

// ClauseHit is one ranked clause candidate.
type ClauseHit struct {
	Rank           int     `json:"rank"`
	ClauseType     string  `json:"clause_type"`
	ClauseText     string  `json:"clause_text"`
	RelevanceScore float64 `json:"relevance_score"`
	Source         string  `json:"source"`
}

// ClauseSearchResponse is the body of the clause search endpoint.
type ClauseSearchResponse struct {
	Success    bool        `json:"success"`
	Query      string      `json:"query"`
	ClauseType string      `json:"clause_type"`
	TotalFound int         `json:"total_found"`
	Clauses    []ClauseHit `json:"clauses"`
	Error      string      `json:"error,omitempty"`
}

// GenerateRequest asks the backend to draft a document from a description.
type GenerateRequest struct {
	Description string `json:"description"`
}

// GenerateResponse is the body of the natural-language generation endpoint.
type GenerateResponse struct {
	Success         bool           `json:"success"`
	Document        string         `json:"document"`
	DocumentType    string         `json:"document_type"`
	Category        string         `json:"category,omitempty"`
	DocumentID      string         `json:"document_id,omitempty"`
	ExtractedFields map[string]any `json:"extracted_fields"`
	MissingFields   []string       `json:"missing_fields"`
	NeedsMoreInfo   bool           `json:"needs_more_info"`
	NextQuestion    string         `json:"next_question,omitempty"`
	Message         string         `json:"message,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// RefineRequest asks the backend to apply an instruction to the current text.
type RefineRequest struct {
	CurrentDocument string `json:"current_document"`
	Instruction     string `json:"instruction"`
	DocumentType    string `json:"document_type"`
}

// RefineResponse is the body of the refine endpoint.
type RefineResponse struct {
	Success         bool   `json:"success"`
	RefinedDocument string `json:"refined_document"`
	Error           string `json:"error,omitempty"`
}

// ValidateRequest asks the backend for a compliance review.
type ValidateRequest struct {
	Content      string `json:"content"`
	DocumentType string `json:"document_type"`
	Jurisdiction string `json:"jurisdiction"`
}

// ValidationIssue is one finding of a compliance review.
type ValidationIssue struct {
	Severity        string `json:"severity"`
	Issue           string `json:"issue"`
	ClauseReference string `json:"clause_reference,omitempty"`
	Recommendation  string `json:"recommendation,omitempty"`
}

// ValidationReport is the nested validation object.
type ValidationReport struct {
	Issues         []ValidationIssue `json:"issues"`
	MissingClauses []string          `json:"missing_clauses,omitempty"`
}

// ValidateResponse is the body of the validate endpoint.
type ValidateResponse struct {
	Success         bool             `json:"success"`
	Validation      ValidationReport `json:"validation"`
	OverallStatus   string           `json:"overall_status"`
	ComplianceScore *float64         `json:"compliance_score"` // model output, may be fractional
	Error           string           `json:"error,omitempty"`
}

// ExportRequest asks the backend to render the document into a file format.
type ExportRequest struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Title   string `json:"title"`
}

// FixIssueRequest asks the backend to correct one review finding.
type FixIssueRequest struct {
	DocumentHTML string          `json:"document_html"`
	Issue        ValidationIssue `json:"issue"`
}

// FixAllIssuesRequest asks the backend to correct every review finding at once.
type FixAllIssuesRequest struct {
	DocumentHTML string            `json:"document_html"`
	Issues       []ValidationIssue `json:"issues"`
}

// FixResponse is the body of both fix endpoints.
type FixResponse struct {
	Success       bool   `json:"success"`
	FixedDocument string `json:"fixed_document"`
	IssueFixed    string `json:"issue_fixed,omitempty"`
	IssuesFixed   int    `json:"issues_fixed,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Document query types understood by the backend.
const (
	QueryGeneral    = "general"
	QuerySummary    = "summary"
	QueryRefinement = "refinement"
)

// DocumentQueryRequest asks a question about the draft being authored.
type DocumentQueryRequest struct {
	UserQuery       string `json:"user_query"`
	DocumentContent string `json:"document_content"`
	DocumentType    string `json:"document_type"`
	QueryType       string `json:"query_type"`
	SessionID       string `json:"session_id,omitempty"`
}

// DocumentQueryResponse is the body of the draft question endpoint.
type DocumentQueryResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	QueryType string `json:"query_type"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}
