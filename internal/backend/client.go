package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client calls the drafting backend over JSON/HTTP. It holds no session
// state; every call is independent.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a backend client. A positive timeout bounds every call,
// so a stalled request always resolves as a network failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Signup registers an account. The backend replies {} or {error}.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	var resp struct {
		Error string `json:"error"`
	}
	if err := c.postJSON(ctx, PathSignup, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return rejectedError(PathSignup, http.StatusOK, resp.Error)
	}
	return nil
}

// ChatRAG asks the knowledge-base assistant a question.
func (c *Client) ChatRAG(ctx context.Context, req RAGChatRequest) (*RAGChatResponse, error) {
	var resp RAGChatResponse
	if err := c.postJSON(ctx, PathRAGChat, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, rejectedError(PathRAGChat, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// AskDocument asks a question scoped to an uploaded document.
func (c *Client) AskDocument(ctx context.Context, req DocumentQuestionRequest) (*DocumentQuestionResponse, error) {
	var resp DocumentQuestionResponse
	if err := c.postJSON(ctx, PathDocQuestion, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(PathDocQuestion, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// Analyze runs one fixed analysis action (summarize, clauses, risks)
// against an uploaded document.
func (c *Client) Analyze(ctx context.Context, action, documentID string) (*AnalysisResponse, error) {
	path := PathAnalyzePrefix + action
	var resp AnalysisResponse
	if err := c.postJSON(ctx, path, DocumentRequest{DocumentID: documentID}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(path, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// ClearDocument tells the backend the client no longer needs the document.
func (c *Client) ClearDocument(ctx context.Context, documentID string) error {
	return c.postJSON(ctx, PathDocClear, DocumentRequest{DocumentID: documentID}, nil)
}

// ClearSession asks the backend to forget a conversation.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, PathSessionClear, ClearSessionRequest{SessionID: sessionID}, nil)
}

// SearchClauses looks up reference clauses.
func (c *Client) SearchClauses(ctx context.Context, req ClauseSearchRequest) (*ClauseSearchResponse, error) {
	var resp ClauseSearchResponse
	if err := c.postJSON(ctx, PathClauseSearch, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(PathClauseSearch, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// Generate drafts a document from a natural-language description.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.postJSON(ctx, PathGenerateFromNL, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, rejectedError(PathGenerateFromNL, http.StatusOK, msg)
	}
	return &resp, nil
}

// Refine applies a user instruction to the current document text.
func (c *Client) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	var resp RefineResponse
	if err := c.postJSON(ctx, PathRefine, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(PathRefine, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// Validate requests a compliance review of the document text.
func (c *Client) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	var resp ValidateResponse
	if err := c.postJSON(ctx, PathValidate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(PathValidate, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// FixIssue asks the backend to correct one review finding and returns the
// full corrected document.
func (c *Client) FixIssue(ctx context.Context, req FixIssueRequest) (*FixResponse, error) {
	return c.fix(ctx, PathFixIssue, req)
}

// FixAllIssues asks the backend to correct every review finding at once.
func (c *Client) FixAllIssues(ctx context.Context, req FixAllIssuesRequest) (*FixResponse, error) {
	return c.fix(ctx, PathFixAllIssues, req)
}

func (c *Client) fix(ctx context.Context, path string, req any) (*FixResponse, error) {
	var resp FixResponse
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(path, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// QueryDocument asks a question about the draft text itself.
func (c *Client) QueryDocument(ctx context.Context, req DocumentQueryRequest) (*DocumentQueryResponse, error) {
	var resp DocumentQueryResponse
	if err := c.postJSON(ctx, PathDocumentQuery, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejectedError(PathDocumentQuery, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// ExportResult describes a rendered document written by Export.
type ExportResult struct {
	Filename    string
	ContentType string
	Bytes       int64
}

// Export renders the document in the requested format and copies the file
// body into w.
func (c *Client) Export(ctx context.Context, req ExportRequest, w io.Writer) (*ExportResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling export request: %w", err)
	}
	httpResp, err := c.do(ctx, PathExport, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, statusError(PathExport, httpResp)
	}

	n, err := io.Copy(w, httpResp.Body)
	if err != nil {
		return nil, networkError(PathExport, err)
	}

	result := &ExportResult{
		ContentType: httpResp.Header.Get("Content-Type"),
		Bytes:       n,
	}
	if _, params, err := mime.ParseMediaType(httpResp.Header.Get("Content-Disposition")); err == nil {
		result.Filename = params["filename"]
	}
	return result, nil
}

// Upload sends a document as multipart form data under the "file" field.
// The body is streamed, so wrapping it in a progress reader reports bytes
// as they leave the client.
func (c *Client) Upload(ctx context.Context, filename string, body io.Reader) (*UploadResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, body); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	httpResp, err := c.do(ctx, PathUpload, mw.FormDataContentType(), pr)
	// Unblock the writer goroutine if the request ended before reading the body.
	pr.Close()
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp UploadResponse
	if err := decodeResponse(PathUpload, httpResp, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, rejectedError(PathUpload, http.StatusOK, msg)
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, req, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling %s request: %w", path, err)
	}

	httpResp, err := c.do(ctx, path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if out == nil {
		if httpResp.StatusCode != http.StatusOK {
			return statusError(path, httpResp)
		}
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil
	}
	return decodeResponse(path, httpResp, out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, networkError(path, err)
	}
	return httpResp, nil
}

func decodeResponse(path string, httpResp *http.Response, out any) error {
	if httpResp.StatusCode != http.StatusOK {
		return statusError(path, httpResp)
	}
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return networkError(path, err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return rejectedError(path, httpResp.StatusCode, "malformed response: "+err.Error())
	}
	return nil
}

// statusError extracts the backend's {error} message from a non-200 reply.
func statusError(path string, httpResp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(respBody))
	if json.Unmarshal(respBody, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return rejectedError(path, httpResp.StatusCode, msg)
}
