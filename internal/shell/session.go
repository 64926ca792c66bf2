package shell

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/lexdraft/internal/clauses"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
	"github.com/ziadkadry99/lexdraft/internal/transcript"
	"github.com/ziadkadry99/lexdraft/internal/workspace"
)

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// request is the incoming websocket message format.
type request struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Data       string `json:"data,omitempty"`        // base64 file body for "upload"
	Action     string `json:"action,omitempty"`      // summarize, clauses or risks
	Format     string `json:"format,omitempty"`      // export format
	ClauseType string `json:"clause_type,omitempty"` // for "search"
	TopK       int    `json:"top_k,omitempty"`
	Target     string `json:"target,omitempty"` // "chat" or "draft" for "transcript"
	Index      int    `json:"index,omitempty"`  // 1-based issue number for "fix_issue"
}

// event is the outgoing websocket message format.
type event struct {
	Type        string                `json:"type"`
	SessionID   string                `json:"session_id"`
	Content     string                `json:"content,omitempty"`
	Message     *conversation.Message `json:"message,omitempty"`
	Pending     *bool                 `json:"pending,omitempty"`
	Binding     *conversation.Binding `json:"binding,omitempty"`
	Workspace   *workspace.Snapshot   `json:"workspace,omitempty"`
	Clauses     *clauses.ResultSet    `json:"clauses,omitempty"`
	Filename    string                `json:"filename,omitempty"`
	ContentType string                `json:"content_type,omitempty"`
	Data        string                `json:"data,omitempty"`
}

// conn is one browser tab: a chat session, a drafting workspace and the
// clause results on display. Events are queued by send and written by a
// single writer goroutine, so a slow socket never holds up the session.
type conn struct {
	ws *websocket.Conn

	outMu    sync.Mutex
	outReady *sync.Cond
	queue    []event
	closed   bool

	session *conversation.Session
	drafter *workspace.Drafter
	view    *clauses.View
	format  string
}

func (s *Shell) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("shell: websocket upgrade: %v", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, format: s.cfg.ExportFormat}
	c.outReady = sync.NewCond(&c.outMu)
	c.session = conversation.NewSession(s.client,
		conversation.WithResultCount(s.cfg.ResultCount),
		conversation.WithObserver(func(m conversation.Message) {
			c.send(event{Type: "message", Message: &m})
		}),
	)
	c.drafter = workspace.NewDrafter(s.client, workspace.New(), s.cfg.Jurisdiction)
	c.view = clauses.NewView(s.searcher)

	// Requests run concurrently so a slow reply never blocks the tab; the
	// session and workspace enforce their own exclusivity.
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writeLoop()
	}()
	defer func() {
		cancel()
		wg.Wait()
		c.closeQueue()
		<-written
	}()

	c.send(event{Type: "ready"})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("shell: websocket read: %v", err)
			}
			return
		}

		var req request
		if err := json.Unmarshal(msg, &req); err != nil {
			c.sendError("invalid message format")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			c.dispatch(ctx, req)
		}()
	}
}

func (c *conn) dispatch(ctx context.Context, req request) {
	switch req.Type {
	case "send":
		c.handleSend(ctx, req)
	case "upload":
		c.handleUpload(ctx, req)
	case "action":
		c.handleAction(ctx, req)
	case "detach":
		c.session.Detach(ctx)
		c.send(event{Type: "binding"})
	case "clear":
		c.session.Clear(ctx)
		c.send(event{Type: "cleared"})
	case "search":
		c.handleSearch(ctx, req)
	case "generate":
		c.workspaceOp(c.drafter.Generate(ctx, req.Content))
	case "edit":
		c.workspaceOp(c.drafter.State().EditText(req.Content))
	case "refine":
		c.workspaceOp(c.drafter.Refine(ctx, req.Content))
	case "validate":
		c.workspaceOp(c.drafter.Validate(ctx))
	case "fix_issue":
		c.workspaceOp(c.drafter.FixIssue(ctx, req.Index))
	case "fix_all":
		c.workspaceOp(c.drafter.FixAll(ctx))
	case "ask_draft":
		_, err := c.drafter.Ask(ctx, c.session.ID(), req.Content)
		c.workspaceOp(err)
	case "export":
		c.handleExport(ctx, req)
	case "reset":
		c.drafter.State().Reset()
		c.workspaceOp(nil)
	case "transcript":
		c.handleTranscript(req)
	default:
		c.sendError("unknown message type: " + req.Type)
	}
}

func (c *conn) handleSend(ctx context.Context, req request) {
	if err := c.session.Send(ctx, req.Content); err != nil {
		c.sendError(err.Error())
		return
	}
	pending := false
	c.send(event{Type: "pending", Pending: &pending})
}

func (c *conn) handleUpload(ctx context.Context, req request) {
	body, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.sendError("upload data must be base64")
		return
	}
	// Attach records its own outcome message. A failure also drops any
	// earlier binding, so the tab is told either way.
	if err := c.session.Attach(ctx, conversation.Upload{Filename: req.Filename, Body: bytes.NewReader(body)}); err != nil {
		log.Printf("shell: attach %s: %v", req.Filename, err)
	}
	c.send(event{Type: "binding", Binding: c.session.Binding()})
}

func (c *conn) handleAction(ctx context.Context, req request) {
	action, ok := conversation.ParseAction(req.Action)
	if !ok {
		c.sendError("unknown action: " + req.Action)
		return
	}
	if err := c.session.RunAction(ctx, action); err != nil {
		log.Printf("shell: action %s: %v", action, err)
	}
}

func (c *conn) handleSearch(ctx context.Context, req request) {
	if err := c.view.Run(ctx, req.Content, req.ClauseType, req.TopK); err != nil {
		c.sendError(c.view.Alert())
		return
	}
	c.send(event{Type: "clauses", Clauses: c.view.Current()})
}

func (c *conn) handleExport(ctx context.Context, req request) {
	format := req.Format
	if format == "" {
		format = c.format
	}
	var buf bytes.Buffer
	res, err := c.drafter.Export(ctx, format, &buf)
	if err != nil {
		c.workspaceOp(err)
		return
	}
	c.send(event{
		Type:        "export",
		Filename:    res.Filename,
		ContentType: res.ContentType,
		Data:        base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	c.workspaceOp(nil)
}

func (c *conn) handleTranscript(req request) {
	var (
		html string
		err  error
	)
	if req.Target == "draft" {
		html, err = transcript.RenderString("Drafting session", transcript.FromDraft(c.drafter.State().Snapshot()))
	} else {
		html, err = transcript.RenderString("Legal research", transcript.FromSession(c.session.Messages()))
	}
	if err != nil {
		c.sendError("rendering transcript: " + err.Error())
		return
	}
	c.send(event{Type: "transcript", Content: html})
}

// workspaceOp reports err, if any, then pushes the current workspace.
func (c *conn) workspaceOp(err error) {
	if err != nil {
		c.sendError(err.Error())
	}
	snap := c.drafter.State().Snapshot()
	c.send(event{Type: "workspace", Workspace: &snap})
}

// send queues ev for the writer. It never blocks on the socket, so it is
// safe to call from the session observer while the session lock is held.
func (c *conn) send(ev event) {
	ev.SessionID = c.session.ID()
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.closed {
		return
	}
	c.queue = append(c.queue, ev)
	c.outReady.Signal()
}

// writeLoop writes queued events in order until the queue is closed and
// drained, or a write fails.
func (c *conn) writeLoop() {
	for {
		c.outMu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.outReady.Wait()
		}
		batch := c.queue
		c.queue = nil
		c.outMu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				log.Printf("shell: websocket write: %v", err)
				c.closeQueue()
				return
			}
		}
	}
}

// closeQueue stops accepting events. Events already queued are still
// written.
func (c *conn) closeQueue() {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	c.closed = true
	c.outReady.Broadcast()
}

func (c *conn) sendError(message string) {
	c.send(event{Type: "error", Content: message})
}
