// Package lsp serves outline, diagnostics, go-to-definition and workspace
// symbols to an editor over the Language Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	protocol "go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/jward/dfsense"
	"github.com/jward/dfsense/internal/resolve"
)

const (
	serverName = "dfsense"

	// workspaceSymbolLimit caps workspace/symbol results.
	workspaceSymbolLimit = 100
)

// Server handles LSP requests on behalf of an Engine.
type Server struct {
	engine  *dfsense.Engine
	docs    *documents
	logger  *log.Logger
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported in the initialize result.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger routes server warnings. Defaults to discarding them.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server backed by engine.
func NewServer(engine *dfsense.Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		docs:    newDocuments(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

func decodePayload[T any](ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) *T {
	var payload *T
	if r.Params == nil {
		payload = new(T)
		return payload
	}
	if err := json.Unmarshal(*r.Params, &payload); err != nil || payload == nil {
		if !r.Notif {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInvalidParams,
				Message: "Unable to decode params of method " + r.Method,
			})
		}
		return nil
	}
	return payload
}

var nullResult = json.RawMessage("null")

// Handle implements jsonrpc2.Handler.
func (s *Server) Handle(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	switch r.Method {
	case protocol.MethodInitialize:
		c.Reply(ctx, r.ID, protocol.InitializeResult{
			Capabilities: protocol.ServerCapabilities{
				TextDocumentSync:        protocol.TextDocumentSyncKindFull,
				DocumentSymbolProvider:  true,
				DefinitionProvider:      true,
				WorkspaceSymbolProvider: s.engine.Store() != nil,
			},
			ServerInfo: &protocol.ServerInfo{
				Name:    serverName,
				Version: s.version,
			},
		})

	case protocol.MethodInitialized:

	case protocol.MethodShutdown:
		c.Reply(ctx, r.ID, nullResult)

	case protocol.MethodExit:
		c.Close()

	case protocol.MethodTextDocumentDidOpen:
		payload := decodePayload[protocol.DidOpenTextDocumentParams](ctx, c, r)
		if payload == nil {
			return
		}
		item := payload.TextDocument
		s.docs.open(item.URI, string(item.LanguageID), item.Text)
		s.publishDiagnostics(ctx, c, item.URI, string(item.LanguageID), item.Text)

	case protocol.MethodTextDocumentDidChange:
		payload := decodePayload[protocol.DidChangeTextDocumentParams](ctx, c, r)
		if payload == nil || len(payload.ContentChanges) == 0 {
			return
		}
		// Full sync: the last change carries the whole document.
		text := payload.ContentChanges[len(payload.ContentChanges)-1].Text
		doc, ok := s.docs.update(payload.TextDocument.URI, text)
		if !ok {
			return
		}
		s.publishDiagnostics(ctx, c, payload.TextDocument.URI, doc.languageID, text)

	case protocol.MethodTextDocumentDidClose:
		payload := decodePayload[protocol.DidCloseTextDocumentParams](ctx, c, r)
		if payload == nil {
			return
		}
		s.docs.close(payload.TextDocument.URI)
		c.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         payload.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})

	case protocol.MethodTextDocumentDocumentSymbol:
		payload := decodePayload[protocol.DocumentSymbolParams](ctx, c, r)
		if payload == nil {
			return
		}
		s.documentSymbol(ctx, c, r, payload.TextDocument.URI)

	case protocol.MethodTextDocumentDefinition:
		payload := decodePayload[protocol.DefinitionParams](ctx, c, r)
		if payload == nil {
			return
		}
		s.definition(ctx, c, r, payload.TextDocument.URI, payload.Position)

	case protocol.MethodWorkspaceSymbol:
		payload := decodePayload[protocol.WorkspaceSymbolParams](ctx, c, r)
		if payload == nil {
			return
		}
		s.workspaceSymbol(ctx, c, r, payload.Query)

	default:
		if !r.Notif {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: "method not supported: " + r.Method,
			})
		}
	}
}

// handles reports whether documents of languageID belong to this server.
func (s *Server) handles(languageID string) bool {
	return strings.EqualFold(languageID, s.engine.LanguageID())
}

func (s *Server) publishDiagnostics(ctx context.Context, c *jsonrpc2.Conn, u uri.URI, languageID, text string) {
	if !s.handles(languageID) {
		return
	}
	res, err := s.engine.Outline(ctx, text)
	if err != nil {
		s.logger.Printf("warning: outline %s: %v", u, err)
		return
	}
	c.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         u,
		Diagnostics: toDiagnostics(res.Diagnostics),
	})
}

func (s *Server) documentSymbol(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request, u uri.URI) {
	doc, ok := s.docs.get(u)
	if !ok {
		c.Reply(ctx, r.ID, []protocol.DocumentSymbol{})
		return
	}
	res, err := s.engine.Outline(ctx, doc.text)
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()})
		return
	}
	c.Reply(ctx, r.ID, toDocumentSymbols(res.Symbols))
}

func (s *Server) definition(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request, u uri.URI, pos protocol.Position) {
	doc, ok := s.docs.get(u)
	if !ok {
		c.Reply(ctx, r.ID, nullResult)
		return
	}
	out, err := s.engine.Definition(ctx, resolve.Request{
		Text:      doc.text,
		Line:      int(pos.Line),
		Col:       int(pos.Character),
		Documents: s.docs.snapshot(),
	})
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()})
		return
	}
	if out.Message != "" {
		c.Notify(ctx, protocol.MethodWindowShowMessage, protocol.ShowMessageParams{
			Type:    protocol.MessageTypeInfo,
			Message: out.Message,
		})
	}
	if !out.Found() {
		c.Reply(ctx, r.ID, nullResult)
		return
	}
	c.Reply(ctx, r.ID, toLocation(out.Location))
}

func (s *Server) workspaceSymbol(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request, query string) {
	rows, err := s.engine.Query().Search(query, workspaceSymbolLimit)
	if errors.Is(err, dfsense.ErrNoIndex) {
		c.Reply(ctx, r.ID, []protocol.SymbolInformation{})
		return
	}
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()})
		return
	}
	out := make([]protocol.SymbolInformation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSymbolInformation(row))
	}
	c.Reply(ctx, r.ID, out)
}

// Serve runs the protocol over rwc until the client disconnects, sends
// exit, or ctx is done.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), s)
	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

// stdio joins stdin and stdout into one stream.
type stdio struct {
	io.ReadCloser
	io.WriteCloser
}

func (s stdio) Close() error {
	return errors.Join(s.ReadCloser.Close(), s.WriteCloser.Close())
}

// ServeStdio runs the protocol over the process's standard streams.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, stdio{ReadCloser: os.Stdin, WriteCloser: os.Stdout})
}
