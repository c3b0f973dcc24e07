package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/continuum"
	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing every persisted session.
const SessionsURI = "continuum://sessions"

// Summary is the compact view returned by list_sessions.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Events    int    `json:"events"`
	Revision  uint64 `json:"revision"`
	UpdatedAt string `json:"updated_at"`
}

// Server exposes the durable session store as MCP tools so that editor agents
// can inspect flushed sessions.
type Server struct {
	store     ports.SessionStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(store ports.SessionStore, opts ...Option) *Server {
	s := &Server{
		store:     store,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("continuum-mcp", strings.TrimSpace(continuum.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: list_sessions
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List persisted editor sessions with their size and last update."),
	), s.handleListSessions)

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get a persisted session including its full event log."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
	), s.handleGetSession)
}

func (s *Server) registerResources() {
	// EXPOSE: continuum://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Persisted Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summaries, err := s.summaries(ctx)
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(summaries)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.summaries(ctx)
	if err != nil {
		s.logger.Error("MCP list_sessions failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(summaries)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	if err != nil {
		s.logger.Error("MCP get_session failed", "session_id", id, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(sess)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// summaries loads every listed session. Sessions deleted between List and Load are skipped.
func (s *Server) summaries(ctx context.Context) ([]Summary, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.store.Load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		out = append(out, Summary{
			ID:        sess.ID,
			Title:     sess.Title,
			Workspace: sess.Workspace,
			Events:    len(sess.Events),
			Revision:  sess.Revision,
			UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
