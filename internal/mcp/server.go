package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/naflume/internal/guidance"
	"github.com/ziadkadry99/naflume/internal/logger"
	"github.com/ziadkadry99/naflume/internal/quran"
	"github.com/ziadkadry99/naflume/internal/version"
)

// GuidanceService is the part of guidance.Service the tools read from.
type GuidanceService interface {
	Search(ctx context.Context, query string, f guidance.Filter, offset, limit int) (guidance.SearchResult, error)
	VerseOfTheDay(ctx context.Context) (*guidance.Entry, error)
	ByReference(ctx context.Context, ref string) (*guidance.Entry, error)
	Themes(ctx context.Context) ([]string, error)
}

// VerseLookup fetches single verses from the verse API.
type VerseLookup interface {
	Verse(ctx context.Context, surah, ayah int, translations []string) *quran.Verse
}

// Server wraps an MCP server that exposes content lookup tools.
type Server struct {
	guidance GuidanceService
	verses   VerseLookup
	log      *logger.Logger
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(g GuidanceService, verses VerseLookup, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		guidance: g,
		verses:   verses,
		log:      log.With("component", "mcp"),
	}

	s.mcp = server.NewMCPServer(
		"naflume",
		version.Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchGuidanceTool, s.handleSearchGuidance)
	s.mcp.AddTool(verseOfTheDayTool, s.handleVerseOfTheDay)
	s.mcp.AddTool(getByReferenceTool, s.handleGetByReference)
	s.mcp.AddTool(listThemesTool, s.handleListThemes)
	s.mcp.AddTool(getQuranVerseTool, s.handleGetQuranVerse)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
