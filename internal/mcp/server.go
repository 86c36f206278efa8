package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/soassoc/internal/association"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes question lookup tools.
type Server struct {
	ctrl         *controller.Controller
	source       stackexchange.Source
	associations *association.Store
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server. associations may be nil, in which
// case the get_association tool is not offered.
func NewServer(ctrl *controller.Controller, source stackexchange.Source, associations *association.Store) *Server {
	s := &Server{
		ctrl:         ctrl,
		source:       source,
		associations: associations,
	}

	s.mcp = server.NewMCPServer(
		"soassoc",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getQuestionTool, s.handleGetQuestion)
	s.mcp.AddTool(findCandidatesTool, s.handleFindCandidates)
	if s.associations != nil {
		s.mcp.AddTool(getAssociationTool, s.handleGetAssociation)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
