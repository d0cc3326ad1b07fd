// Package mcp exposes the development service as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/service"
)

var log = commonlog.GetLogger("dew.mcp")

// UnitParams are the arguments of the compile, check and complete tools.
type UnitParams struct {
	Session string `json:"session,omitempty"`
	Java    string `json:"java"`
	HTML    string `json:"html,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

type ResourcesParams struct {
	Folder string `json:"folder"`
}

type Server struct {
	sessions *service.Sessions
	env      *env.Environment
	server   *mcp.Server
}

// NewServer registers the tools. Classpath listings read from e.
func NewServer(version string, sessions *service.Sessions, e *env.Environment) *Server {
	s := &Server{
		sessions: sessions,
		env:      e,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "dew",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context) error {
	log.Info("serving MCP on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func unitSchema(withOffset bool) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"java": {
			Type:        "string",
			Description: "Source text of one compilation unit; must declare a package and a type",
		},
		"html": {
			Type:        "string",
			Description: "Page the unit belongs to",
		},
		"session": {
			Type:        "string",
			Description: "Session id; units are reused within a session while the source is unchanged",
		},
	}
	required := []string{"java"}
	if withOffset {
		props["offset"] = &jsonschema.Schema{
			Type:        "integer",
			Description: "Byte offset of the cursor in java",
		}
		required = append(required, "offset")
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "compile",
		Description: "Compile a source unit and return its class files, main class first, with any errors",
		InputSchema: unitSchema(false),
	}, s.unitHandler(service.Compile))

	s.server.AddTool(&mcp.Tool{
		Name:        "check",
		Description: "Check a source unit and return its errors with 1-based line and column",
		InputSchema: unitSchema(false),
	}, s.unitHandler(service.CheckForErrors))

	s.server.AddTool(&mcp.Tool{
		Name:        "complete",
		Description: "List the completions at a byte offset of a source unit",
		InputSchema: unitSchema(true),
	}, s.unitHandler(service.Autocomplete))

	s.server.AddTool(&mcp.Tool{
		Name:        "list_resources",
		Description: "List the class files in a folder of the platform and the classpath, e.g. java/util",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"folder": {
					Type:        "string",
					Description: "Slash-separated package folder",
				},
			},
			Required: []string{"folder"},
		},
	}, s.handleListResources)
}

func (s *Server) unitHandler(typ service.RequestType) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params UnitParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return errorResult(fmt.Errorf("invalid parameters: %w", err)), nil
		}
		resp := s.sessions.Get(params.Session).Handle(ctx, service.Request{
			Type:   typ,
			HTML:   params.HTML,
			Java:   params.Java,
			Offset: params.Offset,
		})
		log.Debug("tool call", "type", typ, "session", params.Session, "status", resp.Status)
		return jsonResult(resp)
	}
}

func (s *Server) handleListResources(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ResourcesParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult(fmt.Errorf("invalid parameters: %w", err)), nil
	}
	resources, err := s.env.ListResources(ctx, params.Folder)
	if err != nil {
		return errorResult(err), nil
	}
	type entry struct {
		Path   string `json:"path"`
		Origin string `json:"origin"`
		Source string `json:"source,omitempty"`
	}
	out := make([]entry, 0, len(resources))
	for _, r := range resources {
		out = append(out, entry{Path: r.Path, Origin: r.Origin.String(), Source: r.Source})
	}
	return jsonResult(out)
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
