package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const hello = "package x.y.z;\npublic class X {\n    public static void main(String... args) {\n        System.out.println(\"hi\");\n    }\n}\n"

func newServer() *Server {
	return NewServer("test", service.NewSessions(service.WithClasspath()), env.New(env.WithClasspath()))
}

func call(t *testing.T, h mcp.ToolHandler, args any) *mcp.CallToolResult {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := h(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	c, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return c.Text
}

func response(t *testing.T, res *mcp.CallToolResult) service.Response {
	t.Helper()
	var resp service.Response
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &resp))
	return resp
}

func TestCompileTool(t *testing.T) {
	s := newServer()
	res := call(t, s.unitHandler(service.Compile), UnitParams{Java: hello})
	assert.False(t, res.IsError)

	resp := response(t, res)
	assert.Equal(t, service.StatusCompiled, resp.Status)
	require.NotEmpty(t, resp.Classes)
	assert.Equal(t, "x/y/z/X.class", resp.Classes[0].ClassName)
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, []byte(resp.Classes[0].ByteCode[:4]))
}

func TestCheckTool(t *testing.T) {
	s := newServer()
	resp := response(t, call(t, s.unitHandler(service.CheckForErrors), UnitParams{
		Java: "package p;\nclass A { int x = 1 }\n",
	}))
	assert.Equal(t, service.StatusErrors, resp.Status)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, 2, resp.Errors[0].Line)
	assert.Equal(t, "ERROR", resp.Errors[0].Kind)
}

func TestCompleteTool(t *testing.T) {
	s := newServer()
	src := "package p;\nclass A { void m() { System.out.pr } }\n"
	offset := len("package p;\nclass A { void m() { System.out.pr")
	resp := response(t, call(t, s.unitHandler(service.Autocomplete), UnitParams{Java: src, Offset: offset}))
	assert.Equal(t, service.StatusCompleted, resp.Status)
	assert.Equal(t, []string{"print", "printf", "println"}, resp.Completions)
}

func TestToolSessions(t *testing.T) {
	sessions := service.NewSessions(service.WithClasspath())
	s := NewServer("test", sessions, env.New(env.WithClasspath()))
	h := s.unitHandler(service.CheckForErrors)

	call(t, h, UnitParams{Java: hello, Session: "a"})
	call(t, h, UnitParams{Java: hello, Session: "a"})
	call(t, h, UnitParams{Java: hello})

	assert.Equal(t, 2, sessions.Len())
	assert.Equal(t, 1, sessions.Get("a").Reused())
	assert.Equal(t, 0, sessions.Get("").Reused())
}

func TestInvalidParameters(t *testing.T) {
	s := newServer()
	res := call(t, s.unitHandler(service.Compile), map[string]any{"java": 42})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid parameters")
}

func TestListResourcesTool(t *testing.T) {
	s := newServer()
	res := call(t, s.handleListResources, ResourcesParams{Folder: "java/util"})
	assert.False(t, res.IsError)

	var entries []struct {
		Path   string `json:"path"`
		Origin string `json:"origin"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &entries))
	var paths []string
	for _, e := range entries {
		assert.Equal(t, "platform", e.Origin)
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "java/util/ArrayList.class")
}
