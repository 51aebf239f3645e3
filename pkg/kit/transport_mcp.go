package kit

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MetaRequestID is the _meta field a client may set to carry its own
// request id into a tool call.
const MetaRequestID = "request_id"

// MCPDecoder turns tool arguments into the request value an Endpoint takes.
type MCPDecoder func(mcp.CallToolRequest) (any, error)

// MCPHandler adapts an Endpoint to an MCP tool handler.
//
// The context carries the "mcp" transport and the caller's _meta request id,
// or a fresh one. Decode and endpoint failures become tool errors, never
// protocol errors. Responses are returned both as structured content and as
// their JSON text.
func MCPHandler(endpoint Endpoint, decode MCPDecoder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithRequestID(WithTransport(ctx, "mcp"), mcpRequestID(req))

		in, err := decode(req)
		if err != nil {
			return mcp.NewToolResultErrorf("invalid arguments for %s: %v", req.Params.Name, err), nil
		}
		out, err := endpoint(ctx, in)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultErrorf("encode %s result: %v", req.Params.Name, err), nil
		}
		return mcp.NewToolResultStructured(out, string(data)), nil
	}
}

// RegisterMCPTool adds tool to srv, served by endpoint.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, MCPHandler(endpoint, decode))
}

func mcpRequestID(req mcp.CallToolRequest) string {
	if meta := req.Params.Meta; meta != nil {
		if id, ok := meta.AdditionalFields[MetaRequestID].(string); ok && id != "" {
			return id
		}
	}
	return NewRequestID()
}
