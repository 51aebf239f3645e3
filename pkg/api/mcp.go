package api

import (
	"github.com/hazyhaar/kanaseek/pkg/kit"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the kanaseek MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps *Endpoints) {
	registerSearch(srv, eps)
	registerListFields(srv, eps)
}

func registerSearch(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("search",
		mcp.WithDescription("Fuzzy search over the loaded records. Japanese text matches across half-width/full-width and katakana/hiragana variants. Returns hits with highlighted segments per field."),
		mcp.WithString("q", mcp.Required(), mcp.Description("The search text")),
		mcp.WithString("mode", mcp.Description("and (every token), or (any token) or plain (raw fuzzy syntax)"), mcp.Enum("and", "or", "plain")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (0 = server default)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Search, func(req mcp.CallToolRequest) (any, error) {
		q, err := req.RequireString("q")
		if err != nil {
			return nil, err
		}
		mode := eps.Defaults.Mode
		if s := req.GetString("mode", ""); s != "" {
			if mode, err = query.ParseMode(s); err != nil {
				return nil, err
			}
		}
		limit := eps.Defaults.Limit
		if n := req.GetInt("limit", 0); n > 0 {
			limit = n
		}
		return &searchReq{Query: q, Mode: mode, Limit: limit}, nil
	})
}

func registerListFields(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("list_fields",
		mcp.WithDescription("List the searchable fields of the loaded records with their normalized and tokenized keys."),
	)

	kit.RegisterMCPTool(srv, tool, eps.Fields, func(mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}
