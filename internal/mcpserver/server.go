// Package mcpserver publishes the tools and actions as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"AgentKit-Chain/internal/actions"
	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/schema"
	"AgentKit-Chain/internal/tools"
	"AgentKit-Chain/pkg/logger"
)

// Server wraps an MCP server carrying one MCP tool per tool and per action.
type Server struct {
	mcp *server.MCPServer
}

// New registers toolset and every action of registry. Either may be empty.
func New(cfg config.MCPConfig, toolset []tools.Tool, registry *actions.Registry) *Server {
	s := server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(false))

	for _, t := range toolset {
		s.AddTool(describe(t.Name(), t.Description(), t.Fields()), toolHandler(t))
	}
	if registry != nil {
		for _, a := range registry.List() {
			s.AddTool(describe(a.Name, a.Description, a.Schema), actionHandler(registry, a.Name))
		}
	}
	return &Server{mcp: s}
}

// MCP exposes the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve speaks MCP over the given streams until ctx is cancelled or in
// reaches EOF.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	logger.Named("mcp").Info("MCP 服务已启动")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func describe(name, description string, fields schema.Fields) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, f := range fields {
		opts = append(opts, property(f))
	}
	return mcp.NewTool(name, opts...)
}

func property(f schema.Field) mcp.ToolOption {
	var popts []mcp.PropertyOption
	if f.Description != "" {
		popts = append(popts, mcp.Description(f.Description))
	}
	if f.Required {
		popts = append(popts, mcp.Required())
	}
	if len(f.Enum) > 0 {
		popts = append(popts, mcp.Enum(f.Enum...))
	}

	switch f.Kind {
	case schema.Number, schema.Integer:
		if v, ok := f.Default.(float64); ok {
			popts = append(popts, mcp.DefaultNumber(v))
		}
		if f.Kind == schema.Integer {
			popts = append(popts, integerType)
		}
		return mcp.WithNumber(f.Name, popts...)
	case schema.Boolean:
		if v, ok := f.Default.(bool); ok {
			popts = append(popts, mcp.DefaultBool(v))
		}
		return mcp.WithBoolean(f.Name, popts...)
	default:
		if v, ok := f.Default.(string); ok {
			popts = append(popts, mcp.DefaultString(v))
		}
		return mcp.WithString(f.Name, popts...)
	}
}

// integerType 覆盖 WithNumber 写入的 "number"，mcp-go 没有单独的整数属性。
func integerType(prop map[string]any) {
	prop["type"] = "integer"
}

// toolHandler 将参数重新编码为 JSON 字符串交给工具，信封原样作为文本返回。
func toolHandler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := ""
		if args := req.GetArguments(); len(args) > 0 {
			data, err := json.Marshal(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			input = string(data)
		}
		env := t.Run(ctx, input)
		result := mcp.NewToolResultText(tools.Encode(env))
		result.IsError = !env.Succeeded()
		return result, nil
	}
}

func actionHandler(registry *actions.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := registry.Execute(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
