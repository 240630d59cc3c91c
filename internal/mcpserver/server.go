// Package mcpserver exposes the question flow as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ragqa/internal/domain"
	"ragqa/internal/service"
)

const ToolName = "ask_document"

func New(asker domain.Asker, version string, logger *slog.Logger) *server.MCPServer {
	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Answer a question using the contents of a text document in the working directory"),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Base name of the document, without the .txt extension"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Question to answer"),
		))

	srv := server.NewMCPServer("ragqa", version, server.WithToolCapabilities(false))
	srv.AddTool(tool, askHandler(asker, logger))
	return srv
}

func askHandler(asker domain.Asker, logger *slog.Logger) server.ToolHandlerFunc {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename, err := request.RequireString("filename")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := service.ValidateFilename(filename); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answer, err := asker.Ask(ctx, filename, query)
		if err != nil {
			logger.Error("ask failed", "file", filename, "err", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		var sb strings.Builder
		sb.WriteString(answer.Text)
		sb.WriteString("\n")
		for _, r := range answer.Sources {
			raw, err := json.Marshal(struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
				Text  string  `json:"text"`
			}{
				Index: r.Chunk.Index,
				Score: r.Score,
				Text:  r.Chunk.Text,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sb.Write(raw)
			sb.WriteString("\n")
		}
		logger.Info("ask", "file", filename, "sources", len(answer.Sources))
		return mcp.NewToolResultText(sb.String()), nil
	}
}
