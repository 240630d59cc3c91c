package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type fakeAsker struct {
	err error
}

func (f fakeAsker) Ask(_ context.Context, filename, query string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{
		Query: query,
		Text:  "answer for " + filename,
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{Index: 2, Text: "chunk text"}, Score: 0.5},
		},
	}, nil
}

func call(t *testing.T, asker domain.Asker, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolName
	req.Params.Arguments = args
	res, err := askHandler(asker, nil)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestAskTool(t *testing.T) {
	res := call(t, fakeAsker{}, map[string]any{"filename": "notes", "query": "q"})
	require.False(t, res.IsError)

	lines := strings.Split(strings.TrimSpace(text(t, res)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "answer for notes", lines[0])

	var src map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &src))
	assert.Equal(t, "chunk text", src["text"])
	assert.EqualValues(t, 2, src["index"])
}

func TestAskTool_Errors(t *testing.T) {
	cases := []struct {
		name  string
		asker domain.Asker
		args  map[string]any
	}{
		{name: "missing filename", asker: fakeAsker{}, args: map[string]any{"query": "q"}},
		{name: "missing query", asker: fakeAsker{}, args: map[string]any{"filename": "notes"}},
		{name: "bad filename", asker: fakeAsker{}, args: map[string]any{"filename": "../x", "query": "q"}},
		{name: "pipeline failure", asker: fakeAsker{err: errors.New("boom")}, args: map[string]any{"filename": "notes", "query": "q"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := call(t, c.asker, c.args)
			assert.True(t, res.IsError)
		})
	}
}

func TestNew(t *testing.T) {
	srv := New(fakeAsker{}, "test", nil)
	assert.NotNil(t, srv)
}
