package admin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/codegen-suggest/internal/queue"
)

func newTestMCPServer(q Queue) *MCPServer {
	return NewMCPServer(MCPConfig{Name: "suggestd-admin", Version: "test"}, q, fakeConfig{}, nil, nil)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestNewMCPServer(t *testing.T) {
	ms := newTestMCPServer(&fakeQueue{})
	require.NotNil(t, ms)
	require.NotNil(t, ms.server)
	assert.NoError(t, ms.Shutdown(context.Background()))
}

func TestHandleQueueStats(t *testing.T) {
	ms := newTestMCPServer(&fakeQueue{waiting: 1})

	result, err := ms.handleQueueStats(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: toolQueueStats},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var stats queue.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &stats))
	assert.Equal(t, 1, stats.QueueLength)
	assert.True(t, stats.IsProcessing)
	require.Len(t, stats.Items, 1)
	assert.Equal(t, queue.ItemStatusQueued, stats.Items[0].Status)
}

func TestHandleQueueClear(t *testing.T) {
	q := &fakeQueue{waiting: 4}
	ms := newTestMCPServer(q)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		wantText  string
	}{
		{"missing confirm", map[string]interface{}{}, true, ""},
		{"not confirmed", map[string]interface{}{"confirm": false}, true, errConfirmNeeded},
		{"confirmed", map[string]interface{}{"confirm": true}, false, "Cleared 4 request(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ms.handleQueueClear(context.Background(), mcp.CallToolRequest{
				Params: mcp.CallToolParams{Name: toolQueueClear, Arguments: tt.args},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, result.IsError)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, resultText(t, result))
			}
		})
	}
	assert.Equal(t, 1, q.clears)
}

func TestHandleSuggestionConfig(t *testing.T) {
	ms := newTestMCPServer(&fakeQueue{})

	result, err := ms.handleSuggestionConfig(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: toolSuggestionConfig},
	})
	require.NoError(t, err)

	var view ConfigView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &view))
	assert.Equal(t, ConfigView{
		Configured:     true,
		Model:          "gemini-test",
		MaxRetries:     2,
		TimeoutMS:      30000,
		MaxInputLength: 10000,
	}, view)
}
