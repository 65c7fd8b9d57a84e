package assistant_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-assistant/internal/assistant"
	"github.com/hal9000y/mail-assistant/internal/tool"
)

const testAPIKey = "sk-ant-test-key"

type recordedRequest struct {
	Header http.Header
	Path   string
	Body   sentRequest
	Raw    map[string]any
}

// sentRequest is the Messages API body as it went over the wire.
type sentRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    []sentBlock       `json:"system"`
	Messages  []sentMessage     `json:"messages"`
	Tools     []tool.Definition `json:"tools"`
}

type sentMessage struct {
	Role    assistant.Role `json:"role"`
	Content []sentBlock    `json:"content"`
}

func (m sentMessage) toolUses() []sentBlock {
	var uses []sentBlock
	for _, b := range m.Content {
		if b.Type == assistant.BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

type sentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// resultText returns the text of a tool_result block, sent either as a plain
// string or as a list of text blocks.
func (b sentBlock) resultText() string {
	var s string
	if json.Unmarshal(b.Content, &s) == nil {
		return s
	}

	var parts []sentBlock
	if json.Unmarshal(b.Content, &parts) != nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// fakeModel replays scripted Messages API responses in order. Once the
// script is exhausted the last response repeats.
type fakeModel struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	status    int
	responses []string
	requests  []recordedRequest
}

func newFakeModel(t *testing.T, responses ...string) *fakeModel {
	f := &fakeModel{t: t, responses: responses}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeModel) client() *assistant.Client {
	return assistant.NewClient(testAPIKey,
		assistant.WithBaseURL(f.srv.URL+"/"),
		assistant.WithHTTPClient(f.srv.Client()),
	)
}

func (f *fakeModel) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeModel) serve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	rec := recordedRequest{Header: r.Header.Clone(), Path: r.URL.Path}
	require.NoError(f.t, json.Unmarshal(raw, &rec.Body))
	require.NoError(f.t, json.Unmarshal(raw, &rec.Raw))

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	idx := len(f.requests) - 1
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
		return
	}

	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	_, _ = w.Write([]byte(f.responses[idx]))
}

func textResponse(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"id":          "msg_text",
		"role":        "assistant",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": text}},
	})
	return string(raw)
}

func toolUseResponse(uses ...map[string]any) string {
	content := []map[string]any{{"type": "text", "text": "Let me check."}}
	for _, u := range uses {
		content = append(content, map[string]any{
			"type":  "tool_use",
			"id":    u["id"],
			"name":  u["name"],
			"input": u["input"],
		})
	}
	raw, _ := json.Marshal(map[string]any{
		"id":          "msg_tool",
		"role":        "assistant",
		"stop_reason": "tool_use",
		"content":     content,
	})
	return string(raw)
}

func use(id, name string, input any) map[string]any {
	return map[string]any{"id": id, "name": name, "input": input}
}
