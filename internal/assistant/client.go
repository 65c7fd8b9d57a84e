package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hal9000y/mail-assistant/internal/tool"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/"
	DefaultModel   = "claude-3-5-haiku-20241022"

	maxErrorBody = 2048
)

// CreateRequest is one Messages API call.
type CreateRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
	Messages  []Message         `json:"messages"`
	Tools     []tool.Definition `json:"tools,omitempty"`
}

// CreateResponse is the model turn returned by the Messages API.
type CreateResponse struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// Message converts the response into a conversation turn.
func (r *CreateResponse) Message() Message {
	role := r.Role
	if role == "" {
		role = RoleAssistant
	}
	return Message{Role: role, Content: r.Content}
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Model produces the next assistant turn for a request.
type Model interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// Client calls the assistant service with one API key.
type Client struct {
	baseURL string
	model   string
	http    *http.Client

	sdk anthropic.Client
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
	}
	if c.http != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(c.http))
	}
	c.sdk = anthropic.NewClient(sdkOpts...)

	return c
}

// Create sends one request. Every failure is an *OrchestrationError.
func (c *Client) Create(ctx context.Context, in CreateRequest) (*CreateResponse, error) {
	params, err := c.messageParams(in)
	if err != nil {
		return nil, &OrchestrationError{Message: err.Error(), Err: err}
	}

	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, transportError(err)
	}

	out := &CreateResponse{
		ID:         msg.ID,
		Role:       RoleAssistant,
		StopReason: string(msg.StopReason),
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content = append(out.Content, TextBlock(b.Text))
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(b.Input)
			if err != nil {
				return nil, &OrchestrationError{Message: fmt.Sprintf("invalid tool input: %v", err), Err: err}
			}
			out.Content = append(out.Content, ContentBlock{
				Type:  BlockToolUse,
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			})
		}
	}

	return out, nil
}

func (c *Client) messageParams(in CreateRequest) (anthropic.MessageNewParams, error) {
	model := in.Model
	if model == "" {
		model = c.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(in.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(in.Messages)),
	}
	if in.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: in.System}}
	}

	for _, m := range in.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case BlockToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			default:
				return params, fmt.Errorf("unsupported content block %q", b.Type)
			}
		}

		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		}
	}

	for _, def := range in.Tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
			return params, fmt.Errorf("invalid input schema for %s: %w", def.Name, err)
		}

		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        string(def.Name),
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema.Properties,
					Required:   schema.Required,
				},
			},
		})
	}

	return params, nil
}

// transportError turns an SDK failure into an *OrchestrationError carrying
// the HTTP status and the API's own error message when there is one.
func transportError(err error) *OrchestrationError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &OrchestrationError{
			Status:  apiErr.StatusCode,
			Message: apiErrorMessage(apiErr.StatusCode, apiErr.RawJSON()),
			Err:     err,
		}
	}
	return &OrchestrationError{Message: fmt.Sprintf("Messages.New failed: %v", err), Err: err}
}

func apiErrorMessage(status int, raw string) string {
	var apiErr apiErrorResponse
	if json.Unmarshal([]byte(raw), &apiErr) == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	if msg := strings.TrimSpace(raw); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
