package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hal9000y/mail-assistant/internal/jmap"
	"github.com/hal9000y/mail-assistant/internal/tool"
)

const (
	DefaultMaxTurns = 8

	summaryMaxTokens     = 5000
	chatEmailsMaxTokens  = 2000
	chatMailboxMaxTokens = 3000
)

// ToolExecutor satisfies tool invocations. The result is sent back to the
// model as JSON; failures are part of the result, never an error.
type ToolExecutor interface {
	Invoke(ctx context.Context, name string, input json.RawMessage) any
}

// Request starts one exchange.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// UseTools offers the tool catalogue to the model.
	UseTools bool
}

// Result is the outcome of a finished exchange.
type Result struct {
	Text         string
	Turns        int
	Conversation *Conversation
}

// Orchestrator runs the tool-use loop against a Model.
type Orchestrator struct {
	model Model
	tools ToolExecutor

	// MaxTurns bounds the number of model calls of one exchange.
	MaxTurns int
}

// NewOrchestrator creates an orchestrator. tools may be nil when only
// tool-free flows are used.
func NewOrchestrator(model Model, tools ToolExecutor) *Orchestrator {
	return &Orchestrator{
		model:    model,
		tools:    tools,
		MaxTurns: DefaultMaxTurns,
	}
}

// Run drives the exchange until the model answers with text only.
func (o *Orchestrator) Run(ctx context.Context, in Request) (*Result, error) {
	if in.UseTools && o.tools == nil {
		return nil, errors.New("orchestrator has no tool executor")
	}

	maxTurns := o.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	var tools []tool.Definition
	if in.UseTools {
		tools = tool.Catalogue()
	}

	conv := &Conversation{}
	conv.Append(Message{Role: RoleUser, Content: []ContentBlock{TextBlock(in.Prompt)}})

	for turn := 1; turn <= maxTurns; turn++ {
		resp, err := o.model.Create(ctx, CreateRequest{
			MaxTokens: in.MaxTokens,
			System:    in.System,
			Messages:  conv.Messages(),
			Tools:     tools,
		})
		if err != nil {
			return nil, err
		}

		reply := resp.Message()
		uses := reply.ToolUses()
		if len(uses) == 0 {
			text := reply.Text()
			if text == "" {
				return nil, &OrchestrationError{Message: "unexpected response format: no text content"}
			}
			conv.Append(reply)
			return &Result{Text: text, Turns: turn, Conversation: conv}, nil
		}

		if turn == maxTurns {
			break
		}

		conv.Append(reply)
		conv.Append(Message{Role: RoleUser, Content: o.execute(ctx, uses)})
	}

	return nil, &OrchestrationError{
		Message: fmt.Sprintf("model still requesting tools after %d turns", maxTurns),
		Err:     ErrTurnLimit,
	}
}

// execute resolves every invocation of a turn, in order.
func (o *Orchestrator) execute(ctx context.Context, uses []ContentBlock) []ContentBlock {
	results := make([]ContentBlock, 0, len(uses))
	for _, use := range uses {
		log.Printf("assistant: invoking tool %s (%s)", use.Name, use.ID)

		var result any
		if o.tools == nil {
			result = tool.Failure{Error: "no tools available"}
		} else {
			result = o.tools.Invoke(ctx, use.Name, use.Input)
		}

		raw, err := json.Marshal(result)
		if err != nil {
			failure, _ := json.Marshal(tool.Failure{Error: fmt.Sprintf("json.Marshal failed: %v", err)})
			block := ToolResultBlock(use.ID, string(failure))
			block.IsError = true
			results = append(results, block)
			continue
		}

		results = append(results, ToolResultBlock(use.ID, string(raw)))
	}
	return results
}

// Summarize produces a summary of the given emails, priority ones first.
func (o *Orchestrator) Summarize(ctx context.Context, emails []jmap.Email) (string, error) {
	res, err := o.Run(ctx, Request{
		Prompt:    summaryPrompt(emails),
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ChatWithEmails answers a question about emails already in hand.
func (o *Orchestrator) ChatWithEmails(ctx context.Context, message string, emails []jmap.Email) (string, error) {
	res, err := o.Run(ctx, Request{
		Prompt:    chatEmailsPrompt(message, emails),
		MaxTokens: chatEmailsMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ChatWithMailbox answers a question letting the model query the mailbox
// through the tool catalogue.
func (o *Orchestrator) ChatWithMailbox(ctx context.Context, message string) (string, error) {
	res, err := o.Run(ctx, Request{
		Prompt:    chatMailboxPrompt(message),
		MaxTokens: chatMailboxMaxTokens,
		UseTools:  true,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
