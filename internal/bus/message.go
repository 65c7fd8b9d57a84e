// Package bus implements the message contract the user interface speaks:
// every request is one Message naming an action, answered by one Reply.
package bus

import (
	"context"

	"github.com/hal9000y/mail-assistant/internal/jmap"
)

// Actions.
const (
	ActionAuthenticate    = "authenticate"
	ActionSetAPIToken     = "setApiToken"
	ActionGetMailboxes    = "getMailboxes"
	ActionSummarizeEmails = "summarizeEmails"
	ActionChatWithAI      = "chatWithAI"
)

// Message is a request. Only the fields of its action are read.
type Message struct {
	Action string `json:"action"`

	// setApiToken
	EncryptedAPIToken string `json:"encryptedApiToken,omitempty"`

	// summarizeEmails
	EncryptedAssistantKey string   `json:"encryptedClaudeApiKey,omitempty"`
	EmailCount            int      `json:"emailCount,omitempty"`
	MailboxIDs            []string `json:"mailboxIds,omitempty"`

	// chatWithAI
	Message         string       `json:"message,omitempty"`
	EmailData       []jmap.Email `json:"emailData,omitempty"`
	UseEnhancedMode bool         `json:"useEnhancedMode,omitempty"`
}

// Reply answers a Message. Failures set Success to false and Error.
// Collections are omitted when nil and encoded as [] when empty.
type Reply struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	Mailboxes   []jmap.Mailbox `json:"mailboxes,omitzero"`
	Summary     string         `json:"summary,omitempty"`
	SummaryHTML string         `json:"summaryHtml,omitempty"`
	EmailData   []jmap.Email   `json:"emailData,omitzero"`
	Response    string         `json:"response,omitempty"`
}

// MessageBus answers messages.
type MessageBus interface {
	Dispatch(ctx context.Context, msg Message) Reply
}
