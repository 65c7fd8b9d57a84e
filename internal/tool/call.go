// Package tool implements the mailbox tools offered to the assistant: their
// catalogue, their handlers, and an MCP server exposing the same handlers.
package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Name identifies a tool of the catalogue.
type Name string

const (
	NameSearchEmails    Name = "search_emails"
	NameGetMailboxes    Name = "get_mailboxes"
	NameGetEmailDetails Name = "get_email_details"
)

// ErrUnknownTool is returned by Decode for names outside the catalogue.
var ErrUnknownTool = errors.New("unknown tool")

// Call is a decoded tool invocation. The set of implementations is closed:
// SearchEmailsRequest, GetMailboxesRequest and GetEmailDetailsRequest.
type Call interface {
	ToolName() Name
	sealed()
}

// EmailQuery holds Email/query filter criteria.
type EmailQuery struct {
	From       string `json:"from,omitempty" jsonschema:"filter by sender email address"`
	To         string `json:"to,omitempty" jsonschema:"filter by recipient email address"`
	Subject    string `json:"subject,omitempty" jsonschema:"filter by subject keywords"`
	HasKeyword string `json:"hasKeyword,omitempty" jsonschema:"filter by JMAP keyword like $flagged or $seen"`
	Text       string `json:"text,omitempty" jsonschema:"filter by body text content"`
	After      string `json:"after,omitempty" jsonschema:"emails received after this date (ISO format)"`
	Before     string `json:"before,omitempty" jsonschema:"emails received before this date (ISO format)"`
	InMailbox  string `json:"inMailbox,omitempty" jsonschema:"filter by mailbox ID"`
}

// SearchEmailsRequest searches emails by criteria and mailbox name.
type SearchEmailsRequest struct {
	Query       EmailQuery `json:"query,omitempty" jsonschema:"JMAP Email/query filter criteria"`
	Limit       int        `json:"limit,omitempty" jsonschema:"maximum number of emails to return (default 20)"`
	MailboxName string     `json:"mailboxName,omitempty" jsonschema:"human-readable mailbox name to search in, e.g. Inbox or Sent"`
}

// GetMailboxesRequest lists the mailboxes of the account.
type GetMailboxesRequest struct{}

// GetEmailDetailsRequest fetches full details for explicit email ids.
type GetEmailDetailsRequest struct {
	EmailIDs []string `json:"emailIds" jsonschema:"email IDs to fetch details for"`
}

func (SearchEmailsRequest) ToolName() Name    { return NameSearchEmails }
func (GetMailboxesRequest) ToolName() Name    { return NameGetMailboxes }
func (GetEmailDetailsRequest) ToolName() Name { return NameGetEmailDetails }

func (SearchEmailsRequest) sealed()    {}
func (GetMailboxesRequest) sealed()    {}
func (GetEmailDetailsRequest) sealed() {}

// Decode turns a tool name and its raw input into a Call.
func Decode(name string, input json.RawMessage) (Call, error) {
	input = normalizeInput(input)

	switch Name(name) {
	case NameSearchEmails:
		var c SearchEmailsRequest
		if err := json.Unmarshal(input, &c); err != nil {
			return nil, fmt.Errorf("invalid %s input: %w", name, err)
		}
		return c, nil
	case NameGetMailboxes:
		return GetMailboxesRequest{}, nil
	case NameGetEmailDetails:
		var c GetEmailDetailsRequest
		if err := json.Unmarshal(input, &c); err != nil {
			return nil, fmt.Errorf("invalid %s input: %w", name, err)
		}
		if len(c.EmailIDs) == 0 {
			return nil, fmt.Errorf("invalid %s input: emailIds is required", name)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func normalizeInput(input json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}
