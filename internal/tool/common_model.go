package tool

import "github.com/hal9000y/mail-assistant/internal/jmap"

// Failure is the result of a tool call that could not be satisfied.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// EmailPreview is the compact projection returned by search_emails.
type EmailPreview struct {
	ID          string   `json:"id" jsonschema:"email ID"`
	Subject     string   `json:"subject" jsonschema:"email subject"`
	From        string   `json:"from" jsonschema:"first sender address"`
	To          string   `json:"to" jsonschema:"first recipient address"`
	ReceivedAt  string   `json:"receivedAt" jsonschema:"receipt timestamp"`
	BodyContent string   `json:"bodyContent" jsonschema:"body preview"`
	Keywords    []string `json:"keywords,omitempty" jsonschema:"keywords set on the email"`
	IsPriority  bool     `json:"isPriority" jsonschema:"flagged or marked important"`
}

// SearchEmailsResponse is the result of search_emails.
type SearchEmailsResponse struct {
	Success bool           `json:"success" jsonschema:"whether the search succeeded"`
	Error   string         `json:"error,omitempty" jsonschema:"failure reason"`
	Count   int            `json:"count" jsonschema:"number of emails returned"`
	Emails  []EmailPreview `json:"emails,omitzero" jsonschema:"matching emails, priority first then newest"`
}

// MailboxSummary describes one mailbox.
type MailboxSummary struct {
	ID           string `json:"id" jsonschema:"mailbox ID"`
	Name         string `json:"name" jsonschema:"display name"`
	Role         string `json:"role,omitempty" jsonschema:"role such as inbox or sent"`
	ParentID     string `json:"parentId,omitempty" jsonschema:"parent mailbox ID"`
	TotalEmails  int    `json:"totalEmails" jsonschema:"number of emails"`
	UnreadEmails int    `json:"unreadEmails" jsonschema:"number of unread emails"`
}

// GetMailboxesResponse is the result of get_mailboxes.
type GetMailboxesResponse struct {
	Success   bool             `json:"success" jsonschema:"whether the listing succeeded"`
	Error     string           `json:"error,omitempty" jsonschema:"failure reason"`
	Mailboxes []MailboxSummary `json:"mailboxes,omitzero" jsonschema:"mailboxes of the account"`
}

// EmailDetail is the full projection returned by get_email_details.
type EmailDetail struct {
	ID          string         `json:"id" jsonschema:"email ID"`
	Subject     string         `json:"subject" jsonschema:"email subject"`
	From        []jmap.Address `json:"from,omitempty" jsonschema:"senders"`
	To          []jmap.Address `json:"to,omitempty" jsonschema:"recipients"`
	CC          []jmap.Address `json:"cc,omitempty" jsonschema:"CC recipients"`
	BCC         []jmap.Address `json:"bcc,omitempty" jsonschema:"BCC recipients"`
	ReceivedAt  string         `json:"receivedAt" jsonschema:"receipt timestamp"`
	BodyContent string         `json:"bodyContent" jsonschema:"body text"`
	Keywords    []string       `json:"keywords,omitempty" jsonschema:"keywords set on the email"`
	IsPriority  bool           `json:"isPriority" jsonschema:"flagged or marked important"`
}

// GetEmailDetailsResponse is the result of get_email_details.
type GetEmailDetailsResponse struct {
	Success bool          `json:"success" jsonschema:"whether the fetch succeeded"`
	Error   string        `json:"error,omitempty" jsonschema:"failure reason"`
	Emails  []EmailDetail `json:"emails,omitzero" jsonschema:"requested emails"`
}
