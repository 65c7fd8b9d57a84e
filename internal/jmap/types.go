// Package jmap is a small JMAP client covering mailbox listing, email
// query/get and body part retrieval.
package jmap

import (
	"slices"
	"time"

	"github.com/hal9000y/mail-assistant/internal/priority"
)

// Session is the server-issued session descriptor.
type Session struct {
	APIURL          string            `json:"apiUrl"`
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
	Username        string            `json:"username,omitempty"`
	State           string            `json:"state,omitempty"`
}

// MailAccountID returns the primary account for the mail capability.
func (s *Session) MailAccountID() string {
	return s.PrimaryAccounts[CapabilityMail]
}

// Mailbox is one folder of the account. ParentID is empty for top-level
// mailboxes.
type Mailbox struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	SortOrder    int    `json:"sortOrder"`
	TotalEmails  int    `json:"totalEmails"`
	UnreadEmails int    `json:"unreadEmails"`
}

// Address is an email address with optional display name.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// BodyPart references one part of the message body.
type BodyPart struct {
	PartID string `json:"partId"`
	BlobID string `json:"blobId,omitempty"`
	Type   string `json:"type,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// BodyValue is the decoded content of a text body part.
type BodyValue struct {
	Value             string `json:"value"`
	IsTruncated       bool   `json:"isTruncated,omitempty"`
	IsEncodingProblem bool   `json:"isEncodingProblem,omitempty"`
}

// Email is an email record as returned by Email/get. BodyContent is not part
// of the protocol; callers attach it once via Conn.AttachBodies.
type Email struct {
	ID          string               `json:"id"`
	Subject     string               `json:"subject"`
	From        []Address            `json:"from,omitempty"`
	To          []Address            `json:"to,omitempty"`
	CC          []Address            `json:"cc,omitempty"`
	BCC         []Address            `json:"bcc,omitempty"`
	ReceivedAt  string               `json:"receivedAt"`
	Keywords    map[string]bool      `json:"keywords,omitempty"`
	TextBody    []BodyPart           `json:"textBody,omitempty"`
	HTMLBody    []BodyPart           `json:"htmlBody,omitempty"`
	BodyValues  map[string]BodyValue `json:"bodyValues,omitempty"`
	BodyContent string               `json:"bodyContent,omitempty"`
}

func (e Email) PriorityKeywords() map[string]bool {
	return e.Keywords
}

// ReceivedTime parses ReceivedAt; ok is false when it is missing or invalid.
func (e Email) ReceivedTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.ReceivedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsPriority reports whether the email carries a priority keyword.
func (e Email) IsPriority() bool {
	return priority.IsPriority(e.Keywords)
}

// KeywordNames returns the set keywords in sorted order.
func (e Email) KeywordNames() []string {
	names := make([]string, 0, len(e.Keywords))
	for k, set := range e.Keywords {
		if set {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}

// Sender returns the first From address, or fallback when there is none.
func (e Email) Sender(fallback string) string {
	return firstAddress(e.From, fallback)
}

// Recipient returns the first To address, or fallback when there is none.
func (e Email) Recipient(fallback string) string {
	return firstAddress(e.To, fallback)
}

func firstAddress(addrs []Address, fallback string) string {
	if len(addrs) == 0 || addrs[0].Email == "" {
		return fallback
	}
	return addrs[0].Email
}
