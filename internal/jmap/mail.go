package jmap

import (
	"context"
	"fmt"

	"github.com/hal9000y/mail-assistant/internal/priority"
)

const (
	methodMailboxGet = "Mailbox/get"
	methodEmailQuery = "Email/query"
	methodEmailGet   = "Email/get"
)

var (
	mailboxProperties = []string{"id", "name", "role", "parentId", "sortOrder", "totalEmails", "unreadEmails"}

	recentEmailProperties = []string{
		"id", "subject", "from", "to", "receivedAt",
		"textBody", "htmlBody", "bodyValues", "keywords",
	}

	fullEmailProperties = []string{
		"id", "subject", "from", "to", "cc", "bcc", "receivedAt",
		"textBody", "htmlBody", "bodyValues", "keywords",
	}
)

type mailboxGetArgs struct {
	AccountID  string   `json:"accountId"`
	IDs        []string `json:"ids"`
	Properties []string `json:"properties"`
}

type emailGetArgs struct {
	AccountID           string           `json:"accountId"`
	IDs                 []string         `json:"ids,omitempty"`
	IDsRef              *ResultReference `json:"#ids,omitempty"`
	Properties          []string         `json:"properties"`
	FetchTextBodyValues bool             `json:"fetchTextBodyValues,omitempty"`
	FetchHTMLBodyValues bool             `json:"fetchHTMLBodyValues,omitempty"`
}

// Comparator is a sort criterion for Email/query.
type Comparator struct {
	Property    string `json:"property"`
	IsAscending bool   `json:"isAscending"`
}

type emailQueryArgs struct {
	AccountID string       `json:"accountId"`
	Filter    Filter       `json:"filter,omitempty"`
	Sort      []Comparator `json:"sort"`
	Limit     int          `json:"limit,omitempty"`
}

type mailboxGetResult struct {
	List []Mailbox `json:"list"`
}

type emailQueryResult struct {
	IDs []string `json:"ids"`
}

type emailGetResult struct {
	List     []Email  `json:"list"`
	NotFound []string `json:"notFound,omitempty"`
}

// ListMailboxes returns every mailbox of the account. A null or missing list
// yields an empty slice.
func (c *Conn) ListMailboxes(ctx context.Context) ([]Mailbox, error) {
	resp, err := c.call(ctx, Invocation{
		Name: methodMailboxGet,
		Args: mailboxGetArgs{
			AccountID:  c.session.MailAccountID(),
			Properties: mailboxProperties,
		},
		CallID: "mailboxes",
	})
	if err != nil {
		return nil, fmt.Errorf("call Mailbox/get failed: %w", err)
	}

	var result mailboxGetResult
	if err := resp.result(0, methodMailboxGet, &result); err != nil {
		return nil, err
	}
	if result.List == nil {
		return []Mailbox{}, nil
	}

	return result.List, nil
}

// QueryRecentEmails returns the newest emails, optionally restricted to the
// given mailboxes, ranked by priority.
func (c *Conn) QueryRecentEmails(ctx context.Context, limit int, mailboxIDs []string) ([]Email, error) {
	return c.queryAndGet(ctx, MailboxFilter(mailboxIDs), limit, recentEmailProperties)
}

// SearchEmails runs an arbitrary filter and returns the matches ranked by
// priority. A nil filter matches every email.
func (c *Conn) SearchEmails(ctx context.Context, filter Filter, limit int) ([]Email, error) {
	return c.queryAndGet(ctx, filter, limit, fullEmailProperties)
}

// GetEmailsByIDs fetches emails in the order the server returns them.
func (c *Conn) GetEmailsByIDs(ctx context.Context, ids []string) ([]Email, error) {
	if len(ids) == 0 {
		return []Email{}, nil
	}

	resp, err := c.call(ctx, Invocation{
		Name: methodEmailGet,
		Args: emailGetArgs{
			AccountID:           c.session.MailAccountID(),
			IDs:                 ids,
			Properties:          fullEmailProperties,
			FetchTextBodyValues: true,
			FetchHTMLBodyValues: true,
		},
		CallID: "c",
	})
	if err != nil {
		return nil, fmt.Errorf("call Email/get failed: %w", err)
	}

	var result emailGetResult
	if err := resp.result(0, methodEmailGet, &result); err != nil {
		return nil, err
	}
	if result.List == nil {
		return []Email{}, nil
	}

	return result.List, nil
}

// queryAndGet batches Email/query and Email/get in one round trip; the get
// consumes the query ids through a back-reference.
func (c *Conn) queryAndGet(ctx context.Context, filter Filter, limit int, properties []string) ([]Email, error) {
	accountID := c.session.MailAccountID()

	resp, err := c.call(ctx,
		Invocation{
			Name: methodEmailQuery,
			Args: emailQueryArgs{
				AccountID: accountID,
				Filter:    filter,
				Sort:      []Comparator{{Property: "receivedAt", IsAscending: false}},
				Limit:     limit,
			},
			CallID: "a",
		},
		Invocation{
			Name: methodEmailGet,
			Args: emailGetArgs{
				AccountID: accountID,
				IDsRef: &ResultReference{
					ResultOf: "a",
					Name:     methodEmailQuery,
					Path:     "/ids",
				},
				Properties:          properties,
				FetchTextBodyValues: true,
				FetchHTMLBodyValues: true,
			},
			CallID: "b",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("call Email/query failed: %w", err)
	}

	var query emailQueryResult
	if err := resp.result(0, methodEmailQuery, &query); err != nil {
		return nil, err
	}

	var result emailGetResult
	if err := resp.result(1, methodEmailGet, &result); err != nil {
		return nil, err
	}

	return priority.Rank(result.List), nil
}
