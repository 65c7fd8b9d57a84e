package tool_test

import (
	"context"
	"sync"

	"github.com/hal9000y/mail-assistant/internal/jmap"
	"github.com/hal9000y/mail-assistant/internal/tool"
)

var _ tool.MailService = &mailSvcMock{}

type mailSvcMock struct {
	ListMailboxesFunc  func(ctx context.Context) ([]jmap.Mailbox, error)
	SearchEmailsFunc   func(ctx context.Context, filter jmap.Filter, limit int) ([]jmap.Email, error)
	GetEmailsByIDsFunc func(ctx context.Context, ids []string) ([]jmap.Email, error)
	AttachBodiesFunc   func(ctx context.Context, emails []jmap.Email)

	mu    sync.Mutex
	calls struct {
		ListMailboxes  int
		SearchEmails   []searchCall
		GetEmailsByIDs [][]string
		AttachBodies   int
	}
}

type searchCall struct {
	Filter jmap.Filter
	Limit  int
}

func (m *mailSvcMock) ListMailboxes(ctx context.Context) ([]jmap.Mailbox, error) {
	m.mu.Lock()
	m.calls.ListMailboxes++
	m.mu.Unlock()
	if m.ListMailboxesFunc == nil {
		panic("mailSvcMock.ListMailboxesFunc: method is nil but ListMailboxes was just called")
	}
	return m.ListMailboxesFunc(ctx)
}

func (m *mailSvcMock) SearchEmails(ctx context.Context, filter jmap.Filter, limit int) ([]jmap.Email, error) {
	m.mu.Lock()
	m.calls.SearchEmails = append(m.calls.SearchEmails, searchCall{Filter: filter, Limit: limit})
	m.mu.Unlock()
	if m.SearchEmailsFunc == nil {
		panic("mailSvcMock.SearchEmailsFunc: method is nil but SearchEmails was just called")
	}
	return m.SearchEmailsFunc(ctx, filter, limit)
}

func (m *mailSvcMock) GetEmailsByIDs(ctx context.Context, ids []string) ([]jmap.Email, error) {
	m.mu.Lock()
	m.calls.GetEmailsByIDs = append(m.calls.GetEmailsByIDs, ids)
	m.mu.Unlock()
	if m.GetEmailsByIDsFunc == nil {
		panic("mailSvcMock.GetEmailsByIDsFunc: method is nil but GetEmailsByIDs was just called")
	}
	return m.GetEmailsByIDsFunc(ctx, ids)
}

func (m *mailSvcMock) AttachBodies(ctx context.Context, emails []jmap.Email) {
	m.mu.Lock()
	m.calls.AttachBodies++
	m.mu.Unlock()
	if m.AttachBodiesFunc == nil {
		for i := range emails {
			emails[i].BodyContent = "body of " + emails[i].ID
		}
		return
	}
	m.AttachBodiesFunc(ctx, emails)
}
