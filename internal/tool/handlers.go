package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hal9000y/mail-assistant/internal/format"
	"github.com/hal9000y/mail-assistant/internal/jmap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100

	searchPreviewChars = 500
	detailPreviewChars = 4000

	unknownAddress = "Unknown"
	noContent      = "No content"
)

// MailService is the part of jmap.Conn the handlers use.
type MailService interface {
	ListMailboxes(ctx context.Context) ([]jmap.Mailbox, error)
	SearchEmails(ctx context.Context, filter jmap.Filter, limit int) ([]jmap.Email, error)
	GetEmailsByIDs(ctx context.Context, ids []string) ([]jmap.Email, error)
	AttachBodies(ctx context.Context, emails []jmap.Email)
}

// Dialer opens the mail service one tool call runs against.
type Dialer func(ctx context.Context) (MailService, error)

// NewHandlers creates handlers that run every call against svc.
func NewHandlers(svc MailService) *Handlers {
	return NewDialingHandlers(func(context.Context) (MailService, error) {
		return svc, nil
	})
}

// NewDialingHandlers creates handlers that dial once per tool call. All the
// requests of a call, mailbox resolution and body fetches included, go
// through the service dialed for it.
func NewDialingHandlers(dial Dialer) *Handlers {
	return &Handlers{dial: dial}
}

// Handlers satisfy tool calls. They never return errors: a failed call is
// reported in the result so the conversation can carry on.
type Handlers struct {
	dial Dialer
}

// Invoke decodes and executes one tool invocation.
func (h *Handlers) Invoke(ctx context.Context, name string, input json.RawMessage) any {
	call, err := Decode(name, input)
	if err != nil {
		return Failure{Error: err.Error()}
	}
	return h.Execute(ctx, call)
}

// Execute runs a decoded call.
func (h *Handlers) Execute(ctx context.Context, call Call) any {
	switch c := call.(type) {
	case SearchEmailsRequest:
		return h.SearchEmails(ctx, c)
	case GetMailboxesRequest:
		return h.GetMailboxes(ctx)
	case GetEmailDetailsRequest:
		return h.GetEmailDetails(ctx, c)
	default:
		return Failure{Error: fmt.Sprintf("unsupported tool call %T", call)}
	}
}

// SearchEmails handles search_emails.
func (h *Handlers) SearchEmails(ctx context.Context, in SearchEmailsRequest) SearchEmailsResponse {
	svc, err := h.dial(ctx)
	if err != nil {
		return SearchEmailsResponse{Error: err.Error()}
	}

	filter, err := searchFilter(ctx, svc, in)
	if err != nil {
		return SearchEmailsResponse{Error: err.Error()}
	}

	emails, err := svc.SearchEmails(ctx, filter, normalizeLimit(in.Limit))
	if err != nil {
		return SearchEmailsResponse{Error: fmt.Sprintf("svc.SearchEmails failed: %v", err)}
	}

	svc.AttachBodies(ctx, emails)

	previews := make([]EmailPreview, 0, len(emails))
	for _, e := range emails {
		previews = append(previews, EmailPreview{
			ID:          e.ID,
			Subject:     e.Subject,
			From:        e.Sender(unknownAddress),
			To:          e.Recipient(unknownAddress),
			ReceivedAt:  e.ReceivedAt,
			BodyContent: bodyPreview(e.BodyContent, searchPreviewChars),
			Keywords:    e.KeywordNames(),
			IsPriority:  e.IsPriority(),
		})
	}

	return SearchEmailsResponse{
		Success: true,
		Count:   len(previews),
		Emails:  previews,
	}
}

// GetMailboxes handles get_mailboxes.
func (h *Handlers) GetMailboxes(ctx context.Context) GetMailboxesResponse {
	svc, err := h.dial(ctx)
	if err != nil {
		return GetMailboxesResponse{Error: err.Error()}
	}

	mailboxes, err := svc.ListMailboxes(ctx)
	if err != nil {
		return GetMailboxesResponse{Error: fmt.Sprintf("svc.ListMailboxes failed: %v", err)}
	}

	summaries := make([]MailboxSummary, 0, len(mailboxes))
	for _, mb := range mailboxes {
		summaries = append(summaries, MailboxSummary{
			ID:           mb.ID,
			Name:         mb.Name,
			Role:         mb.Role,
			ParentID:     mb.ParentID,
			TotalEmails:  mb.TotalEmails,
			UnreadEmails: mb.UnreadEmails,
		})
	}

	return GetMailboxesResponse{
		Success:   true,
		Mailboxes: summaries,
	}
}

// GetEmailDetails handles get_email_details.
func (h *Handlers) GetEmailDetails(ctx context.Context, in GetEmailDetailsRequest) GetEmailDetailsResponse {
	if len(in.EmailIDs) == 0 {
		return GetEmailDetailsResponse{Error: "emailIds is required"}
	}

	svc, err := h.dial(ctx)
	if err != nil {
		return GetEmailDetailsResponse{Error: err.Error()}
	}

	emails, err := svc.GetEmailsByIDs(ctx, in.EmailIDs)
	if err != nil {
		return GetEmailDetailsResponse{Error: fmt.Sprintf("svc.GetEmailsByIDs failed: %v", err)}
	}

	svc.AttachBodies(ctx, emails)

	details := make([]EmailDetail, 0, len(emails))
	for _, e := range emails {
		details = append(details, EmailDetail{
			ID:          e.ID,
			Subject:     e.Subject,
			From:        e.From,
			To:          e.To,
			CC:          e.CC,
			BCC:         e.BCC,
			ReceivedAt:  e.ReceivedAt,
			BodyContent: bodyPreview(e.BodyContent, detailPreviewChars),
			Keywords:    e.KeywordNames(),
			IsPriority:  e.IsPriority(),
		})
	}

	return GetEmailDetailsResponse{
		Success: true,
		Emails:  details,
	}
}

func searchFilter(ctx context.Context, svc MailService, in SearchEmailsRequest) (jmap.Filter, error) {
	cond := jmap.FilterCondition{
		From:       in.Query.From,
		To:         in.Query.To,
		Subject:    in.Query.Subject,
		HasKeyword: in.Query.HasKeyword,
		Text:       in.Query.Text,
		After:      in.Query.After,
		Before:     in.Query.Before,
		InMailbox:  in.Query.InMailbox,
	}

	if cond.InMailbox == "" && in.MailboxName != "" {
		id, err := resolveMailbox(ctx, svc, in.MailboxName)
		if err != nil {
			return nil, err
		}
		cond.InMailbox = id
	}

	if cond.IsEmpty() {
		return nil, nil
	}
	return cond, nil
}

// resolveMailbox matches a display name case-insensitively, or a role.
func resolveMailbox(ctx context.Context, svc MailService, name string) (string, error) {
	mailboxes, err := svc.ListMailboxes(ctx)
	if err != nil {
		return "", fmt.Errorf("svc.ListMailboxes failed: %w", err)
	}

	for _, mb := range mailboxes {
		if strings.EqualFold(mb.Name, name) || mb.Role == strings.ToLower(name) {
			return mb.ID, nil
		}
	}

	return "", fmt.Errorf("mailbox %q not found", name)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

func bodyPreview(body string, limit int) string {
	if body == "" {
		return noContent
	}
	return format.Preview(body, limit)
}
