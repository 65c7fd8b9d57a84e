package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-assistant/internal/jmap"
	"github.com/hal9000y/mail-assistant/internal/tool"
)

func connectServer(t *testing.T, svc tool.MailService) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(tool.NewHandlers(svc))
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func TestServerListsTools(t *testing.T) {
	session := connectServer(t, &mailSvcMock{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tl := range res.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{"search_emails", "get_mailboxes", "get_email_details"}, names)
}

func TestServerSearchEmails(t *testing.T) {
	svc := &mailSvcMock{
		ListMailboxesFunc: func(context.Context) ([]jmap.Mailbox, error) { return testMailboxes, nil },
		SearchEmailsFunc: func(context.Context, jmap.Filter, int) ([]jmap.Email, error) {
			return testEmails(), nil
		},
	}
	session := connectServer(t, svc)

	cases := []struct {
		name        string
		args        tool.SearchEmailsRequest
		expectedErr string
		expectedIDs []string
	}{
		{
			name:        "inbox",
			args:        tool.SearchEmailsRequest{MailboxName: "Inbox", Limit: 2},
			expectedIDs: []string{"e-1", "e-2"},
		},
		{
			name:        "missing_mailbox",
			args:        tool.SearchEmailsRequest{MailboxName: "Nowhere"},
			expectedErr: `mailbox "Nowhere" not found`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
				Name:      "search_emails",
				Arguments: tc.args,
			})
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Content)

			text := result.Content[0].(*mcp.TextContent).Text
			if tc.expectedErr != "" {
				require.True(t, result.IsError, "Result should indicate error")
				assert.Contains(t, text, tc.expectedErr)
				return
			}

			var response tool.SearchEmailsResponse
			require.NoError(t, json.Unmarshal([]byte(text), &response))
			assert.True(t, response.Success)

			ids := make([]string, 0, len(response.Emails))
			for _, e := range response.Emails {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tc.expectedIDs, ids)
		})
	}
}

func TestServerGetMailboxes(t *testing.T) {
	svc := &mailSvcMock{
		ListMailboxesFunc: func(context.Context) ([]jmap.Mailbox, error) { return testMailboxes, nil },
	}
	session := connectServer(t, svc)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_mailboxes",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var response tool.GetMailboxesResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &response))
	require.Len(t, response.Mailboxes, 3)
	assert.Equal(t, "inbox", response.Mailboxes[0].Role)
	assert.Equal(t, 1, svc.calls.ListMailboxes)
}

func TestServerGetEmailDetails(t *testing.T) {
	svc := &mailSvcMock{
		GetEmailsByIDsFunc: func(_ context.Context, ids []string) ([]jmap.Email, error) {
			return testEmails()[:1], nil
		},
	}
	session := connectServer(t, svc)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_email_details",
		Arguments: tool.GetEmailDetailsRequest{EmailIDs: []string{"e-1"}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var response tool.GetEmailDetailsResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &response))
	require.Len(t, response.Emails, 1)
	assert.Equal(t, "Quarterly report", response.Emails[0].Subject)
	assert.Equal(t, "body of e-1", response.Emails[0].BodyContent)
}
