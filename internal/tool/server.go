package tool

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server exposing the mailbox tools through h.
func NewServer(h *Handlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mail-assistant", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(NameSearchEmails),
		Description: descSearchEmails,
	}, h.mcpSearchEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(NameGetMailboxes),
		Description: descGetMailboxes,
	}, h.mcpGetMailboxes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(NameGetEmailDetails),
		Description: descGetEmailDetails,
	}, h.mcpGetEmailDetails)

	return server
}

func (h *Handlers) mcpSearchEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchEmailsRequest,
) (*mcp.CallToolResult, SearchEmailsResponse, error) {
	resp := h.SearchEmails(ctx, input)
	if !resp.Success {
		return nil, SearchEmailsResponse{}, errors.New(resp.Error)
	}
	return nil, resp, nil
}

func (h *Handlers) mcpGetMailboxes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetMailboxesRequest,
) (*mcp.CallToolResult, GetMailboxesResponse, error) {
	resp := h.GetMailboxes(ctx)
	if !resp.Success {
		return nil, GetMailboxesResponse{}, errors.New(resp.Error)
	}
	return nil, resp, nil
}

func (h *Handlers) mcpGetEmailDetails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetEmailDetailsRequest,
) (*mcp.CallToolResult, GetEmailDetailsResponse, error) {
	resp := h.GetEmailDetails(ctx, input)
	if !resp.Success {
		return nil, GetEmailDetailsResponse{}, errors.New(resp.Error)
	}
	return nil, resp, nil
}
