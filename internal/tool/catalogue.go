package tool

import "encoding/json"

// Definition describes a tool to the assistant service.
type Definition struct {
	Name        Name            `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

const (
	descSearchEmails    = "Search for emails based on criteria like sender, subject, date range, keywords, or specific folders"
	descGetMailboxes    = "Get list of available mailboxes/folders in the email account"
	descGetEmailDetails = "Get full details of specific emails by their IDs"
)

// Catalogue returns the fixed set of tools offered to the assistant.
func Catalogue() []Definition {
	return []Definition{
		{
			Name:        NameSearchEmails,
			Description: descSearchEmails,
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "object",
						"description": "JMAP Email/query filter criteria",
						"properties": {
							"from": {"type": "string", "description": "Filter by sender email address"},
							"to": {"type": "string", "description": "Filter by recipient email address"},
							"subject": {"type": "string", "description": "Filter by subject keywords"},
							"hasKeyword": {"type": "string", "description": "Filter by JMAP keyword like $flagged, $seen, etc."},
							"text": {"type": "string", "description": "Filter by body text content"},
							"after": {"type": "string", "description": "Filter emails after this date (ISO format)"},
							"before": {"type": "string", "description": "Filter emails before this date (ISO format)"},
							"inMailbox": {"type": "string", "description": "Filter by specific mailbox ID"}
						}
					},
					"limit": {
						"type": "integer",
						"description": "Maximum number of emails to return (default 20)",
						"default": 20
					},
					"mailboxName": {
						"type": "string",
						"description": "Human-readable mailbox name to search in (e.g., \"Inbox\", \"Sent\")"
					}
				},
				"required": []
			}`),
		},
		{
			Name:        NameGetMailboxes,
			Description: descGetMailboxes,
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {},
				"required": []
			}`),
		},
		{
			Name:        NameGetEmailDetails,
			Description: descGetEmailDetails,
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"emailIds": {
						"type": "array",
						"items": {"type": "string"},
						"description": "Array of email IDs to fetch details for"
					}
				},
				"required": ["emailIds"]
			}`),
		},
	}
}
