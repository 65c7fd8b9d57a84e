package assistant

import (
	"strings"

	"github.com/hal9000y/mail-assistant/internal/jmap"
)

const priorityMarker = "[PRIORITY] "

// FormatEmails renders emails as plain text blocks for a prompt. Priority
// emails are prefixed with [PRIORITY].
func FormatEmails(emails []jmap.Email) string {
	blocks := make([]string, 0, len(emails))
	for _, e := range emails {
		var sb strings.Builder
		if e.IsPriority() {
			sb.WriteString(priorityMarker)
		}
		sb.WriteString("Subject: " + orDefault(e.Subject, "No subject") + "\n")
		sb.WriteString("From: " + e.Sender("Unknown sender") + "\n")
		sb.WriteString("Date: " + orDefault(e.ReceivedAt, "Unknown date") + "\n\n")
		sb.WriteString(orDefault(e.BodyContent, "No content"))
		sb.WriteString("\n\n---\n")
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

func summaryPrompt(emails []jmap.Email) string {
	return `Please provide a concise summary of these recent emails. Pay special attention to emails marked with [PRIORITY] - these should be highlighted prominently at the beginning of your summary as they are flagged or marked as important by the user.

For priority emails, please:
- Mention them first in your summary
- Use bold formatting (**text**) to make them stand out
- Include more detail about their content and any required actions

Here are the emails:

` + FormatEmails(emails)
}

func chatEmailsPrompt(message string, emails []jmap.Email) string {
	return `I have a question about my emails. Here are the emails for context:

` + FormatEmails(emails) + `

Question: ` + message + `

Please provide a helpful response based on the email content above. If the question relates to specific emails, reference them clearly.`
}

func chatMailboxPrompt(message string) string {
	return `You are an AI assistant that can help me interact with my email account. You have access to functions that can search emails, get mailboxes, and retrieve email details.

User question: ` + message + `

Please help me with this request. If you need to search for emails or get information from my mailbox, use the appropriate functions. You can search by sender, subject, date ranges, keywords, or specific folders. Always provide helpful and specific responses based on the actual email data.`
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
