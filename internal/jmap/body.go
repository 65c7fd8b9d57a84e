package jmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/hal9000y/mail-assistant/internal/format"
)

// Placeholder bodies returned instead of errors, so one bad record does not
// abort a batch.
const (
	NoBodyContent         = "No body content available"
	BodyPartNotAccessible = "Body part not accessible"
	InvalidBodyResponse   = "Invalid response structure"
	BodyPartFetchFailed   = "Error fetching body part"
)

var (
	errPartMissing  = errors.New("body part missing")
	errBadStructure = errors.New("invalid response structure")
)

// GetEmailBody returns the best plain-text body of e. Embedded body values are
// preferred over fetching; the text part is preferred over the HTML part.
// It never fails: problems are reported as one of the placeholder strings.
func (c *Conn) GetEmailBody(ctx context.Context, e Email) string {
	if e.BodyValues != nil {
		if partID := firstPartID(e.TextBody); partID != "" {
			if v, ok := e.BodyValues[partID]; ok {
				return v.Value
			}
		}
		if partID := firstPartID(e.HTMLBody); partID != "" {
			if v, ok := e.BodyValues[partID]; ok {
				return format.StripTags(v.Value)
			}
		}
	}

	if partID := firstPartID(e.TextBody); partID != "" {
		return c.GetEmailBodyPart(ctx, e.ID, partID)
	}
	if partID := firstPartID(e.HTMLBody); partID != "" {
		value, err := c.fetchBodyPart(ctx, e.ID, partID)
		if err != nil {
			return partPlaceholder(err)
		}
		return format.StripTags(value)
	}

	return NoBodyContent
}

// GetEmailBodyPart fetches a single body part in its own round trip.
func (c *Conn) GetEmailBodyPart(ctx context.Context, emailID, partID string) string {
	value, err := c.fetchBodyPart(ctx, emailID, partID)
	if err != nil {
		return partPlaceholder(err)
	}
	return value
}

// AttachBodies sets BodyContent on every email, one fetch at a time and in
// order.
func (c *Conn) AttachBodies(ctx context.Context, emails []Email) {
	for i := range emails {
		emails[i].BodyContent = c.GetEmailBody(ctx, emails[i])
	}
}

func (c *Conn) fetchBodyPart(ctx context.Context, emailID, partID string) (string, error) {
	resp, err := c.call(ctx, Invocation{
		Name: methodEmailGet,
		Args: emailGetArgs{
			AccountID:           c.session.MailAccountID(),
			IDs:                 []string{emailID},
			Properties:          []string{"bodyValues", "textBody", "htmlBody"},
			FetchTextBodyValues: true,
			FetchHTMLBodyValues: true,
		},
		CallID: "c",
	})
	if err != nil {
		return "", fmt.Errorf("call Email/get failed: %w", err)
	}

	var result emailGetResult
	if err := resp.result(0, methodEmailGet, &result); err != nil {
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errBadStructure, err)
	}
	if len(result.List) == 0 {
		return "", errBadStructure
	}

	v, ok := result.List[0].BodyValues[partID]
	if !ok {
		return "", errPartMissing
	}

	return v.Value, nil
}

func partPlaceholder(err error) string {
	switch {
	case errors.Is(err, errPartMissing):
		return BodyPartNotAccessible
	case errors.Is(err, errBadStructure):
		return InvalidBodyResponse
	default:
		return BodyPartFetchFailed
	}
}

func firstPartID(parts []BodyPart) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0].PartID
}
