package bus

import (
	"context"

	"github.com/hal9000y/mail-assistant/internal/tool"
)

// DialMail opens a mail connection with the stored token. It is a tool.Dialer:
// every call builds its own vault and establishes its own session, so tool
// calls never share a connection.
func (d *Dispatcher) DialMail(ctx context.Context) (tool.MailService, error) {
	conn, err := d.connect(ctx, d.newVault())
	if err != nil {
		return nil, err
	}
	return conn, nil
}
