package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/hal9000y/mail-assistant/internal/assistant"
	"github.com/hal9000y/mail-assistant/internal/auth"
	"github.com/hal9000y/mail-assistant/internal/format"
	"github.com/hal9000y/mail-assistant/internal/jmap"
	"github.com/hal9000y/mail-assistant/internal/tool"
	"github.com/hal9000y/mail-assistant/internal/vault"
)

const (
	// AssistantKeyPrefix starts every valid assistant service key.
	AssistantKeyPrefix = "sk-ant-"

	defaultEmailCount = 10
)

var (
	errNotAuthenticated = errors.New("Not authenticated with Fastmail - please set your API token first")
	errNoAssistantKey   = errors.New("Claude API key not found")
)

// ModelFactory creates the assistant transport for an API key.
type ModelFactory func(apiKey string) assistant.Model

// Dispatcher is the MessageBus of the application. It builds a fresh vault
// for every message, so derived keys never outlive a request.
type Dispatcher struct {
	store    auth.SecretStore
	mail     *jmap.Client
	newVault func() *vault.Vault
	newModel ModelFactory

	// MaxTurns bounds tool-use exchanges of chatWithAI.
	MaxTurns int
}

var _ MessageBus = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher.
func NewDispatcher(store auth.SecretStore, mail *jmap.Client, newVault func() *vault.Vault, newModel ModelFactory) *Dispatcher {
	return &Dispatcher{
		store:    store,
		mail:     mail,
		newVault: newVault,
		newModel: newModel,
		MaxTurns: assistant.DefaultMaxTurns,
	}
}

// Dispatch runs the action of msg. It never fails: errors are reported in
// the reply.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Reply {
	id := uuid.NewString()

	var (
		reply Reply
		err   error
	)

	switch msg.Action {
	case ActionAuthenticate:
		reply = d.authenticate(ctx)
	case ActionSetAPIToken:
		reply, err = d.setAPIToken(ctx, msg)
	case ActionGetMailboxes:
		reply, err = d.getMailboxes(ctx)
	case ActionSummarizeEmails:
		reply, err = d.summarizeEmails(ctx, msg)
	case ActionChatWithAI:
		reply, err = d.chatWithAI(ctx, msg)
	default:
		err = errors.New("Unknown action")
	}

	if err != nil {
		log.Printf("[%s] %s failed: %v", id, msg.Action, err)
		reply = Reply{Error: err.Error()}
	}
	reply.RequestID = id

	return reply
}

func (d *Dispatcher) authenticate(ctx context.Context) Reply {
	if _, err := d.connect(ctx, d.newVault()); err != nil {
		log.Println("authenticate: d.connect failed", err)
		return Reply{Success: false}
	}
	return Reply{Success: true}
}

func (d *Dispatcher) setAPIToken(ctx context.Context, msg Message) (Reply, error) {
	if msg.EncryptedAPIToken == "" {
		return Reply{}, errors.New("No encrypted API token provided")
	}

	token, err := d.newVault().Decrypt(vault.EncryptedSecret(msg.EncryptedAPIToken))
	if err != nil {
		return Reply{}, fmt.Errorf("vault.Decrypt failed: %w", err)
	}

	session, err := d.mail.EstablishSession(ctx, token)
	if err != nil {
		return Reply{}, fmt.Errorf("mail.EstablishSession failed: %w", err)
	}

	if err := d.store.Set(ctx, auth.MailToken, msg.EncryptedAPIToken); err != nil {
		return Reply{}, fmt.Errorf("store.Set failed: %w", err)
	}

	log.Printf("setApiToken: session established for %s with token %s", session.Username, maskLeft(token))

	return Reply{Success: true}, nil
}

func (d *Dispatcher) getMailboxes(ctx context.Context) (Reply, error) {
	conn, err := d.connect(ctx, d.newVault())
	if err != nil {
		return Reply{}, err
	}

	mailboxes, err := conn.ListMailboxes(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("conn.ListMailboxes failed: %w", err)
	}

	return Reply{Success: true, Mailboxes: mailboxes}, nil
}

func (d *Dispatcher) summarizeEmails(ctx context.Context, msg Message) (Reply, error) {
	if msg.EncryptedAssistantKey == "" {
		return Reply{}, errors.New("No encrypted Claude API key provided")
	}

	v := d.newVault()

	apiKey, err := v.Decrypt(vault.EncryptedSecret(msg.EncryptedAssistantKey))
	if err != nil {
		return Reply{}, fmt.Errorf("vault.Decrypt failed: %w", err)
	}
	if !strings.HasPrefix(apiKey, AssistantKeyPrefix) {
		return Reply{}, fmt.Errorf("Invalid Claude API key format. Expected key starting with %s", AssistantKeyPrefix)
	}

	conn, err := d.connect(ctx, v)
	if err != nil {
		return Reply{}, err
	}

	count := msg.EmailCount
	if count <= 0 {
		count = defaultEmailCount
	}

	emails, err := conn.QueryRecentEmails(ctx, count, msg.MailboxIDs)
	if err != nil {
		return Reply{}, fmt.Errorf("conn.QueryRecentEmails failed: %w", err)
	}
	conn.AttachBodies(ctx, emails)

	orch := assistant.NewOrchestrator(d.newModel(apiKey), nil)
	summary, err := orch.Summarize(ctx, emails)
	if err != nil {
		return Reply{}, fmt.Errorf("orch.Summarize failed: %w", err)
	}

	if err := d.store.Set(ctx, auth.AssistantKey, msg.EncryptedAssistantKey); err != nil {
		log.Println("summarizeEmails: store.Set failed", err)
	}

	return Reply{
		Success:     true,
		Summary:     summary,
		SummaryHTML: format.SummaryHTML(summary),
		EmailData:   emails,
	}, nil
}

func (d *Dispatcher) chatWithAI(ctx context.Context, msg Message) (Reply, error) {
	if strings.TrimSpace(msg.Message) == "" {
		return Reply{}, errors.New("No message provided")
	}

	encrypted, err := d.store.Get(ctx, auth.AssistantKey)
	if errors.Is(err, auth.ErrSecretNotFound) {
		return Reply{}, errNoAssistantKey
	}
	if err != nil {
		return Reply{}, fmt.Errorf("store.Get failed: %w", err)
	}

	v := d.newVault()

	apiKey, err := v.Decrypt(vault.EncryptedSecret(encrypted))
	if err != nil {
		return Reply{}, fmt.Errorf("vault.Decrypt failed: %w", err)
	}

	model := d.newModel(apiKey)

	if msg.UseEnhancedMode || len(msg.EmailData) == 0 {
		conn, err := d.connect(ctx, v)
		if err != nil {
			return Reply{}, err
		}

		orch := assistant.NewOrchestrator(model, tool.NewHandlers(conn))
		orch.MaxTurns = d.MaxTurns

		response, err := orch.ChatWithMailbox(ctx, msg.Message)
		if err != nil {
			return Reply{}, fmt.Errorf("orch.ChatWithMailbox failed: %w", err)
		}
		return Reply{Success: true, Response: response}, nil
	}

	response, err := assistant.NewOrchestrator(model, nil).ChatWithEmails(ctx, msg.Message, msg.EmailData)
	if err != nil {
		return Reply{}, fmt.Errorf("orch.ChatWithEmails failed: %w", err)
	}
	return Reply{Success: true, Response: response}, nil
}

// connect opens a session with the stored mail token.
func (d *Dispatcher) connect(ctx context.Context, v *vault.Vault) (*jmap.Conn, error) {
	encrypted, err := d.store.Get(ctx, auth.MailToken)
	if errors.Is(err, auth.ErrSecretNotFound) {
		return nil, errNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("store.Get failed: %w", err)
	}

	token, err := v.Decrypt(vault.EncryptedSecret(encrypted))
	if err != nil {
		return nil, fmt.Errorf("vault.Decrypt failed: %w", err)
	}

	conn, err := d.mail.Connect(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("mail.Connect failed: %w", err)
	}

	return conn, nil
}

func maskLeft(s string) string {
	rs := []rune(s)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}
