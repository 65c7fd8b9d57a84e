package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultSessionURL is the Fastmail JMAP session resource.
const DefaultSessionURL = "https://api.fastmail.com/.well-known/jmap"

const maxErrorBody = 512

// Client opens JMAP sessions. It holds no credentials; each Conn carries the
// bearer token it was opened with.
type Client struct {
	sessionURL string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client that authenticated requests are
// layered on.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRateLimit caps outbound requests per second. Zero or less disables the
// limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client for the given session URL.
func NewClient(sessionURL string, opts ...Option) *Client {
	if sessionURL == "" {
		sessionURL = DefaultSessionURL
	}

	c := &Client{
		sessionURL: sessionURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Conn is an established session bound to the credential that opened it.
// It is read-only after Connect and lives for one request.
type Conn struct {
	client  *Client
	session *Session
	http    *http.Client
}

// EstablishSession fetches the session resource with a bearer credential.
func (c *Client) EstablishSession(ctx context.Context, bearer string) (*Session, error) {
	conn, err := c.Connect(ctx, bearer)
	if err != nil {
		return nil, err
	}
	return conn.session, nil
}

// Connect establishes a fresh session and binds it to bearer.
func (c *Client) Connect(ctx context.Context, bearer string) (*Conn, error) {
	httpClient := c.authorizedClient(ctx, bearer)

	session, err := c.fetchSession(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	return &Conn{
		client:  c,
		session: session,
		http:    httpClient,
	}, nil
}

// Session returns the session descriptor of the connection.
func (c *Conn) Session() *Session {
	return c.session
}

func (c *Client) authorizedClient(ctx context.Context, bearer string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bearer,
		TokenType:   "Bearer",
	}))
}

func (c *Client) fetchSession(ctx context.Context, httpClient *http.Client) (*Session, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("limiter.Wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &SessionError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SessionError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	session := &Session{}
	if err := json.NewDecoder(resp.Body).Decode(session); err != nil {
		return nil, &SessionError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid session resource: %v", err)}
	}
	if session.APIURL == "" {
		return nil, &SessionError{Status: resp.StatusCode, Message: "session has no apiUrl"}
	}
	if session.MailAccountID() == "" {
		return nil, &SessionError{Status: resp.StatusCode, Message: "session has no mail account"}
	}

	return session, nil
}

// call sends one batched request and returns the decoded envelope.
func (c *Conn) call(ctx context.Context, calls ...Invocation) (*Response, error) {
	if err := c.client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("limiter.Wait failed: %w", err)
	}

	body, err := json.Marshal(Request{
		Using:       []string{CapabilityCore, CapabilityMail},
		MethodCalls: calls,
	})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	result := &Response{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("json.NewDecoder.Decode failed: %w", err)
	}

	return result, nil
}

func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
