// Package jmaptest provides an in-process JMAP server for tests of code built
// on the jmap package.
package jmaptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"

	"github.com/hal9000y/mail-assistant/internal/jmap"
)

const (
	Token     = "fmu1-test-token"
	AccountID = "acc-1"
)

// Server serves a session resource at /.well-known/jmap and answers
// Mailbox/get, Email/query and Email/get from fixed data. Email/query
// returns ids in the order of Emails and ignores the filter.
type Server struct {
	*httptest.Server

	Mailboxes []jmap.Mailbox
	Emails    []jmap.Email

	mu           sync.Mutex
	apiRequests  int
	methodCalls  []string
	sessionCalls int
}

// NewServer starts a server. Close it when done.
func NewServer(mailboxes []jmap.Mailbox, emails []jmap.Email) *Server {
	s := &Server{Mailboxes: mailboxes, Emails: emails}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jmap", s.serveSession)
	mux.HandleFunc("/api", s.serveAPI)
	s.Server = httptest.NewServer(mux)

	return s
}

// SessionURL is the session resource of the server.
func (s *Server) SessionURL() string {
	return s.URL + "/.well-known/jmap"
}

// Client returns a jmap client bound to the server.
func (s *Server) Client() *jmap.Client {
	return jmap.NewClient(s.SessionURL(), jmap.WithHTTPClient(s.Server.Client()))
}

// APIRequests is the number of batched requests received.
func (s *Server) APIRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiRequests
}

// SessionRequests is the number of authorized session fetches.
func (s *Server) SessionRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionCalls
}

// MethodCalls lists the method names received, in order.
func (s *Server) MethodCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.methodCalls)
}

func authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+Token
}

func (s *Server) serveSession(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	s.sessionCalls++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jmap.Session{
		APIURL:          s.URL + "/api",
		PrimaryAccounts: map[string]string{jmap.CapabilityMail: AccountID},
		Username:        "user@example.com",
		State:           "s1",
	})
}

type methodCall struct {
	name   string
	args   map[string]json.RawMessage
	callID string
}

func (c *methodCall) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("invocation must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.name); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &c.args); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &c.callID)
}

func (s *Server) serveAPI(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		MethodCalls []methodCall `json:"methodCalls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.apiRequests++
	for _, c := range req.MethodCalls {
		s.methodCalls = append(s.methodCalls, c.name)
	}
	s.mu.Unlock()

	responses := make([]any, 0, len(req.MethodCalls))
	var lastIDs []string
	for _, c := range req.MethodCalls {
		switch c.name {
		case "Mailbox/get":
			responses = append(responses, []any{c.name, map[string]any{"accountId": AccountID, "list": s.Mailboxes}, c.callID})
		case "Email/query":
			lastIDs = s.emailIDs(c.args)
			responses = append(responses, []any{c.name, map[string]any{"accountId": AccountID, "ids": lastIDs}, c.callID})
		case "Email/get":
			ids := lastIDs
			if raw, ok := c.args["ids"]; ok {
				ids = nil
				_ = json.Unmarshal(raw, &ids)
			}
			responses = append(responses, []any{c.name, map[string]any{"accountId": AccountID, "list": s.emailsByID(ids)}, c.callID})
		default:
			responses = append(responses, []any{"error", map[string]any{"type": "unknownMethod"}, c.callID})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"methodResponses": responses,
		"sessionState":    "s1",
	})
}

func (s *Server) emailIDs(args map[string]json.RawMessage) []string {
	limit := len(s.Emails)
	if raw, ok := args["limit"]; ok {
		var l int
		if json.Unmarshal(raw, &l) == nil && l > 0 && l < limit {
			limit = l
		}
	}

	ids := make([]string, 0, limit)
	for _, e := range s.Emails[:limit] {
		ids = append(ids, e.ID)
	}
	return ids
}

func (s *Server) emailsByID(ids []string) []jmap.Email {
	list := make([]jmap.Email, 0, len(ids))
	for _, id := range ids {
		for _, e := range s.Emails {
			if e.ID == id {
				list = append(list, e)
			}
		}
	}
	return list
}

// TextEmail builds an email whose plain-text body is embedded, so attaching
// bodies needs no extra round trip.
func TextEmail(id, subject, from, receivedAt, body string, keywords ...string) jmap.Email {
	e := jmap.Email{
		ID:         id,
		Subject:    subject,
		From:       []jmap.Address{{Email: from}},
		To:         []jmap.Address{{Email: "user@example.com"}},
		ReceivedAt: receivedAt,
		TextBody:   []jmap.BodyPart{{PartID: "1", Type: "text/plain"}},
		BodyValues: map[string]jmap.BodyValue{"1": {Value: body}},
	}
	if len(keywords) > 0 {
		e.Keywords = make(map[string]bool, len(keywords))
		for _, k := range keywords {
			e.Keywords[k] = true
		}
	}
	return e
}
