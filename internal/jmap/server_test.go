package jmap_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-assistant/internal/jmap"
)

const (
	testToken     = "fmu1-test-token"
	testAccountID = "acc-1"
)

type methodCall struct {
	Name   string
	Args   map[string]any
	CallID string
}

// fakeJMAP serves a session resource and an API endpoint whose responses come
// from handle.
type fakeJMAP struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	sessionStatus int
	apiStatus     int
	requests      [][]methodCall
	handle        func(calls []methodCall) []any
}

func newFakeJMAP(t *testing.T, handle func(calls []methodCall) []any) *fakeJMAP {
	f := &fakeJMAP{t: t, handle: handle}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jmap", f.serveSession)
	mux.HandleFunc("/api", f.serveAPI)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeJMAP) client() *jmap.Client {
	return jmap.NewClient(f.srv.URL+"/.well-known/jmap", jmap.WithHTTPClient(f.srv.Client()))
}

func (f *fakeJMAP) apiRequests() [][]methodCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeJMAP) serveSession(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if f.sessionStatus != 0 {
		http.Error(w, "session unavailable", f.sessionStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"apiUrl":          f.srv.URL + "/api",
		"primaryAccounts": map[string]string{jmap.CapabilityMail: testAccountID},
		"username":        "user@example.com",
		"state":           "s1",
	})
}

func (f *fakeJMAP) serveAPI(w http.ResponseWriter, r *http.Request) {
	require.Equal(f.t, http.MethodPost, r.Method)
	require.Equal(f.t, "Bearer "+testToken, r.Header.Get("Authorization"))

	var req struct {
		Using       []string            `json:"using"`
		MethodCalls [][]json.RawMessage `json:"methodCalls"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	require.Equal(f.t, []string{jmap.CapabilityCore, jmap.CapabilityMail}, req.Using)

	calls := make([]methodCall, 0, len(req.MethodCalls))
	for _, raw := range req.MethodCalls {
		require.Len(f.t, raw, 3)
		var c methodCall
		require.NoError(f.t, json.Unmarshal(raw[0], &c.Name))
		require.NoError(f.t, json.Unmarshal(raw[1], &c.Args))
		require.NoError(f.t, json.Unmarshal(raw[2], &c.CallID))
		calls = append(calls, c)
	}

	f.mu.Lock()
	f.requests = append(f.requests, calls)
	status := f.apiStatus
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "backend exploded", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"methodResponses": f.handle(calls),
		"sessionState":    "s1",
	})
}

func response(name string, args any, callID string) []any {
	return []any{name, args, callID}
}
