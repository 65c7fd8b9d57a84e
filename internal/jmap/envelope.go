package jmap

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Capability URNs sent in the "using" list of every request.
const (
	CapabilityCore = "urn:ietf:params:jmap:core"
	CapabilityMail = "urn:ietf:params:jmap:mail"
)

const methodError = "error"

// Request is the batched method-call envelope.
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []Invocation `json:"methodCalls"`
}

// Invocation is one method call, encoded as [name, args, callId].
type Invocation struct {
	Name   string
	Args   any
	CallID string
}

func (i Invocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{i.Name, i.Args, i.CallID})
}

// Response holds method responses in call order.
type Response struct {
	MethodResponses []ResponseInvocation `json:"methodResponses"`
	SessionState    string               `json:"sessionState,omitempty"`
}

// ResponseInvocation is one [name, result, callId] triple.
type ResponseInvocation struct {
	Name   string
	Args   json.RawMessage
	CallID string
}

func (r *ResponseInvocation) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("json.Unmarshal invocation failed: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("invocation has %d elements, expected 3", len(parts))
	}
	if err := json.Unmarshal(parts[0], &r.Name); err != nil {
		return fmt.Errorf("json.Unmarshal method name failed: %w", err)
	}
	if err := json.Unmarshal(parts[2], &r.CallID); err != nil {
		return fmt.Errorf("json.Unmarshal call id failed: %w", err)
	}
	r.Args = parts[1]

	return nil
}

// ResultReference points an argument at the output of an earlier call in the
// same request.
type ResultReference struct {
	ResultOf string `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

type methodErrorArgs struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

var errMissingResponse = errors.New("missing method response")

// result decodes the response at position idx. Responses are matched by
// position, so name only guards against a server answering out of order.
func (r *Response) result(idx int, name string, v any) error {
	if idx >= len(r.MethodResponses) {
		return fmt.Errorf("%w at index %d", errMissingResponse, idx)
	}

	inv := r.MethodResponses[idx]
	if inv.Name == methodError {
		var me methodErrorArgs
		_ = json.Unmarshal(inv.Args, &me)
		msg := me.Type
		if me.Description != "" {
			msg = fmt.Sprintf("%s: %s", me.Type, me.Description)
		}
		return &ProtocolError{Status: 200, Message: msg}
	}
	if inv.Name != name {
		return fmt.Errorf("unexpected method response %q at index %d, expected %q", inv.Name, idx, name)
	}

	if err := json.Unmarshal(inv.Args, v); err != nil {
		return fmt.Errorf("json.Unmarshal %s failed: %w", name, err)
	}

	return nil
}
