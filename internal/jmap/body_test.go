package jmap_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-assistant/internal/jmap"
)

func TestGetEmailBody(t *testing.T) {
	cases := []struct {
		name          string
		email         jmap.Email
		fetched       map[string]any
		apiStatus     int
		expected      string
		expectedCalls int
	}{
		{
			name: "embedded_text_preferred",
			email: jmap.Email{
				ID:       "e-1",
				TextBody: []jmap.BodyPart{{PartID: "1"}},
				HTMLBody: []jmap.BodyPart{{PartID: "2"}},
				BodyValues: map[string]jmap.BodyValue{
					"1": {Value: "plain body"},
					"2": {Value: "<p>html body</p>"},
				},
			},
			expected: "plain body",
		},
		{
			name: "embedded_html_stripped",
			email: jmap.Email{
				ID:         "e-1",
				HTMLBody:   []jmap.BodyPart{{PartID: "2"}},
				BodyValues: map[string]jmap.BodyValue{"2": {Value: "<div><b>Meeting</b> at 10</div>"}},
			},
			expected: "Meeting at 10",
		},
		{
			name: "text_part_fetched",
			email: jmap.Email{
				ID:         "e-1",
				TextBody:   []jmap.BodyPart{{PartID: "1"}},
				BodyValues: map[string]jmap.BodyValue{},
			},
			fetched: map[string]any{
				"id":         "e-1",
				"bodyValues": map[string]any{"1": map[string]any{"value": "fetched body"}},
			},
			expected:      "fetched body",
			expectedCalls: 1,
		},
		{
			name: "html_part_fetched_and_stripped",
			email: jmap.Email{
				ID:       "e-1",
				HTMLBody: []jmap.BodyPart{{PartID: "2"}},
			},
			fetched: map[string]any{
				"id":         "e-1",
				"bodyValues": map[string]any{"2": map[string]any{"value": "<p>fetched html</p>"}},
			},
			expected:      "fetched html",
			expectedCalls: 1,
		},
		{
			name: "fetched_part_missing",
			email: jmap.Email{
				ID:       "e-1",
				TextBody: []jmap.BodyPart{{PartID: "1"}},
			},
			fetched:       map[string]any{"id": "e-1", "bodyValues": map[string]any{}},
			expected:      jmap.BodyPartNotAccessible,
			expectedCalls: 1,
		},
		{
			name: "fetch_transport_failure",
			email: jmap.Email{
				ID:       "e-1",
				TextBody: []jmap.BodyPart{{PartID: "1"}},
			},
			apiStatus:     http.StatusBadGateway,
			expected:      jmap.BodyPartFetchFailed,
			expectedCalls: 1,
		},
		{
			name: "html_fetch_transport_failure",
			email: jmap.Email{
				ID:       "e-1",
				HTMLBody: []jmap.BodyPart{{PartID: "2"}},
			},
			apiStatus:     http.StatusServiceUnavailable,
			expected:      jmap.BodyPartFetchFailed,
			expectedCalls: 1,
		},
		{
			name:     "no_parts",
			email:    jmap.Email{ID: "e-1"},
			expected: jmap.NoBodyContent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeJMAP(t, func(calls []methodCall) []any {
				require.Len(t, calls, 1)
				assert.Equal(t, []any{"e-1"}, calls[0].Args["ids"])
				return []any{response("Email/get", map[string]any{"list": []any{tc.fetched}}, "c")}
			})
			f.apiStatus = tc.apiStatus

			conn, err := f.client().Connect(context.Background(), testToken)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, conn.GetEmailBody(context.Background(), tc.email))
			assert.Len(t, f.apiRequests(), tc.expectedCalls)
		})
	}
}

func TestGetEmailBodyPart(t *testing.T) {
	cases := []struct {
		name      string
		result    []any
		apiStatus int
		expected  string
	}{
		{
			name: "found",
			result: []any{response("Email/get", map[string]any{"list": []any{
				map[string]any{"id": "e-1", "bodyValues": map[string]any{"7": map[string]any{"value": "part seven"}}},
			}}, "c")},
			expected: "part seven",
		},
		{
			name:     "empty_list",
			result:   []any{response("Email/get", map[string]any{"list": []any{}}, "c")},
			expected: jmap.InvalidBodyResponse,
		},
		{
			name:     "no_response",
			result:   []any{},
			expected: jmap.InvalidBodyResponse,
		},
		{
			name: "part_not_present",
			result: []any{response("Email/get", map[string]any{"list": []any{
				map[string]any{"id": "e-1"},
			}}, "c")},
			expected: jmap.BodyPartNotAccessible,
		},
		{
			name:      "transport_failure",
			apiStatus: http.StatusInternalServerError,
			expected:  jmap.BodyPartFetchFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeJMAP(t, func(calls []methodCall) []any { return tc.result })
			f.apiStatus = tc.apiStatus

			conn, err := f.client().Connect(context.Background(), testToken)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, conn.GetEmailBodyPart(context.Background(), "e-1", "7"))
		})
	}
}

func TestAttachBodiesKeepsOrder(t *testing.T) {
	f := newFakeJMAP(t, func(calls []methodCall) []any {
		return []any{response("Email/get", map[string]any{"list": []any{}}, "c")}
	})

	conn, err := f.client().Connect(context.Background(), testToken)
	require.NoError(t, err)

	emails := []jmap.Email{
		{ID: "e-1", TextBody: []jmap.BodyPart{{PartID: "1"}}, BodyValues: map[string]jmap.BodyValue{"1": {Value: "first"}}},
		{ID: "e-2", TextBody: []jmap.BodyPart{{PartID: "1"}}},
		{ID: "e-3"},
	}

	conn.AttachBodies(context.Background(), emails)

	assert.Equal(t, "first", emails[0].BodyContent)
	assert.Equal(t, jmap.InvalidBodyResponse, emails[1].BodyContent)
	assert.Equal(t, jmap.NoBodyContent, emails[2].BodyContent)
}
