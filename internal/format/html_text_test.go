package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hal9000y/mail-assistant/internal/format"
)

func TestStripTags(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "inline_markup",
			input:    `<p>Hello <b>world</b></p>`,
			expected: "Hello world",
		},
		{
			name:     "block_boundaries",
			input:    `<div>Line 1<br>Line 2</div><div>Line 3</div>`,
			expected: "Line 1\nLine 2\n\nLine 3",
		},
		{
			name: "invisible_elements",
			input: `<html><head><title>T</title><style>p{color:red}</style></head>` +
				`<body>Hi &amp; bye<script>alert(1)</script></body></html>`,
			expected: "Hi & bye",
		},
		{
			name:     "escaped_markup_survives_as_text",
			input:    `<p>&lt;tag&gt;</p>`,
			expected: "<tag>",
		},
		{
			name:     "plain_text",
			input:    "  just text  ",
			expected: "just text",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.StripTags(tc.input))
		})
	}
}

func TestPreview(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{name: "fits", input: "hello", limit: 10, expected: "hello"},
		{name: "exact", input: "hello", limit: 5, expected: "hello"},
		{name: "cut", input: "hello world", limit: 5, expected: "hello..."},
		{name: "runes", input: "привет", limit: 3, expected: "при..."},
		{name: "zero_limit", input: "hello", limit: 0, expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.Preview(tc.input, tc.limit))
		})
	}
}
