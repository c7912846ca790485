package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		excludes string
	}{
		{
			name:     "link",
			input:    "This is [my first blog post](http://127.0.0.1:8000/)",
			contains: `<p>This is <a href="http://127.0.0.1:8000/">my first blog post</a></p>`,
		},
		{
			name:     "emphasis",
			input:    "**bold** and _italic_",
			contains: "<strong>bold</strong> and <em>italic</em>",
		},
		{
			name:     "table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: "<table>",
		},
		{
			name:     "script stripped",
			input:    "<script>alert(1)</script>",
			excludes: "<script>",
		},
		{
			name:     "javascript link stripped",
			input:    "[x](javascript:alert(1))",
			excludes: "javascript:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderMarkdown(tt.input)
			require.NoError(t, err)
			if tt.contains != "" {
				assert.Contains(t, string(got), tt.contains)
			}
			if tt.excludes != "" {
				assert.NotContains(t, string(got), tt.excludes)
			}
		})
	}
}

func TestSanitizeHTMLKeepsMarkup(t *testing.T) {
	got := sanitizeHTML(`<h2>Contact</h2><p onclick="x()">Mail <a href="mailto:me@example.com">me</a></p>`)
	assert.Contains(t, string(got), "<h2>Contact</h2>")
	assert.Contains(t, string(got), `href="mailto:me@example.com"`)
	assert.NotContains(t, string(got), "onclick")
}
