package server

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderMarkdown converts markdown text to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func RenderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}
