package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown document to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert(src, &buf); err != nil {
		return htmlSanitizer.Sanitize(string(src))
	}

	return htmlSanitizer.Sanitize(buf.String())
}
