package utils

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	// Allow images
	policy.AllowImages()
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts user markdown to sanitized HTML.
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source)) // Fallback
	}

	// Sanitize HTML
	sanitized := policy.SanitizeBytes(buf.Bytes())

	// Enhance Image Attributes
	return EnhanceHTMLContent(string(sanitized))
}

var (
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdBoldStars   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdBoldUnders  = regexp.MustCompile(`__(.*?)__`)
	mdItalicStar  = regexp.MustCompile(`\*(.*?)\*`)
	mdItalicUnder = regexp.MustCompile(`_(.*?)_`)
	mdCodeFence   = regexp.MustCompile("```(.*?)```")
	mdCodeDouble  = regexp.MustCompile("``(.*?)``")
	mdCodeInline  = regexp.MustCompile("`(.*?)`")
	mdBlockquote  = regexp.MustCompile(`(?m)^\s*>\s*`)
)

// StripMarkdown removes link syntax (keeping the text), emphasis markers,
// code backticks (keeping the code) and leading quote markers. The result is
// what counts towards the comment length bonus.
func StripMarkdown(content string) string {
	if content == "" {
		return ""
	}

	result := mdLink.ReplaceAllString(content, "${1}")
	result = mdBoldStars.ReplaceAllString(result, "${1}")
	result = mdBoldUnders.ReplaceAllString(result, "${1}")
	result = mdItalicStar.ReplaceAllString(result, "${1}")
	result = mdItalicUnder.ReplaceAllString(result, "${1}")
	result = mdCodeFence.ReplaceAllString(result, "${1}")
	result = mdCodeDouble.ReplaceAllString(result, "${1}")
	result = mdCodeInline.ReplaceAllString(result, "${1}")
	result = mdBlockquote.ReplaceAllString(result, "")

	return strings.TrimSpace(result)
}
