// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package richtext renders and sanitises author-supplied blog and newsletter
// bodies.
package richtext

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Input formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// ugcPolicy allows the safe tags of user-generated content plus figure
// captions and image sizing used by the blog editor.
var ugcPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("width", "height", "loading").OnElements("img")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.RequireNoReferrerOnLinks(true)
	return p
}()

var stripPolicy = bluemonday.StrictPolicy()

var md = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))

// Render converts src in the given format to sanitised HTML.
func Render(src, format string) (string, error) {
	switch format {
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return "", fmt.Errorf("rendering markdown: %w", err)
		}
		return ugcPolicy.Sanitize(buf.String()), nil
	case FormatHTML, "":
		return ugcPolicy.Sanitize(src), nil
	default:
		return "", fmt.Errorf("unknown content format %q", format)
	}
}

// Sanitize cleans untrusted HTML.
func Sanitize(src string) string {
	return ugcPolicy.Sanitize(src)
}

// PlainText strips all markup, leaving readable text with collapsed whitespace.
func PlainText(src string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(src))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns up to maxRunes runes of the plain text of htmlSrc,
// cut at a word boundary and suffixed with an ellipsis when shortened.
func Excerpt(htmlSrc string, maxRunes int) string {
	text := PlainText(htmlSrc)
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)[:maxRunes]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > maxRunes/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
