// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out, err := Render("# Sea view\n\nA **bright** villa.\n\n<script>alert(1)</script>", FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bright</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderHTMLSanitises(t *testing.T) {
	out, err := Render(`<p onclick="x()">Hi</p><img src="/a.jpg" width="300"><iframe src="//evil"></iframe>`, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>Hi</p>")
	assert.Contains(t, out, `width="300"`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "iframe")
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render("x", "rtf")
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Fish & chips by the sea", PlainText("<p>Fish &amp; chips</p>\n<p>by the <b>sea</b></p>"))
}

func TestExcerpt(t *testing.T) {
	src := "<p>" + strings.Repeat("lovely ", 40) + "</p>"
	got := Excerpt(src, 50)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), 51)
	assert.False(t, strings.Contains(got, "lovel…"), "cut mid-word: %q", got)

	assert.Equal(t, "short", Excerpt("<p>short</p>", 50))
}
