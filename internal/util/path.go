// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeFilename extracts only the base filename, removing any directory
// components, so "../../../etc/passwd" becomes "passwd".
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if safe == "." || safe == ".." || safe == "" || safe == "/" {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// SafeJoinPath joins path components and checks the result stays within
// basePath.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	full := filepath.Join(append([]string{absBase}, components...)...)

	// Trailing separator stops /uploads-evil matching /uploads.
	if full != absBase && !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: path escapes base directory")
	}
	return full, nil
}

// BaseName strips the directory and extension from a filename and
// slugifies what remains, falling back to "file".
func BaseName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if s := Slugify(base); s != "" {
		return s
	}
	return "file"
}
