// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"fmt"
	netmail "net/mail"
	"strings"
	"unicode/utf8"
)

// Password length rules.
const (
	MinLoginPasswordLength = 6
	MinPasswordLength      = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

// newPasswordError describes what is wrong with a new password, or returns
// "" when it is acceptable.
func newPasswordError(pw string) string {
	switch {
	case len(pw) < MinPasswordLength:
		return fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	case len(pw) > MaxPasswordLength:
		return "is too long"
	}
	return ""
}

func isEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := netmail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndexByte(s, '@'):], ".")
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func maxLen(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}
