// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// OTP lifetimes.
const (
	VerificationOTPTTL = 15 * time.Minute
	ResetOTPTTL        = time.Hour
)

const otpDigits = 6

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a random six-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// VerifyOTP reports whether given matches the stored code and the code has
// not expired at now.
func VerifyOTP(stored *string, expiresAt *time.Time, given string, now time.Time) bool {
	if stored == nil || expiresAt == nil || given == "" {
		return false
	}
	if !now.Before(*expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(given)) == 1
}

// RandomState returns a random hex string for OAuth state parameters.
func RandomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
