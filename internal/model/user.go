// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Password-less accounts sign in through Google.
type User struct {
	Base
	Email             string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash      *string    `gorm:"size:255" json:"-"`
	FirstName         string     `gorm:"size:100" json:"firstName"`
	LastName          string     `gorm:"size:100" json:"lastName"`
	Avatar            string     `gorm:"size:500" json:"avatar,omitempty"`
	Phone             string     `gorm:"size:50" json:"phone,omitempty"`
	Role              string     `gorm:"size:20;not null;default:user;index" json:"role"`
	GoogleID          *string    `gorm:"size:64;uniqueIndex" json:"-"`
	IsEmailVerified   bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	EmailOTP          *string    `gorm:"size:16" json:"-"`
	EmailOTPExpiresAt *time.Time `json:"-"`
	ResetOTP          *string    `gorm:"size:16" json:"-"`
	ResetOTPExpiresAt *time.Time `json:"-"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`

	Favorites []Property `gorm:"many2many:user_favorites;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// FullName joins first and last name, falling back to the email address.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
