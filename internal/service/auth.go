// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
)

// AttachmentProvider supplies the PDF attachments of a marketing category.
type AttachmentProvider interface {
	Attachments(ctx context.Context, category, recipient string) ([]mail.Attachment, error)
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SignupInput holds the fields of a new account.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileInput holds the editable profile fields. Nil fields are unchanged.
type ProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
}

var errBadCredentials = newError(ErrUnauthorized, "Invalid email or password")

// AuthService manages accounts, credentials and favourites.
type AuthService struct {
	db          *gorm.DB
	tokens      *auth.TokenIssuer
	mailer      *mail.Mailer
	attachments AttachmentProvider
	bg          *Background
	now         func() time.Time
}

// NewAuthService creates an AuthService. attachments may be nil.
func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer, mailer *mail.Mailer, attachments AttachmentProvider, bg *Background) *AuthService {
	return &AuthService{db: db, tokens: tokens, mailer: mailer, attachments: attachments, bg: bg, now: time.Now}
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, dbErr(err, "finding user")
	}
	return &u, nil
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, dbErr(err, "loading user")
	}
	return &u, nil
}

// Login checks email and password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	v := validator{}
	v.check(isEmail(normalizeEmail(email)), "email", "must be a valid email address")
	v.check(len(password) >= MinLoginPasswordLength, "password", fmt.Sprintf("must be at least %d characters", MinLoginPasswordLength))
	v.check(len(password) <= MaxPasswordLength, "password", "is too long")
	if err := v.err(); err != nil {
		return nil, err
	}

	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.HasPassword() {
		return nil, errBadCredentials
	}
	ok, err := auth.CheckPassword(password, *u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return nil, errBadCredentials
	}

	if auth.NeedsRehash(*u.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			u.PasswordHash = &hash
			if err := s.db.WithContext(ctx).Model(u).Update("password_hash", hash).Error; err != nil {
				slog.Warn("failed to store rehashed password", "user_id", u.ID, "error", err)
			}
		}
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(u).Update("last_login_at", now).Error; err != nil {
		return nil, dbErr(err, "recording login")
	}
	return s.issue(u)
}

// AdminLogin is Login restricted to admin accounts.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !res.User.IsAdmin() {
		return nil, newError(ErrUnauthorized, "Admin access required")
	}
	return res, nil
}

func validateSignup(in SignupInput) error {
	v := validator{}
	v.check(isEmail(normalizeEmail(in.Email)), "email", "must be a valid email address")
	pwMsg := newPasswordError(in.Password)
	v.check(pwMsg == "", "password", pwMsg)
	v.check(notBlank(in.FirstName), "firstName", "is required")
	v.check(notBlank(in.LastName), "lastName", "is required")
	v.check(maxLen(in.FirstName, 100), "firstName", "is too long")
	v.check(maxLen(in.LastName, 100), "lastName", "is too long")
	return v.err()
}

func (s *AuthService) createUser(ctx context.Context, in SignupInput, role string, verified bool) (*model.User, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, dbErr(err, "checking email")
	}
	if count > 0 {
		return nil, newError(ErrConflict, "User with this email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:           email,
		PasswordHash:    &hash,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Role:            role,
		IsEmailVerified: verified,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "User with this email already exists")
		}
		return nil, dbErr(err, "creating user")
	}
	return u, nil
}

// Signup creates an account, emails a verification code plus the welcome
// guide and signs the user in. Email failures do not fail the signup.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	u, err := s.createUser(ctx, in, model.RoleUser, false)
	if err != nil {
		return nil, err
	}

	code, err := s.storeOTP(ctx, u, false)
	if err != nil {
		return nil, err
	}

	user := *u
	s.bg.Go("signup-emails", func(ctx context.Context) {
		if err := s.mailer.SendVerificationOTP(ctx, user.Email, user.FirstName, code, auth.VerificationOTPTTL); err != nil {
			slog.Warn("failed to send verification email", "email", user.Email, "error", err)
		}
		s.sendWelcome(ctx, &user)
	})

	slog.Info("user signed up", "category", model.EventCategoryUser, "user_id", u.ID)
	return s.issue(u)
}

func (s *AuthService) sendWelcome(ctx context.Context, u *model.User) {
	var attachments []mail.Attachment
	if s.attachments != nil {
		var err error
		attachments, err = s.attachments.Attachments(ctx, model.PDFCategoryWelcomeGuide, u.FirstName)
		if err != nil {
			slog.Warn("failed to load welcome guide", "error", err)
		}
	}
	if err := s.mailer.SendWelcome(ctx, u.Email, u.FirstName, attachments); err != nil {
		slog.Warn("failed to send welcome email", "email", u.Email, "error", err)
	}
}

// storeOTP generates a code for u and saves it with its expiry.
func (s *AuthService) storeOTP(ctx context.Context, u *model.User, reset bool) (string, error) {
	code, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}
	updates := map[string]any{}
	if reset {
		exp := s.now().Add(auth.ResetOTPTTL)
		updates["reset_otp"], updates["reset_otp_expires_at"] = code, exp
		u.ResetOTP, u.ResetOTPExpiresAt = &code, &exp
	} else {
		exp := s.now().Add(auth.VerificationOTPTTL)
		updates["email_otp"], updates["email_otp_expires_at"] = code, exp
		u.EmailOTP, u.EmailOTPExpiresAt = &code, &exp
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return "", dbErr(err, "storing otp")
	}
	return code, nil
}

// SendVerificationOTP issues a fresh verification code. Unknown or already
// verified addresses are silently ignored.
func (s *AuthService) SendVerificationOTP(ctx context.Context, email string) error {
	if !isEmail(normalizeEmail(email)) {
		return &ValidationError{Fields: map[string]string{"email": "must be a valid email address"}}
	}
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.IsEmailVerified {
		return nil
	}
	code, err := s.storeOTP(ctx, u, false)
	if err != nil {
		return err
	}
	if err := s.mailer.SendVerificationOTP(ctx, u.Email, u.FirstName, code, auth.VerificationOTPTTL); err != nil {
		slog.Warn("failed to send verification email", "email", u.Email, "error", err)
	}
	return nil
}

var errBadOTP = newError(ErrInvalidInput, "Invalid or expired OTP")

// VerifyEmail marks the address verified when the code matches.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp string) (*model.User, error) {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, errBadOTP
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyOTP(u.EmailOTP, u.EmailOTPExpiresAt, otp, s.now()) {
		slog.Warn("invalid email verification otp", "category", model.EventCategoryAuth, "user_id", u.ID)
		return nil, errBadOTP
	}

	err = s.db.WithContext(ctx).Model(u).Updates(map[string]any{
		"is_email_verified":    true,
		"email_otp":            nil,
		"email_otp_expires_at": nil,
	}).Error
	if err != nil {
		return nil, dbErr(err, "verifying email")
	}
	u.IsEmailVerified, u.EmailOTP, u.EmailOTPExpiresAt = true, nil, nil
	return u, nil
}

// ForgotPassword emails a reset code if the account exists. The outcome is
// the same either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if !isEmail(normalizeEmail(email)) {
		return &ValidationError{Fields: map[string]string{"email": "must be a valid email address"}}
	}
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	code, err := s.storeOTP(ctx, u, true)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordResetOTP(ctx, u.Email, u.FirstName, code, auth.ResetOTPTTL); err != nil {
		slog.Warn("failed to send password reset email", "email", u.Email, "error", err)
	}
	return nil
}

// ResetPassword sets a new password when the reset code matches.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if msg := newPasswordError(newPassword); msg != "" {
		return &ValidationError{Fields: map[string]string{"newPassword": msg}}
	}
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return errBadOTP
	}
	if err != nil {
		return err
	}
	if !auth.VerifyOTP(u.ResetOTP, u.ResetOTPExpiresAt, otp, s.now()) {
		slog.Warn("invalid password reset otp", "category", model.EventCategoryAuth, "user_id", u.ID)
		return errBadOTP
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(u).Updates(map[string]any{
		"password_hash":        hash,
		"reset_otp":            nil,
		"reset_otp_expires_at": nil,
	}).Error
	if err != nil {
		return dbErr(err, "resetting password")
	}
	slog.Info("password reset", "category", model.EventCategoryAuth, "user_id", u.ID)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	if msg := newPasswordError(newPassword); msg != "" {
		return &ValidationError{Fields: map[string]string{"newPassword": msg}}
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasPassword() {
		return newError(ErrUnauthorized, "Current password is incorrect")
	}
	ok, err := auth.CheckPassword(current, *u.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrUnauthorized, "Current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return dbErr(s.db.WithContext(ctx).Model(u).Update("password_hash", hash).Error, "changing password")
}

// UpdateProfile changes the editable profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*model.User, error) {
	v := validator{}
	if in.FirstName != nil {
		v.check(maxLen(*in.FirstName, 100), "firstName", "is too long")
	}
	if in.LastName != nil {
		v.check(maxLen(*in.LastName, 100), "lastName", "is too long")
	}
	if in.Phone != nil {
		v.check(maxLen(*in.Phone, 50), "phone", "is too long")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.FirstName != nil {
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["last_name"] = *in.LastName
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Avatar != nil {
		updates["avatar"] = *in.Avatar
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
			return nil, dbErr(err, "updating profile")
		}
	}
	return s.GetUser(ctx, userID)
}

// LoginWithGoogle signs in a Google account. Users are matched by Google
// id, then by email, and created when neither matches.
func (s *AuthService) LoginWithGoogle(ctx context.Context, p *auth.GoogleProfile) (*AuthResult, error) {
	email := normalizeEmail(p.Email)
	if p.Subject == "" || !isEmail(email) {
		return nil, newError(ErrUnauthorized, "Google account has no usable email")
	}

	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", p.Subject).First(&u).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			updates := map[string]any{"google_id": p.Subject}
			if p.EmailVerified && !u.IsEmailVerified {
				updates["is_email_verified"] = true
			}
			if u.Avatar == "" && p.Picture != "" {
				updates["avatar"] = p.Picture
			}
			if err := tx.Model(&u).Updates(updates).Error; err != nil {
				return err
			}
			return tx.First(&u, u.ID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = model.User{
				Email:           email,
				FirstName:       p.GivenName,
				LastName:        p.FamilyName,
				Avatar:          p.Picture,
				Role:            model.RoleUser,
				GoogleID:        ptr(p.Subject),
				IsEmailVerified: true,
			}
			return tx.Create(&u).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, dbErr(err, "google sign-in")
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login_at", now).Error; err != nil {
		return nil, dbErr(err, "recording login")
	}
	slog.Info("google sign-in", "category", model.EventCategoryAuth, "user_id", u.ID)
	return s.issue(&u)
}

// ListFavorites returns the user's favourite properties.
func (s *AuthService) ListFavorites(ctx context.Context, userID int64) ([]model.Property, error) {
	props := make([]model.Property, 0)
	err := s.db.WithContext(ctx).
		Joins("JOIN user_favorites ON user_favorites.property_id = properties.id").
		Where("user_favorites.user_id = ?", userID).
		Preload("Location").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("properties.id DESC").
		Find(&props).Error
	return props, dbErr(err, "listing favorites")
}

// AddFavorite stores a property as a favourite.
func (s *AuthService) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	var prop model.Property
	if err := s.db.WithContext(ctx).Select("id").First(&prop, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Property not found")
		}
		return dbErr(err, "loading property")
	}

	var count int64
	err := s.db.WithContext(ctx).Table("user_favorites").
		Where("user_id = ? AND property_id = ?", userID, propertyID).Count(&count).Error
	if err != nil {
		return dbErr(err, "checking favorite")
	}
	if count > 0 {
		return newError(ErrConflict, "Property already in favorites")
	}

	err = s.db.WithContext(ctx).Table("user_favorites").
		Create(map[string]any{"user_id": userID, "property_id": propertyID}).Error
	return dbErr(err, "adding favorite")
}

// RemoveFavorite removes a favourite. Removing a missing favourite is a no-op.
func (s *AuthService) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	err := s.db.WithContext(ctx).
		Exec("DELETE FROM user_favorites WHERE user_id = ? AND property_id = ?", userID, propertyID).Error
	return dbErr(err, "removing favorite")
}

// ListAdmins returns all admin accounts.
func (s *AuthService) ListAdmins(ctx context.Context) ([]model.User, error) {
	admins := make([]model.User, 0)
	err := s.db.WithContext(ctx).Where("role = ?", model.RoleAdmin).Order("created_at").Find(&admins).Error
	return admins, dbErr(err, "listing admins")
}

// CreateAdmin creates a verified admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignupInput) (*model.User, error) {
	u, err := s.createUser(ctx, in, model.RoleAdmin, true)
	if err != nil {
		return nil, err
	}
	slog.Info("admin created", "category", model.EventCategoryUser, "user_id", u.ID)
	return u, nil
}

// DeleteAdmin removes an admin account other than the caller's own.
func (s *AuthService) DeleteAdmin(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return newError(ErrInvalidInput, "You cannot delete your own account")
	}
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", id, model.RoleAdmin).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Admin not found")
		}
		return dbErr(err, "loading admin")
	}
	if err := s.db.WithContext(ctx).Select("Favorites").Delete(&u).Error; err != nil {
		return dbErr(err, "deleting admin")
	}
	slog.Info("admin deleted", "category", model.EventCategoryUser, "user_id", actorID, "deleted_id", id)
	return nil
}

// PurgeExpiredOTPs clears codes whose expiry has passed.
func (s *AuthService) PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("email_otp_expires_at < ?", now).
			Updates(map[string]any{"email_otp": nil, "email_otp_expires_at": nil})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Model(&model.User{}).Where("reset_otp_expires_at < ?", now).
			Updates(map[string]any{"reset_otp": nil, "reset_otp_expires_at": nil})
		total += res.RowsAffected
		return res.Error
	})
	return total, dbErr(err, "purging otps")
}

// UserCount holds marketing audience sizes.
type UserCount struct {
	Total    int64 `json:"total"`
	Verified int64 `json:"verified"`
}

// CountUsers counts regular users and how many verified their email.
func (s *AuthService) CountUsers(ctx context.Context) (UserCount, error) {
	var c UserCount
	q := s.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleUser)
	if err := q.Session(&gorm.Session{}).Count(&c.Total).Error; err != nil {
		return c, dbErr(err, "counting users")
	}
	err := q.Session(&gorm.Session{}).Where("is_email_verified = ?", true).Count(&c.Verified).Error
	return c, dbErr(err, "counting verified users")
}
