// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores uploaded images on Cloudinary, or on local disk when
// Cloudinary is not configured.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/olegiv/realty-go/internal/imaging"
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 10 << 20

// MaxFilesPerRequest bounds multi-image uploads.
const MaxFilesPerRequest = 10

var (
	// ErrTooLarge is returned for uploads over MaxUploadSize.
	ErrTooLarge = errors.New("file exceeds the 10MB limit")
	// ErrUnsupportedType is returned for anything but jpg, jpeg, png and webp.
	ErrUnsupportedType = errors.New("only jpg, jpeg, png and webp images are allowed")
	// ErrInvalidPublicID is returned when a public id cannot name a stored file.
	ErrInvalidPublicID = errors.New("invalid public id")
)

// Image is a stored image.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
}

// Store persists normalised images.
type Store interface {
	Put(ctx context.Context, name string, img *imaging.Result) (*Image, error)
	Delete(ctx context.Context, publicID string) error
	Name() string
}

// Service validates, normalises and stores images.
type Service struct {
	store  Store
	maxDim int
}

// NewService creates a media service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, maxDim: imaging.DefaultMaxDimension}
}

// Backend names the active store.
func (s *Service) Backend() string {
	return s.store.Name()
}

// Upload reads one image, normalises it and stores it.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*Image, error) {
	if !imaging.IsAllowedExtension(filename) {
		return nil, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	img, err := imaging.Normalize(data, s.maxDim)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, ErrUnsupportedType
		}
		return nil, err
	}

	stored, err := s.store.Put(ctx, filename, img)
	if err != nil {
		return nil, fmt.Errorf("storing image on %s: %w", s.store.Name(), err)
	}

	slog.Info("image uploaded",
		"category", "upload", "backend", s.store.Name(),
		"public_id", stored.PublicID, "bytes", stored.Bytes)
	return stored, nil
}

// Delete removes a stored image.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return ErrInvalidPublicID
	}
	if err := s.store.Delete(ctx, publicID); err != nil {
		return err
	}
	slog.Info("image deleted", "category", "upload", "backend", s.store.Name(), "public_id", publicID)
	return nil
}
