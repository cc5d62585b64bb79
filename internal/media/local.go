// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/realty-go/internal/imaging"
	"github.com/olegiv/realty-go/internal/util"
)

// ErrNotFound is returned when deleting an image that does not exist.
var ErrNotFound = errors.New("image not found")

// LocalPrefix is prepended to public ids of locally stored images.
const LocalPrefix = "local/"

// LocalStore writes images to a directory served under /uploads/images/.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a store in uploadsDir/images. Files are linked from
// baseURL + "/uploads/images/".
func NewLocalStore(uploadsDir, baseURL string) (*LocalStore, error) {
	dir, err := util.SafeJoinPath(uploadsDir, "images")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Name implements Store.
func (s *LocalStore) Name() string { return "local" }

// Put implements Store.
func (s *LocalStore) Put(_ context.Context, name string, img *imaging.Result) (*Image, error) {
	file := util.BaseName(name) + "_" + uuid.NewString()[:8] + imaging.Extension(img.Format)
	full, err := util.SafeJoinPath(s.dir, file)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(full, img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("writing image: %w", err)
	}

	return &Image{
		URL:      s.baseURL + path.Join("/uploads/images", file),
		PublicID: LocalPrefix + file,
		Width:    img.Width,
		Height:   img.Height,
		Format:   img.Format,
		Bytes:    len(img.Data),
	}, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	file := strings.TrimPrefix(publicID, LocalPrefix)
	if file == "" || strings.ContainsAny(file, `/\`) {
		return ErrInvalidPublicID
	}
	full, err := util.SafeJoinPath(s.dir, file)
	if err != nil {
		return ErrInvalidPublicID
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, publicID)
		}
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}
