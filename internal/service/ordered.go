// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/model"
)

// orderedRow is a pointer to a site content row listed by position.
type orderedRow[T any] interface {
	*T
	model.Ordered
	Row() *model.Base
}

// OrderedStore manages one list of positioned site content rows. Public
// reads are cached under the owning page's namespace and every write drops
// that namespace.
type OrderedStore[T any, P orderedRow[T]] struct {
	db       *gorm.DB
	cache    *cache.Manager
	list     *cache.TypedCache[[]T]
	page     string
	key      string
	noun     string
	validate func(P) error
	public   func(*gorm.DB) *gorm.DB
	defaults func(P)
}

// appendPosition marks a new row that goes after the current last one.
const appendPosition = -1

func newOrderedStore[T any, P orderedRow[T]](db *gorm.DB, cm *cache.Manager, ttl time.Duration, page, name, noun string, validate func(P) error) *OrderedStore[T, P] {
	return &OrderedStore[T, P]{
		db:       db,
		cache:    cm,
		list:     cache.NewTypedCache[[]T](cm.Backend(), ttl),
		page:     page,
		key:      cache.Key(cache.NamespaceContent, page, name),
		noun:     noun,
		validate: validate,
	}
}

func (s *OrderedStore[T, P]) ordered(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Order("position").Order("id")
}

// Public returns the rows shown on the site, in order, from the cache when
// possible.
func (s *OrderedStore[T, P]) Public(ctx context.Context) ([]T, error) {
	items, err := s.list.GetOrSet(ctx, s.key, func() (*[]T, error) {
		q := s.ordered(ctx)
		if s.public != nil {
			q = s.public(q)
		}
		items := make([]T, 0)
		if err := q.Find(&items).Error; err != nil {
			return nil, dbErr(err, "listing "+s.noun+"s")
		}
		return &items, nil
	})
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// All returns every row in order, bypassing the cache.
func (s *OrderedStore[T, P]) All(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	err := s.ordered(ctx).Find(&items).Error
	return items, dbErr(err, "listing "+s.noun+"s")
}

// Get loads one row.
func (s *OrderedStore[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	var row T
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, dbErr(err, "loading "+s.noun)
	}
	return &row, nil
}

func (s *OrderedStore[T, P]) invalidate(ctx context.Context) {
	s.cache.InvalidateContent(ctx, s.page)
}

// New returns a blank row with the list's defaults. Its position is unset,
// so Create appends it unless the caller sets one.
func (s *OrderedStore[T, P]) New() T {
	var row T
	p := P(&row)
	p.SetPosition(appendPosition)
	if s.defaults != nil {
		s.defaults(p)
	}
	return row
}

// Create stores a row. A negative position appends it after the current
// last one; any other position is kept.
func (s *OrderedStore[T, P]) Create(ctx context.Context, row T) (*T, error) {
	p := P(&row)
	*p.Row() = model.Base{}
	if err := s.validate(p); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Position() < 0 {
			var last int
			if err := tx.Model(new(T)).Select("COALESCE(MAX(position), 0)").Scan(&last).Error; err != nil {
				return err
			}
			p.SetPosition(last + 1)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, dbErr(err, "creating "+s.noun)
	}
	s.invalidate(ctx)
	return &row, nil
}

// Update loads a row, lets apply change it and saves it.
func (s *OrderedStore[T, P]) Update(ctx context.Context, id int64, apply func(*T) error) (*T, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	orig := *P(row).Row()
	if err := apply(row); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	base := P(row).Row()
	base.ID, base.CreatedAt = orig.ID, orig.CreatedAt
	if err := s.validate(P(row)); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbErr(err, "updating "+s.noun)
	}
	s.invalidate(ctx)
	return row, nil
}

// Delete removes a row.
func (s *OrderedStore[T, P]) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return dbErr(res.Error, "deleting "+s.noun)
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "deleting "+s.noun)
	}
	s.invalidate(ctx)
	return nil
}

// Reorder sets each row's position to its index in ids. Either every id
// exists and all rows move, or nothing changes.
func (s *OrderedStore[T, P]) Reorder(ctx context.Context, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return &ValidationError{Fields: map[string]string{"ids": "must not contain duplicates"}}
		}
		seen[id] = true
	}
	if len(ids) == 0 {
		return &ValidationError{Fields: map[string]string{"ids": "is required"}}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(new(T)).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(ids)) {
			return newError(ErrNotFound, "One or more "+s.noun+"s not found")
		}
		for i, id := range ids {
			if err := tx.Model(new(T)).Where("id = ?", id).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dbErr(err, "reordering "+s.noun+"s")
	}
	s.invalidate(ctx)
	return nil
}
