// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/olegiv/realty-go/internal/model"
)

// PropertyFilter narrows a property listing.
type PropertyFilter struct {
	Type     string
	Status   string
	Featured *bool
	City     string
	MinPrice *float64
	MaxPrice *float64
	Bedrooms *int
	Query    string
}

// PropertyInput is the body of a property create or update. On update, nil
// scalars are left unchanged and each non-nil collection replaces the
// stored one.
type PropertyInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Featured    *bool    `json:"featured"`
	Type        *string  `json:"type"`
	Status      *string  `json:"status"`
	Bedrooms    *int     `json:"bedrooms"`
	Bathrooms   *int     `json:"bathrooms"`
	Garage      *int     `json:"garage"`
	LotSize     *string  `json:"lotSize"`
	LivingArea  *string  `json:"livingArea"`
	YearBuilt   *int     `json:"yearBuilt"`
	AgentID     *int64   `json:"agentId"`

	Location               *model.PropertyLocation        `json:"location"`
	Images                 *[]model.PropertyImage         `json:"images"`
	Specifications         *[]model.PropertySpecification `json:"specifications"`
	MaterialCertifications *[]model.MaterialCertification `json:"materialCertifications"`
	POIs                   *[]model.POI                   `json:"pois"`
}

// SimilarLimit caps the number of similar properties.
const SimilarLimit = 3

// PropertyService manages listings and their nested records.
type PropertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a PropertyService.
func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

func preloadProperty(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Location").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position").Order("id") }).
		Preload("Specifications").
		Preload("MaterialCertifications").
		Preload("POIs", func(db *gorm.DB) *gorm.DB { return db.Order("distance").Order("id") })
}

// List returns properties newest first with all nested records.
func (s *PropertyService) List(ctx context.Context, f PropertyFilter, p Paging) (List[model.Property], error) {
	q := s.db.WithContext(ctx).Model(&model.Property{})
	if f.Type != "" {
		q = q.Where("properties.type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("properties.status = ?", f.Status)
	}
	if f.Featured != nil {
		q = q.Where("properties.featured = ?", *f.Featured)
	}
	if f.MinPrice != nil {
		q = q.Where("properties.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("properties.price <= ?", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		q = q.Where("properties.bedrooms >= ?", *f.Bedrooms)
	}
	if f.Query != "" {
		q = q.Where("LOWER(properties.title) LIKE ?"+likeEscape, likePattern(f.Query))
	}
	if f.City != "" {
		q = q.Where("EXISTS (SELECT 1 FROM property_locations pl WHERE pl.property_id = properties.id AND LOWER(pl.city) = ?)",
			strings.ToLower(strings.TrimSpace(f.City)))
	}

	res, err := paginate[model.Property](preloadProperty(q).Order("properties.created_at DESC").Order("properties.id DESC"), p)
	return res, dbErr(err, "listing properties")
}

// Get loads one property with all nested records.
func (s *PropertyService) Get(ctx context.Context, id int64) (*model.Property, error) {
	var prop model.Property
	if err := preloadProperty(s.db.WithContext(ctx)).First(&prop, id).Error; err != nil {
		return nil, dbErr(err, "loading property")
	}
	return &prop, nil
}

// Similar returns up to SimilarLimit other properties sharing the type,
// status or bedroom count of id.
func (s *PropertyService) Similar(ctx context.Context, id int64) ([]model.Property, error) {
	var base model.Property
	if err := s.db.WithContext(ctx).First(&base, id).Error; err != nil {
		return nil, dbErr(err, "loading property")
	}
	items := make([]model.Property, 0, SimilarLimit)
	err := preloadProperty(s.db.WithContext(ctx)).
		Where("id <> ?", id).
		Where("type = ? OR status = ? OR bedrooms = ?", base.Type, base.Status, base.Bedrooms).
		Order("created_at DESC").
		Limit(SimilarLimit).
		Find(&items).Error
	return items, dbErr(err, "loading similar properties")
}

func validateProperty(in *PropertyInput, create bool) error {
	v := validator{}
	if create {
		v.check(in.Title != nil && notBlank(*in.Title), "title", "is required")
		v.check(in.Type != nil, "type", "is required")
		v.check(in.Status != nil, "status", "is required")
	}
	if in.Title != nil {
		v.check(notBlank(*in.Title), "title", "is required")
		v.check(maxLen(*in.Title, 255), "title", "is too long")
	}
	if in.Type != nil {
		v.check(model.IsValidPropertyType(*in.Type), "type", "is not a valid property type")
	}
	if in.Status != nil {
		v.check(model.IsValidPropertyStatus(*in.Status), "status", "is not a valid property status")
	}
	if in.Price != nil {
		v.check(*in.Price >= 0, "price", "must not be negative")
	}
	for _, n := range []struct {
		field string
		val   *int
	}{{"bedrooms", in.Bedrooms}, {"bathrooms", in.Bathrooms}, {"garage", in.Garage}} {
		if n.val != nil {
			v.check(*n.val >= 0, n.field, "must not be negative")
		}
	}
	if in.Location != nil {
		v.check(in.Location.Latitude >= -90 && in.Location.Latitude <= 90, "location.latitude", "is out of range")
		v.check(in.Location.Longitude >= -180 && in.Location.Longitude <= 180, "location.longitude", "is out of range")
	}
	if in.Images != nil {
		for _, img := range *in.Images {
			v.check(notBlank(img.URL), "images", "every image needs a url")
		}
	}
	if in.MaterialCertifications != nil {
		for _, c := range *in.MaterialCertifications {
			v.check(notBlank(c.Material), "materialCertifications", "every certification needs a material")
		}
	}
	if in.POIs != nil {
		for _, poi := range *in.POIs {
			v.check(notBlank(poi.Name) && notBlank(poi.Type), "pois", "every point of interest needs a name and type")
		}
	}
	return v.err()
}

func (in *PropertyInput) scalarUpdates() map[string]any {
	u := map[string]any{}
	set := func(col string, ok bool, val any) {
		if ok {
			u[col] = val
		}
	}
	set("title", in.Title != nil, deref(in.Title))
	set("description", in.Description != nil, deref(in.Description))
	set("price", in.Price != nil, deref(in.Price))
	set("featured", in.Featured != nil, deref(in.Featured))
	set("type", in.Type != nil, deref(in.Type))
	set("status", in.Status != nil, deref(in.Status))
	set("bedrooms", in.Bedrooms != nil, deref(in.Bedrooms))
	set("bathrooms", in.Bathrooms != nil, deref(in.Bathrooms))
	set("garage", in.Garage != nil, deref(in.Garage))
	set("lot_size", in.LotSize != nil, deref(in.LotSize))
	set("living_area", in.LivingArea != nil, deref(in.LivingArea))
	set("year_built", in.YearBuilt != nil, deref(in.YearBuilt))
	if in.AgentID != nil {
		u["agent_id"] = *in.AgentID
	}
	return u
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// replaceNested deletes and recreates every nested collection present in in.
func replaceNested(tx *gorm.DB, propertyID int64, in *PropertyInput) error {
	if in.Location != nil {
		if err := tx.Where("property_id = ?", propertyID).Delete(&model.PropertyLocation{}).Error; err != nil {
			return err
		}
		loc := *in.Location
		loc.ID, loc.PropertyID = 0, propertyID
		if err := tx.Create(&loc).Error; err != nil {
			return err
		}
	}
	if in.Images != nil {
		if err := tx.Where("property_id = ?", propertyID).Delete(&model.PropertyImage{}).Error; err != nil {
			return err
		}
		if len(*in.Images) > 0 {
			imgs := make([]model.PropertyImage, len(*in.Images))
			for i, img := range *in.Images {
				img.ID, img.PropertyID = 0, propertyID
				if img.Position == 0 {
					img.Position = i
				}
				imgs[i] = img
			}
			if err := tx.Create(&imgs).Error; err != nil {
				return err
			}
		}
	}
	if in.Specifications != nil {
		if err := tx.Where("property_id = ?", propertyID).Delete(&model.PropertySpecification{}).Error; err != nil {
			return err
		}
		if err := createChildren(tx, *in.Specifications, func(s *model.PropertySpecification) {
			s.ID, s.PropertyID = 0, propertyID
		}); err != nil {
			return err
		}
	}
	if in.MaterialCertifications != nil {
		if err := tx.Where("property_id = ?", propertyID).Delete(&model.MaterialCertification{}).Error; err != nil {
			return err
		}
		if err := createChildren(tx, *in.MaterialCertifications, func(c *model.MaterialCertification) {
			c.ID, c.PropertyID = 0, propertyID
		}); err != nil {
			return err
		}
	}
	if in.POIs != nil {
		if err := tx.Where("property_id = ?", propertyID).Delete(&model.POI{}).Error; err != nil {
			return err
		}
		if err := createChildren(tx, *in.POIs, func(p *model.POI) {
			p.ID, p.PropertyID = 0, propertyID
		}); err != nil {
			return err
		}
	}
	return nil
}

func createChildren[T any](tx *gorm.DB, items []T, attach func(*T)) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]T, len(items))
	for i := range items {
		rows[i] = items[i]
		attach(&rows[i])
	}
	return tx.Create(&rows).Error
}

// Create stores a property and all nested records in one transaction.
func (s *PropertyService) Create(ctx context.Context, in PropertyInput) (*model.Property, error) {
	if err := validateProperty(&in, true); err != nil {
		return nil, err
	}
	prop := model.Property{
		Title:       deref(in.Title),
		Description: deref(in.Description),
		Price:       deref(in.Price),
		Featured:    deref(in.Featured),
		Type:        deref(in.Type),
		Status:      deref(in.Status),
		Bedrooms:    deref(in.Bedrooms),
		Bathrooms:   deref(in.Bathrooms),
		Garage:      deref(in.Garage),
		LotSize:     deref(in.LotSize),
		LivingArea:  deref(in.LivingArea),
		YearBuilt:   deref(in.YearBuilt),
		AgentID:     in.AgentID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&prop).Error; err != nil {
			return err
		}
		return replaceNested(tx, prop.ID, &in)
	})
	if err != nil {
		return nil, dbErr(err, "creating property")
	}
	slog.Info("property created", "category", model.EventCategoryProperty, "property_id", prop.ID)
	return s.Get(ctx, prop.ID)
}

// Update changes scalars and replaces the nested collections present in in,
// all in one transaction.
func (s *PropertyService) Update(ctx context.Context, id int64, in PropertyInput) (*model.Property, error) {
	if err := validateProperty(&in, false); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prop model.Property
		if err := tx.Select("id").First(&prop, id).Error; err != nil {
			return err
		}
		if updates := in.scalarUpdates(); len(updates) > 0 {
			if err := tx.Model(&prop).Updates(updates).Error; err != nil {
				return err
			}
		}
		return replaceNested(tx, id, &in)
	})
	if err != nil {
		return nil, dbErr(err, "updating property")
	}
	return s.Get(ctx, id)
}

// Delete removes a property. Nested records and favourites go with it.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prop model.Property
		if err := tx.Select("id").First(&prop, id).Error; err != nil {
			return err
		}
		for _, child := range []any{
			&model.PropertyLocation{}, &model.PropertyImage{}, &model.PropertySpecification{},
			&model.MaterialCertification{}, &model.POI{},
		} {
			if err := tx.Where("property_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM user_favorites WHERE property_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&prop).Error
	})
	if err != nil {
		return dbErr(err, "deleting property")
	}
	slog.Info("property deleted", "category", model.EventCategoryProperty, "property_id", id)
	return nil
}

// Count returns the number of properties.
func (s *PropertyService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Property{}).Count(&n).Error
	return n, dbErr(err, "counting properties")
}
