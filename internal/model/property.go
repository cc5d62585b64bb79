// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"

	"gorm.io/datatypes"
)

// Property types.
const (
	PropertyTypeVilla      = "villa"
	PropertyTypeApartment  = "apartment"
	PropertyTypeHouse      = "house"
	PropertyTypePenthouse  = "penthouse"
	PropertyTypePlot       = "plot"
	PropertyTypeCommercial = "commercial"
)

// Property listing statuses.
const (
	PropertyStatusForSale = "for sale"
	PropertyStatusForRent = "for rent"
	PropertyStatusSold    = "sold"
)

var (
	propertyTypes    = []string{PropertyTypeVilla, PropertyTypeApartment, PropertyTypeHouse, PropertyTypePenthouse, PropertyTypePlot, PropertyTypeCommercial}
	propertyStatuses = []string{PropertyStatusForSale, PropertyStatusForRent, PropertyStatusSold}
)

// IsValidPropertyType reports whether t is a known property type.
func IsValidPropertyType(t string) bool { return slices.Contains(propertyTypes, t) }

// IsValidPropertyStatus reports whether s is a known listing status.
func IsValidPropertyStatus(s string) bool { return slices.Contains(propertyStatuses, s) }

// Property is a listing with its nested location, media, specifications,
// certifications and nearby points of interest.
type Property struct {
	Base
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null;default:0;index" json:"price"`
	Featured    bool    `gorm:"not null;default:false;index" json:"featured"`
	Type        string  `gorm:"size:32;not null;index" json:"type"`
	Status      string  `gorm:"size:32;not null;index" json:"status"`
	Bedrooms    int     `gorm:"not null;default:0" json:"bedrooms"`
	Bathrooms   int     `gorm:"not null;default:0" json:"bathrooms"`
	Garage      int     `gorm:"not null;default:0" json:"garage"`
	LotSize     string  `gorm:"size:64" json:"lotSize,omitempty"`
	LivingArea  string  `gorm:"size:64" json:"livingArea,omitempty"`
	YearBuilt   int     `json:"yearBuilt,omitempty"`
	AgentID     *int64  `json:"agentId,omitempty"`

	Location               *PropertyLocation       `gorm:"constraint:OnDelete:CASCADE" json:"location,omitempty"`
	Images                 []PropertyImage         `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	Specifications         []PropertySpecification `gorm:"constraint:OnDelete:CASCADE" json:"specifications"`
	MaterialCertifications []MaterialCertification `gorm:"constraint:OnDelete:CASCADE" json:"materialCertifications"`
	POIs                   []POI                   `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"pois"`
}

// PropertyLocation is the map position and postal address of a property.
type PropertyLocation struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int64   `gorm:"not null;uniqueIndex" json:"-"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `gorm:"size:500" json:"address"`
	City       string  `gorm:"size:100;index" json:"city"`
	State      string  `gorm:"size:100" json:"state"`
	ZipCode    string  `gorm:"size:20" json:"zipCode"`
}

// PropertyImage is a gallery image stored on the CDN.
type PropertyImage struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int64  `gorm:"not null;index" json:"-"`
	URL        string `gorm:"size:1000;not null" json:"url"`
	PublicID   string `gorm:"size:255" json:"publicId,omitempty"`
	Position   int    `gorm:"not null;default:0" json:"position"`
}

// PropertySpecification lists construction details, each as a set of entries.
type PropertySpecification struct {
	ID             int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID     int64                       `gorm:"not null;index" json:"-"`
	Structure      datatypes.JSONSlice[string] `json:"structure"`
	Brickwork      datatypes.JSONSlice[string] `json:"brickwork"`
	Windows        datatypes.JSONSlice[string] `json:"windows"`
	ExternalFinish datatypes.JSONSlice[string] `json:"externalFinish"`
	InteriorFinish datatypes.JSONSlice[string] `json:"interiorFinish"`
	Doors          datatypes.JSONSlice[string] `json:"doors"`
	Flooring       datatypes.JSONSlice[string] `json:"flooring"`
	Kitchen        datatypes.JSONSlice[string] `json:"kitchen"`
	Washroom       datatypes.JSONSlice[string] `json:"washroom"`
	Elevator       datatypes.JSONSlice[string] `json:"elevator"`
	Electricity    datatypes.JSONSlice[string] `json:"electricity"`
	WaterSupply    datatypes.JSONSlice[string] `json:"waterSupply"`
}

// MaterialCertification documents a certified building material used in a property.
type MaterialCertification struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  int64  `gorm:"not null;index" json:"-"`
	Material    string `gorm:"size:255;not null" json:"material"`
	Brand       string `gorm:"size:255" json:"brand"`
	Certificate string `gorm:"size:255" json:"certificate"`
	Description string `gorm:"type:text" json:"description"`
	Verified    bool   `gorm:"not null;default:false" json:"verified"`
	ImageURL    string `gorm:"size:1000" json:"imageUrl,omitempty"`
}

// POI is a point of interest near a property. Distance is in kilometres.
type POI struct {
	ID         int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int64    `gorm:"not null;index" json:"-"`
	Name       string   `gorm:"size:255;not null" json:"name"`
	Type       string   `gorm:"size:64;not null" json:"type"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Distance   *float64 `json:"distance,omitempty"`
}

// TableName keeps the table name readable.
func (POI) TableName() string { return "pois" }
