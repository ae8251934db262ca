package model

import "time"

// Service is a single purchasable catalog offering.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – display name, copied onto bookings.
//	Description     – free text.
//	Category        – free-text grouping (e.g. catering, decor).
//	BasePrice       – price in minor currency units.
//	DurationMinutes – length of one event slot for this service.
//	IsActive        – inactive services cannot be booked.
type Service struct {
	ID              uint64    `json:"id"`              // services.id
	Name            string    `json:"name"`            // services.name
	Description     string    `json:"description"`     // services.description
	Category        string    `json:"category"`        // services.category
	BasePrice       int64     `json:"basePrice"`       // services.base_price
	DurationMinutes int       `json:"durationMinutes"` // services.duration_minutes
	IsActive        bool      `json:"isActive"`        // services.is_active
	CreatedAt       time.Time `json:"createdAt"`       // services.created_at
	UpdatedAt       time.Time `json:"updatedAt"`       // services.updated_at
}

// Package bundles several services under one explicitly set price. The
// price is never derived from the member services.
type Package struct {
	ID              uint64    `json:"id"`              // packages.id
	Name            string    `json:"name"`            // packages.name
	Description     string    `json:"description"`     // packages.description
	ServiceIDs      []uint64  `json:"serviceIds"`      // packages.service_ids (JSON)
	DurationMinutes int       `json:"durationMinutes"` // packages.duration_minutes
	Price           int64     `json:"price"`           // packages.price
	IsActive        bool      `json:"isActive"`        // packages.is_active
	CreatedAt       time.Time `json:"createdAt"`       // packages.created_at
	UpdatedAt       time.Time `json:"updatedAt"`       // packages.updated_at
}

// CatalogItem is the part of a Service or Package a booking snapshots.
type CatalogItem struct {
	Name            string
	Price           int64
	DurationMinutes int
	IsActive        bool
}

func (s Service) Item() CatalogItem {
	return CatalogItem{Name: s.Name, Price: s.BasePrice, DurationMinutes: s.DurationMinutes, IsActive: s.IsActive}
}

func (p Package) Item() CatalogItem {
	return CatalogItem{Name: p.Name, Price: p.Price, DurationMinutes: p.DurationMinutes, IsActive: p.IsActive}
}
