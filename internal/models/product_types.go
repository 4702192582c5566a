package models

import (
	"time"
)

// Units of measure a product can be sold in.
const (
	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitPiece      = "pc"
)

// ValidUnit reports whether s is one of the supported units of measure.
func ValidUnit(s string) bool {
	switch s {
	case UnitMilliliter, UnitLiter, UnitGram, UnitKilogram, UnitPiece:
		return true
	}
	return false
}

// Product is the model for the 'products' table.
// Every product belongs to exactly one owner; all queries are owner-scoped.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	Unit      string    `json:"unit" db:"unit"`
	PhotoURL  *string   `json:"photoUrl,omitempty" db:"photo_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
