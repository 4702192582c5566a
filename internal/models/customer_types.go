package models

import (
	"time"
)

// Customer is the model for the 'customers' table.
type Customer struct {
	ID            int64     `json:"id" db:"id"`
	OwnerID       int64     `json:"ownerId" db:"owner_id"`
	Name          string    `json:"name" db:"name"`
	Address       string    `json:"address" db:"address"`
	ContactNumber string    `json:"contactNumber" db:"contact_number"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
