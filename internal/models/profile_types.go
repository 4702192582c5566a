package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Profile statuses. A profile stays 'unverified' until the emailed code is
// confirmed; only 'active' profiles may hold a session.
const (
	StatusUnverified = "unverified"
	StatusActive     = "active"
)

// Profile is the model for the 'profiles' table.
// Pointers are used for nullable fields so the JSON stays clean.
type Profile struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Status       string `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Verification
	VerificationCode   *string    `json:"-" db:"verification_code"`
	VerificationExpiry *time.Time `json:"-" db:"verification_expiry"`
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
