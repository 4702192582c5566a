package handlers

import (
	"database/sql"

	"github.com/dairydesk/dairydesk-golang/internal/auth"
	"github.com/dairydesk/dairydesk-golang/internal/mirror"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB       *sql.DB           // Primary database connection
	Sessions auth.SessionStore // Token revocation + password-reset tokens
	Syncer   *mirror.Syncer    // Per-owner collection mirrors and write-through mutations
}
