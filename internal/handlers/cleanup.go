package handlers

import (
	"log"
)

// PurgeAbandonedProfiles deletes profiles that never verified their email
// and whose verification code expired more than 7 days ago. It runs from
// the background worker in main.
func (h *Handlers) PurgeAbandonedProfiles() {
	query := `
		DELETE FROM profiles
		WHERE status = 'unverified'
		AND verification_expiry < NOW() - INTERVAL 7 DAY`

	result, err := h.DB.Exec(query)
	if err != nil {
		log.Printf("ERROR: Failed to purge abandoned profiles: %v", err)
		return
	}

	if purged, _ := result.RowsAffected(); purged > 0 {
		log.Printf("Purged %d abandoned unverified profile(s)", purged)
	}
}
