package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/dairydesk/dairydesk-golang/internal/auth"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a gin.HandlerFunc that acts as our security guard.
// It validates the bearer token, refuses revoked tokens, and re-checks the
// profile status on every request so an unverified identity can never act
// as a logged-in session, even holding an otherwise valid token.
func AuthMiddleware(db *sql.DB, sessions auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 2. --- Validate Token ---
		userID, expiry, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// 3. --- Refuse Revoked Tokens (logout) ---
		revoked, err := sessions.IsRevoked(c, tokenString)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check session"})
			c.Abort()
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session has been logged out"})
			c.Abort()
			return
		}

		// 4. --- Re-check Profile Status ---
		var status string
		err = db.QueryRow("SELECT status FROM profiles WHERE id = ?", userID).Scan(&status)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		if status != models.StatusActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not verified. Please check your email for a verification code."})
			c.Abort()
			return
		}

		// 5. --- Success ---
		c.Set("userID", userID)
		c.Set("token", tokenString)
		c.Set("tokenExpiry", expiry)
		c.Next()
	}
}
