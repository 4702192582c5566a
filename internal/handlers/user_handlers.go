package handlers

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/auth"
	"github.com/dairydesk/dairydesk-golang/internal/email"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// User-facing error strings. Everything not in this small set falls through
// to a generic message.
const (
	msgWrongCredentials = "Invalid email or password"
	msgEmailInUse       = "Email is already in use"
	msgNotVerified      = "Account not verified. Please check your email for a verification code."
	msgGenericError     = "Something went wrong. Please try again."
)

// isDuplicateEntry reports whether err is MySQL's duplicate-key error
// (number 1062), which is how a taken email surfaces.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// generateVerificationCode creates a 6-digit numeric code (100000-999999).
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}

//
// --- Registration ---
//

// RegisterInput defines the expected JSON data for registration.
// The 'binding' tags are used by Gin for automatic validation.
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /v1/register.
// It creates an 'unverified' profile and emails a verification code. No
// session token is issued: the new identity must verify, then log in.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Generate Verification Code ---
	code, err := generateVerificationCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}
	expiry := time.Now().Add(15 * time.Minute)

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// 4. --- Save to Database ---
	now := time.Now()
	query := `
		INSERT INTO profiles
		(email, username, password_hash, status, created_at, updated_at, verification_code, verification_expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := h.DB.Exec(query,
		input.Email, input.Username, password.Hash, models.StatusUnverified, now, now, code, expiry)
	if err != nil {
		if isDuplicateEntry(err) {
			c.JSON(http.StatusConflict, gin.H{"error": msgEmailInUse})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// 5. --- Send Verification Email ---
	if err := email.SendVerificationEmail(input.Email, code); err != nil {
		// Log and continue; the user can ask for a resend.
		log.Printf("ERROR: Failed to send verification email to %s: %v", input.Email, err)
	}

	// 6. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please check your email for a verification code.",
		"user": gin.H{
			"id":       id,
			"email":    input.Email,
			"username": input.Username,
		},
	})
}

//
// --- Login ---
//

// LoginInput defines the JSON data expected for a login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find Profile By Email ---
	var profile models.Profile
	query := "SELECT id, email, username, password_hash, status FROM profiles WHERE email = ?"
	err := h.DB.QueryRow(query, input.Email).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Username,
		&profile.PasswordHash,
		&profile.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgWrongCredentials})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// 3. --- Block Unverified Identities ---
	// An unverified profile is treated as logged out no matter what.
	if profile.Status != models.StatusActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotVerified})
		return
	}

	// 4. --- Check Password ---
	password := models.Password{Hash: profile.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgWrongCredentials})
		return
	}

	// 5. --- Generate JWT ---
	token, err := auth.GenerateToken(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// 6. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":       profile.ID,
			"email":    profile.Email,
			"username": profile.Username,
		},
	})
}

//
// --- Email Verification ---
//

// VerifyEmailInput defines the expected JSON for email verification.
type VerifyEmailInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyEmail is the handler for POST /v1/auth/verify-email.
func (h *Handlers) VerifyEmail(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input VerifyEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find Profile By Email ---
	var profile models.Profile
	var code sql.NullString
	var codeExpiry sql.NullTime
	query := "SELECT id, status, verification_code, verification_expiry FROM profiles WHERE email = ?"
	err := h.DB.QueryRow(query, input.Email).Scan(&profile.ID, &profile.Status, &code, &codeExpiry)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// 3. --- Check Status ---
	if profile.Status != models.StatusUnverified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account is already verified."})
		return
	}

	// 4. --- Check Code & Expiry ---
	if !code.Valid || !codeExpiry.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No verification code found for this user."})
		return
	}
	if code.String != input.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code."})
		return
	}
	if time.Now().After(codeExpiry.Time) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code has expired."})
		return
	}

	// 5. --- Activate the Profile ---
	update := `
		UPDATE profiles
		SET status = ?, verification_code = NULL, verification_expiry = NULL, updated_at = ?
		WHERE id = ?`
	if _, err := h.DB.Exec(update, models.StatusActive, time.Now(), profile.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can now log in."})
}

// ResendCodeInput defines the expected JSON for resending a code.
type ResendCodeInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendVerificationCode is the handler for POST /v1/auth/resend-code.
func (h *Handlers) ResendVerificationCode(c *gin.Context) {
	var input ResendCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only unverified profiles can ask for a new code.
	var profileID int64
	var status string
	err := h.DB.QueryRow("SELECT id, status FROM profiles WHERE email = ?", input.Email).Scan(&profileID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}
	if status != models.StatusUnverified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account is already verified."})
		return
	}

	code, err := generateVerificationCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}
	expiry := time.Now().Add(15 * time.Minute)

	update := "UPDATE profiles SET verification_code = ?, verification_expiry = ?, updated_at = ? WHERE id = ?"
	if _, err := h.DB.Exec(update, code, expiry, time.Now(), profileID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	if err := email.SendVerificationEmail(input.Email, code); err != nil {
		log.Printf("ERROR: Failed to send verification email to %s: %v", input.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "A new verification code has been sent to your email."})
}

//
// --- Password Reset ---
//

// RequestPasswordResetInput defines the expected JSON for a reset request.
type RequestPasswordResetInput struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset is the handler for POST /v1/auth/request-password-reset.
// It always answers with the same neutral message, so the endpoint cannot
// be used to probe which emails are registered.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var input RequestPasswordResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	neutral := gin.H{"message": "If that email is registered, a reset token has been sent."}

	var profileID int64
	err := h.DB.QueryRow("SELECT id FROM profiles WHERE email = ?", input.Email).Scan(&profileID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, neutral)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// One-time token, held in Redis for an hour.
	token := uuid.New().String()
	if err := h.Sessions.SetResetToken(c, token, profileID, time.Hour); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	if err := email.SendPasswordResetEmail(input.Email, token); err != nil {
		log.Printf("ERROR: Failed to send password reset email to %s: %v", input.Email, err)
	}

	c.JSON(http.StatusOK, neutral)
}

// ResetPasswordInput defines the expected JSON for completing a reset.
type ResetPasswordInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword is the handler for POST /v1/auth/reset-password.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profileID, err := h.Sessions.ConsumeResetToken(c, input.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	var password models.Password
	if err := password.Set(input.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	update := "UPDATE profiles SET password_hash = ?, updated_at = ? WHERE id = ?"
	if _, err := h.DB.Exec(update, password.Hash, time.Now(), profileID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can now log in."})
}

//
// --- Logout & Password Change (authenticated) ---
//

// Logout is the handler for POST /v1/logout. It denylists the presented
// token for its remaining lifetime and tears down the identity's mirrors.
func (h *Handlers) Logout(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	token := c.MustGet("token").(string)
	expiry := c.MustGet("tokenExpiry").(time.Time)

	if err := h.Sessions.Revoke(c, token, time.Until(expiry)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	// Identity change: close the owner's subscriptions and mirrors.
	h.Syncer.Close(userID)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ChangePasswordInput defines the expected JSON for a password change.
type ChangePasswordInput struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword is the handler for PATCH /v1/profile/password.
func (h *Handlers) ChangePassword(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var password models.Password
	if err := password.Set(input.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	update := "UPDATE profiles SET password_hash = ?, updated_at = ? WHERE id = ?"
	if _, err := h.DB.Exec(update, password.Hash, time.Now(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
