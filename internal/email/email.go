package email

import (
	"fmt"
	"log"
)

// SendEmail is our placeholder email function.
// In the future, this will use a real email API (like SendGrid).
func SendEmail(to string, subject string, body string) error {
	// Instead of sending a real email, we log it to the console.
	// This lets us "see" the email and test our code without an API key.
	log.Println("====================================================")
	log.Printf("--- NEW EMAIL (PLACEHOLDER) ---")
	log.Printf("To: %s", to)
	log.Printf("Subject: %s", subject)
	log.Println("--- Body ---")
	log.Println(body)
	log.Println("====================================================")

	return nil
}

// SendVerificationEmail sends the 6-digit account verification code.
func SendVerificationEmail(to string, code string) error {
	subject := "Verify your DairyDesk Account"

	body := fmt.Sprintf(
		"Welcome to DairyDesk!\n\nYour verification code is: %s\n\nThis code will expire in 15 minutes.",
		code,
	)

	return SendEmail(to, subject, body)
}

// SendPasswordResetEmail sends the one-time password-reset token.
func SendPasswordResetEmail(to string, token string) error {
	subject := "Reset your DairyDesk password"

	body := fmt.Sprintf(
		"We received a request to reset your password.\n\nYour reset token is: %s\n\nIt expires in 1 hour. If you did not request this, you can ignore this email.",
		token,
	)

	return SendEmail(to, subject, body)
}
