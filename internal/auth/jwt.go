package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtSecretKey signs every session token. It is read from JWT_SECRET, with
// a development-only fallback.
var jwtSecretKey = func() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("DEV_ONLY_SECRET_SET_JWT_SECRET_IN_PRODUCTION")
}()

// GenerateToken creates a new JWT for a given profile ID.
func GenerateToken(profileID int64) (string, error) {
	// "sub" (Subject) carries the profile ID; tokens live for 72 hours.
	claims := jwt.MapClaims{
		"sub": profileID,
		"exp": time.Now().Add(time.Hour * 72).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string. It returns the
// profile ID (subject) and the token's expiry time if the token is valid.
// The expiry is needed by logout so the revocation record can share the
// token's remaining lifetime.
func ValidateToken(tokenString string) (int64, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return 0, time.Time{}, err // expired, malformed, bad signature
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	// "sub" arrives as float64 (JSON's number type).
	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, time.Time{}, errors.New("invalid subject claim")
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return 0, time.Time{}, errors.New("missing expiry claim")
	}

	return int64(subFloat), expiry.Time, nil
}
