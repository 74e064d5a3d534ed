package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TestJWTSecret is the signing secret used by test helpers.
const TestJWTSecret = "test-jwt-secret-that-is-32-chars-long"

// NewTestJWTService creates a JWT service with a fixed secret and clock.
func NewTestJWTService(lifetime time.Duration, now func() time.Time) JWTService {
	svc, err := newHMACJWTService(TestJWTSecret, lifetime, now)
	if err != nil {
		// ALLOW-PANIC: constant test configuration
		panic(fmt.Sprintf("failed to create test JWT service: %v", err))
	}
	return svc
}

// GenerateAuthHeaderForTesting returns a "Bearer" header value for userID,
// valid for one hour from now.
func GenerateAuthHeaderForTesting(userID uuid.UUID) (string, error) {
	token, err := NewTestJWTService(time.Hour, time.Now).GenerateToken(context.Background(), userID)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
