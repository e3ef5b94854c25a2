package session

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectFromToken reads the numeric "sub" claim without verifying the
// signature. The result identifies the user for display only; the server
// verifies every request.
func SubjectFromToken(raw string) (int64, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return 0, fmt.Errorf("decode token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("read sub claim: %w", err)
	}
	if sub == "" {
		return 0, fmt.Errorf("token has no sub claim")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sub claim %q: %w", sub, err)
	}
	return id, nil
}
