package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConfirmClaims bind a confirm token to one match and one organizer. The
// token expires with the confirm deadline, so a stale link can never
// confirm a rescued or expired match on behalf of an old organizer.
type ConfirmClaims struct {
	MatchID uint `json:"match_id"`
	UserID  uint `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueConfirmToken creates a signed confirm token for the organizer of a
// match, valid until the confirm deadline.
func IssueConfirmToken(matchID, userID uint, deadline time.Time, secret string) (string, error) {
	claims := &ConfirmClaims{
		MatchID: matchID,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(deadline),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseConfirmToken validates a confirm token and returns its claims.
func ParseConfirmToken(tokenString, secret string) (*ConfirmClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ConfirmClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ConfirmClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
