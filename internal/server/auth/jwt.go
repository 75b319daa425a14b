package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the session cookie: the standard claims
// (the session id travels as "jti") plus the user the session belongs to.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// GenerateSessionToken signs a token binding sessionID to userID until expiresAt.
func GenerateSessionToken(sessionID string, userID int64, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// ParseSessionToken verifies tokenString and returns its claims.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification yields common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secretKey []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
