package token

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"laptopstore/models"
)

// Claims is the signed payload carried inside an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Signer signs and verifies access tokens with an HMAC-SHA256 key loaded
// once at startup. It holds no mutable state.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign produces a compact signed token for the given identity. tokenID
// becomes the jti claim and ties the token string to its store record.
func (s *Signer) Sign(tokenID, username string, role models.Role, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, structure and the exp claim. Any failure comes
// back as ErrInvalidToken; no further detail is exposed.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashValue returns the hex SHA-256 of a raw token value, the only form in
// which token values are persisted or compared against the store.
func HashValue(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}
