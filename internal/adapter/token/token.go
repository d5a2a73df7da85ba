// Package token issues and verifies the HS256 bearer tokens that carry an owner identity.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewManager(secret, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a token whose subject is ownerID. A non-positive ttl yields a token without expiry.
func (m *Manager) Issue(ownerID string, ttl time.Duration) (string, error) {
	const op = "adapter.token.Manager.Issue"

	if ownerID == "" {
		return "", fmt.Errorf("%s: owner id is empty", op)
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:  ownerID,
		Issuer:   m.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return signed, nil
}

// Verify returns the owner id carried by tokenString.
func (m *Manager) Verify(tokenString string) (string, error) {
	const op = "adapter.token.Manager.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w: empty subject", op, ErrInvalidToken)
	}

	return claims.Subject, nil
}
