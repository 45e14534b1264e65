// Package token verifies the push-channel bearer tokens minted by the
// external auth service.
package token

import (
	"errors"
	"fmt"
	"time"

	"scholarfund-backend/internal/domain/apperr"
	"scholarfund-backend/internal/domain/notify"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = apperr.New(apperr.ErrUnauthorized, "invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is who a verified token speaks for.
type Principal struct {
	Identity string
	Role     notify.Role
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

func (v *Verifier) Verify(raw string) (Principal, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	role, ok := notify.ParseRole(claims.Role)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return Principal{Identity: claims.Subject, Role: role}, nil
}

// Issue mints an HS256 token. Used by tests and local tooling.
func (v *Verifier) Issue(p Principal, ttl time.Duration) (string, error) {
	if p.Identity == "" {
		return "", errors.New("identity required")
	}
	now := v.now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
