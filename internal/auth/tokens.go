package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokens constructs a Tokens signer. An empty issuer disables the issuer check.
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:    time.Now,
	}
}

// Issue signs a token for the subject and email. Each token carries a fresh
// jti so it can be revoked on its own.
func (t *Tokens) Issue(subject, email string) (string, Claims, error) {
	now := t.now().UTC().Truncate(time.Second)
	claims := Claims{
		Subject:   subject,
		Email:     email,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(t.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    t.issuer,
			ID:        claims.ID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Parse verifies signature, algorithm, expiry and issuer.
func (t *Tokens) Parse(raw string) (Claims, error) {
	var tc tokenClaims
	token, err := t.parser.ParseWithClaims(raw, &tc, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.ExpiresAt == nil || tc.Subject == "" || tc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	if t.issuer != "" && !tc.VerifyIssuer(t.issuer, true) {
		return Claims{}, ErrInvalidToken
	}
	claims := Claims{
		Subject:   tc.Subject,
		Email:     tc.Email,
		ID:        tc.ID,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}
