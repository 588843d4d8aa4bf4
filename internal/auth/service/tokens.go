package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/domain"
)

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID with a fresh id.
func (t *Tokens) Issue(userID int64) (domain.Token, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return domain.Token{AccessToken: signed, TokenType: domain.TokenType, ExpiresAt: exp}, nil
}

// Verify checks signature, issuer and expiry and returns the session the
// token stands for.
func (t *Tokens) Verify(raw string) (domain.Session, error) {
	var claims domain.Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Session{}, errors.Join(domain.ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || claims.ID == "" {
		return domain.Session{}, domain.ErrInvalidToken
	}
	return domain.Session{UserID: id, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}
