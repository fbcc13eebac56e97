// Package token wraps golang-jwt behind the TokenIssuer port: HS256-signed
// access and refresh tokens with distinct secrets and distinct lifetimes.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

// Config carries the signing material and lifetimes for both token kinds.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Issuer implements ports.TokenIssuer.
type Issuer struct {
	cfg Config
}

var _ ports.TokenIssuer = (*Issuer)(nil)

// NewIssuer validates the configuration and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: both signing secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: both TTLs must be positive")
	}
	return &Issuer{cfg: cfg}, nil
}

// IssuePair signs the access and refresh tokens concurrently; the two
// signatures are independent.
func (i *Issuer) IssuePair(account *domain.Account) (domain.TokenPair, time.Time, error) {
	now := time.Now().UTC()
	refreshExpiresAt := now.Add(i.cfg.RefreshTTL)

	accessClaims := jwt.MapClaims{
		"sub":    account.ID,
		"email":  account.Email,
		"role":   string(account.Role),
		"status": string(account.Status),
		"iat":    now.Unix(),
		"exp":    now.Add(i.cfg.AccessTTL).Unix(),
	}

	tokenID, err := randomTokenID()
	if err != nil {
		return domain.TokenPair{}, time.Time{}, err
	}
	refreshClaims := jwt.MapClaims{
		"sub": account.ID,
		"jti": tokenID,
		"iat": now.Unix(),
		"exp": refreshExpiresAt.Unix(),
	}

	var pair domain.TokenPair
	var g errgroup.Group
	g.Go(func() error {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(i.cfg.AccessSecret))
		if err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}
		pair.AccessToken = signed
		return nil
	})
	g.Go(func() error {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(i.cfg.RefreshSecret))
		if err != nil {
			return fmt.Errorf("sign refresh token: %w", err)
		}
		pair.RefreshToken = signed
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.TokenPair{}, time.Time{}, err
	}

	return pair, refreshExpiresAt, nil
}

// VerifyRefresh checks the refresh token's signature and expiry and returns
// its subject.
func (i *Issuer) VerifyRefresh(token string) (string, error) {
	return verify(token, i.cfg.RefreshSecret)
}

// VerifyAccess checks the access token's signature and expiry and returns
// its subject.
func (i *Issuer) VerifyAccess(token string) (string, error) {
	return verify(token, i.cfg.AccessSecret)
}

func verify(token, secret string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	if !parsed.Valid {
		return "", jwt.ErrTokenUnverifiable
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}

func randomTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
