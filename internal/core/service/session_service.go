package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sellerhub/identity-service/internal/api/metrics"
	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

type sessionService struct {
	accounts ports.AccountRepository
	tokens   ports.TokenRepository
	issuer   ports.TokenIssuer
	hasher   ports.PasswordHasher
	clock    ports.Clock

	lockoutThreshold int
	log              zerolog.Logger
}

// NewSessionService returns a SessionService enforcing the given lockout
// threshold (domain.DefaultLockoutThreshold when non-positive).
func NewSessionService(
	accounts ports.AccountRepository,
	tokens ports.TokenRepository,
	issuer ports.TokenIssuer,
	hasher ports.PasswordHasher,
	clock ports.Clock,
	lockoutThreshold int,
	log zerolog.Logger,
) ports.SessionService {
	if lockoutThreshold <= 0 {
		lockoutThreshold = domain.DefaultLockoutThreshold
	}
	return &sessionService{
		accounts:         accounts,
		tokens:           tokens,
		issuer:           issuer,
		hasher:           hasher,
		clock:            clock,
		lockoutThreshold: lockoutThreshold,
		log:              log,
	}
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("unknown_account").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !account.CanLogin(s.lockoutThreshold) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, domain.ErrAccountLocked
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		// The counter climbs on every failed attempt, including ones past
		// the threshold, so the account stays locked until an external
		// reset. The increment is a single store-level operation so two
		// concurrent failures both land.
		if incErr := s.accounts.IncrementFailedLogins(ctx, account.ID); incErr != nil {
			s.log.Error().Err(incErr).Str("account_id", account.ID).Msg("failed to record login failure")
		}
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.accounts.RecordLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	account.RecordSuccessfulLogin(now)

	pair, err := s.IssueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", account.ID).Msg("login succeeded")

	return &ports.LoginResult{Pair: pair, Account: account}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	// Any verification failure collapses to the same error; signature
	// diagnostics never reach the caller.
	accountID, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("bad_signature").Inc()
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	record, err := s.tokens.FindByTokenAndAccount(ctx, refreshToken, accountID)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("unknown").Inc()
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	now := s.clock.Now()
	// Store-side expiry is checked on top of the signature expiry.
	if !record.IsValid(now) {
		metrics.RefreshRotationsTotal.WithLabelValues("stale").Inc()
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	// Rotation-on-use. The revoke is conditional on the record not being
	// revoked yet, so of two concurrent rotations exactly one wins; the
	// loser observes ErrInvalidRefreshToken. If the process dies between
	// the revoke and the insert below, the client re-authenticates — a
	// token is never silently duplicated.
	won, err := s.tokens.Revoke(ctx, record.ID, now, "")
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("revoke rotated token: %w", err)
	}
	if !won {
		metrics.RefreshRotationsTotal.WithLabelValues("replayed").Inc()
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	pair, err := s.IssueTokens(ctx, account)
	if err != nil {
		return domain.TokenPair{}, err
	}

	metrics.RefreshRotationsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *sessionService) Logout(ctx context.Context, accountID, refreshToken string) error {
	now := s.clock.Now()

	// Acknowledge the presented token first; a miss is not an error.
	if refreshToken != "" {
		if record, err := s.tokens.FindByTokenAndAccount(ctx, refreshToken, accountID); err == nil {
			if _, err := s.tokens.Revoke(ctx, record.ID, now, ""); err != nil {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	// Logout means "log out everywhere".
	if err := s.tokens.RevokeAllForAccount(ctx, accountID, now); err != nil {
		return fmt.Errorf("revoke account tokens: %w", err)
	}

	s.log.Info().Str("account_id", accountID).Msg("logged out everywhere")
	return nil
}

// IssueTokens signs a fresh pair and persists the refresh-token record. It is
// the only issuance path; the federated reconciler calls it too.
func (s *sessionService) IssueTokens(ctx context.Context, account *domain.Account) (domain.TokenPair, error) {
	pair, refreshExpiresAt, err := s.issuer.IssuePair(account)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	record := &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		Token:     pair.RefreshToken,
		AccountID: account.ID,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return pair, nil
}

func (s *sessionService) ValidateAccess(ctx context.Context, accessToken string) (*domain.Account, error) {
	accountID, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountLocked
	}
	return account, nil
}

// realClock is the production ports.Clock.
type realClock struct{}

// NewClock returns the wall-clock ports.Clock implementation.
func NewClock() ports.Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }
