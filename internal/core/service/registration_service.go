package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sellerhub/identity-service/internal/api/metrics"
	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

const (
	defaultPendingTTL        = 5 * time.Minute
	defaultCodeLength        = 6
	resetTokenTTL            = time.Hour
	verificationResendExpiry = 24 * time.Hour
)

// RegistrationConfig carries the policy knobs of the registration flow.
type RegistrationConfig struct {
	PendingTTL             time.Duration
	VerificationCodeLength int
}

type registrationService struct {
	pending  ports.PendingRepository
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenHasher
	notifier ports.Notifier
	throttle ports.ResendThrottle
	tx       ports.TxRunner
	clock    ports.Clock

	cfg RegistrationConfig
	log zerolog.Logger
}

// NewRegistrationService wires the registration flow. throttle may be nil;
// throttling is then skipped entirely.
func NewRegistrationService(
	pending ports.PendingRepository,
	accounts ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenHasher,
	notifier ports.Notifier,
	throttle ports.ResendThrottle,
	tx ports.TxRunner,
	clock ports.Clock,
	cfg RegistrationConfig,
	log zerolog.Logger,
) ports.RegistrationService {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultPendingTTL
	}
	if cfg.VerificationCodeLength <= 0 {
		cfg.VerificationCodeLength = defaultCodeLength
	}
	return &registrationService{
		pending:  pending,
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		throttle: throttle,
		tx:       tx,
		clock:    clock,
		cfg:      cfg,
		log:      log,
	}
}

func (s *registrationService) Submit(ctx context.Context, in ports.RegisterInput) (*domain.PendingRegistration, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.PhoneNumber == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	// Uniqueness is checked against both durable accounts and records still
	// pending verification.
	if _, err := s.accounts.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	}
	if _, err := s.accounts.FindByPhone(ctx, in.PhoneNumber); err == nil {
		return nil, domain.ErrPhoneTaken
	}
	if _, err := s.pending.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	}

	// The plaintext password does not outlive this request.
	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := generateNumericCode(s.cfg.VerificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.clock.Now()
	staged := &domain.PendingRegistration{
		ID:                        uuid.NewString(),
		Email:                     in.Email,
		PhoneNumber:               in.PhoneNumber,
		PasswordHash:              passwordHash,
		FirstName:                 in.FirstName,
		LastName:                  in.LastName,
		VerificationCode:          code,
		VerificationCodeExpiresAt: now.Add(s.cfg.PendingTTL),
		CreatedAt:                 now,
		ExpiresAt:                 now.Add(s.cfg.PendingTTL),
	}

	created, err := s.pending.Create(ctx, staged)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, created.Email, ports.NotificationVerificationCode, map[string]string{
		"name": created.FirstName,
		"code": code,
	})

	metrics.RegistrationsTotal.Inc()
	s.log.Info().Str("email", created.Email).Time("expires_at", created.ExpiresAt).Msg("registration staged")

	return created, nil
}

func (s *registrationService) Verify(ctx context.Context, email, code string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	staged, err := s.pending.FindByEmailAndCode(ctx, email, code)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	now := s.clock.Now()
	if staged.CodeExpired(now) {
		// An expired attempt consumes the staged record; a later retry with
		// the same code comes back not-found.
		if delErr := s.pending.Delete(ctx, staged.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("email", email).Msg("failed to delete expired pending registration")
		}
		metrics.VerificationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrVerificationCodeExpired
	}

	verifiedAt := now
	account := &domain.Account{
		ID:              uuid.NewString(),
		Email:           staged.Email,
		PhoneNumber:     staged.PhoneNumber,
		PasswordHash:    staged.PasswordHash,
		FirstName:       staged.FirstName,
		LastName:        staged.LastName,
		Role:            domain.RoleSeller,
		Status:          domain.StatusApproved,
		IsEmailVerified: true,
		EmailVerifiedAt: &verifiedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Promotion is one unit: create the account and consume the staged
	// record together. When a crash slipped an account in before the
	// pending delete, the retry resolves idempotently to that account.
	var promoted *domain.Account
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err := s.accounts.Create(txCtx, account)
		if err != nil {
			if errors.Is(err, domain.ErrEmailTaken) {
				existing, findErr := s.accounts.FindByEmail(txCtx, staged.Email)
				if findErr != nil {
					return err
				}
				created = existing
			} else {
				return err
			}
		}
		if err := s.pending.Delete(txCtx, staged.ID); err != nil {
			return fmt.Errorf("delete pending registration: %w", err)
		}
		promoted = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VerificationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", promoted.ID).Str("email", promoted.Email).Msg("registration promoted to account")

	return promoted, nil
}

func (s *registrationService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.IsEmailVerified {
		return domain.ErrAlreadyVerified
	}
	if !s.allowResend(ctx, email, ports.NotificationVerificationCode) {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	expires := s.clock.Now().Add(verificationResendExpiry)
	account.VerificationToken = token
	account.VerificationTokenExpires = &expires
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	s.notify(ctx, account.Email, ports.NotificationVerificationCode, map[string]string{
		"name":  account.FirstName,
		"token": token,
	})
	return nil
}

func (s *registrationService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	// Account existence is never revealed: every path out of here looks
	// identical to the caller.
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}
	if !s.allowResend(ctx, email, ports.NotificationPasswordReset) {
		return nil
	}

	rawToken, err := randomToken()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate reset token")
		return nil
	}

	expires := s.clock.Now().Add(resetTokenTTL)
	account.PasswordResetToken = s.tokens.Hash(rawToken)
	account.PasswordResetTokenExpires = &expires
	if err := s.accounts.Update(ctx, account); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("failed to store reset token")
		return nil
	}

	s.notify(ctx, account.Email, ports.NotificationPasswordReset, map[string]string{
		"name":  account.FirstName,
		"token": rawToken,
	})
	return nil
}

func (s *registrationService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return domain.ErrInvalidInput
	}

	account, err := s.accounts.FindByResetTokenHash(ctx, s.tokens.Hash(rawToken))
	if err != nil {
		return domain.ErrResetTokenInvalid
	}

	now := s.clock.Now()
	if account.PasswordResetTokenExpires == nil || now.After(*account.PasswordResetTokenExpires) {
		return domain.ErrResetTokenInvalid
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = passwordHash
	account.PasswordResetToken = ""
	account.PasswordResetTokenExpires = nil
	account.PasswordChangedAt = &now
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.notify(ctx, account.Email, ports.NotificationPasswordChanged, map[string]string{
		"name": account.FirstName,
	})
	s.log.Info().Str("account_id", account.ID).Msg("password reset")
	return nil
}

// notify delivers best-effort: failures are logged and swallowed so email
// trouble never fails an otherwise-successful operation.
func (s *registrationService) notify(ctx context.Context, to string, kind ports.NotificationKind, data map[string]string) {
	if err := s.notifier.Send(ctx, to, kind, data); err != nil {
		s.log.Error().Err(err).Str("to", to).Str("kind", string(kind)).Msg("notification send failed")
	}
}

// allowResend consults the throttle, treating throttle errors as permission
// (the throttle is an optimization, not a gate).
func (s *registrationService) allowResend(ctx context.Context, email string, kind ports.NotificationKind) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, email, kind)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("resend throttle check failed, allowing")
		return true
	}
	if !ok {
		s.log.Debug().Str("email", email).Str("kind", string(kind)).Msg("resend throttled")
	}
	return ok
}

// generateNumericCode returns a uniformly random numeric code of the given
// length with no leading-zero bias.
func generateNumericCode(length int) (string, error) {
	max := big.NewInt(10)
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
