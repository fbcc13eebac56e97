package ports

import (
	"context"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// TxRunner is the transactional boundary abstraction. Writes issued through
// fn's context commit or roll back as a unit. Implementations that cannot
// span multiple stores may fall back to sequential execution, in which case
// callers must be written to tolerate an idempotent retry.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PasswordHasher is the slow, memory-hard, salted hash used for credential
// secrets. Distinct from TokenHasher on purpose: the two have opposite
// performance requirements.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenHasher is a fast one-way hash used to store password-reset tokens so
// the raw token never touches the database.
type TokenHasher interface {
	Hash(raw string) string
}

// TokenIssuer signs and verifies the access/refresh token pair. Access and
// refresh tokens use distinct secrets and distinct lifetimes.
type TokenIssuer interface {
	// IssuePair signs both tokens and reports the refresh expiry computed
	// from the configured refresh lifetime.
	IssuePair(account *domain.Account) (pair domain.TokenPair, refreshExpiresAt time.Time, err error)
	// VerifyRefresh checks signature and expiry and returns the subject
	// (account id).
	VerifyRefresh(token string) (string, error)
	// VerifyAccess checks signature and expiry and returns the subject.
	VerifyAccess(token string) (string, error)
}

// NotificationKind selects the template of an outbound notification.
type NotificationKind string

const (
	NotificationVerificationCode NotificationKind = "verification-code"
	NotificationPasswordReset    NotificationKind = "password-reset"
	NotificationPasswordChanged  NotificationKind = "password-changed"
)

// Notifier delivers a notification to an account holder. Delivery is
// best-effort from the caller's perspective: failures are logged by the
// flows and never propagated.
type Notifier interface {
	Send(ctx context.Context, to string, kind NotificationKind, data map[string]string) error
}

// Clock abstracts the wall clock so services can be tested at fixed instants.
type Clock interface {
	Now() time.Time
}

// ResendThrottle limits how often verification or reset emails can be
// re-requested for one address. Allow reports whether this request may
// proceed within the window.
type ResendThrottle interface {
	Allow(ctx context.Context, email string, kind NotificationKind) (bool, error)
}
