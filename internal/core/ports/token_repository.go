package ports

import (
	"context"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// TokenRepository defines persistence operations for refresh-token records.
type TokenRepository interface {
	Create(ctx context.Context, record *domain.RefreshTokenRecord) error
	// FindByTokenAndAccount returns domain.ErrInvalidRefreshToken when no
	// record matches the token value for that account.
	FindByTokenAndAccount(ctx context.Context, token, accountID string) (*domain.RefreshTokenRecord, error)

	// Revoke marks the record revoked only if it is not revoked yet. The
	// returned bool reports whether this call won the revocation: under
	// concurrent rotation exactly one caller observes true.
	Revoke(ctx context.Context, id string, at time.Time, replacedBy string) (bool, error)

	// RevokeAllForAccount revokes every live record owned by the account.
	RevokeAllForAccount(ctx context.Context, accountID string, at time.Time) error

	// DeleteExpired removes every record past its own expiry, revoked or
	// not, and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
