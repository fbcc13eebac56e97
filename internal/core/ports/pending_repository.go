package ports

import (
	"context"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// PendingRepository defines persistence operations for staged registrations.
// Create must enforce email/phone uniqueness among pending records and
// return domain.ErrEmailTaken or domain.ErrPhoneTaken on violation.
type PendingRepository interface {
	Create(ctx context.Context, pending *domain.PendingRegistration) (*domain.PendingRegistration, error)
	FindByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error)
	// FindByEmailAndCode matches email and verification code exactly;
	// returns domain.ErrPendingNotFound otherwise.
	FindByEmailAndCode(ctx context.Context, email, code string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every record whose ExpiresAt precedes now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
