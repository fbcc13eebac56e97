package ports

import (
	"context"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// AccountRepository defines persistence operations for durable accounts.
// Create must enforce email/phone uniqueness and return domain.ErrEmailTaken
// or domain.ErrPhoneTaken on violation. Lookups return
// domain.ErrAccountNotFound when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Account, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error

	// IncrementFailedLogins adds one to the failure counter as a single
	// store-level operation, so two concurrent failed logins both land.
	IncrementFailedLogins(ctx context.Context, id string) error

	// RecordLogin resets the failure counter and stamps the last login time.
	RecordLogin(ctx context.Context, id string, at time.Time) error
}
