package ports

import (
	"context"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to Submit.
type RegisterInput struct {
	Email       string
	PhoneNumber string
	Password    string
	FirstName   string
	LastName    string
}

// RegistrationService stages signups behind the email-verification gate and
// owns the account-level verification and password-reset operations.
type RegistrationService interface {
	// Submit stages a registration and sends the verification code.
	Submit(ctx context.Context, in RegisterInput) (*domain.PendingRegistration, error)
	// Verify promotes a staged registration into a durable account.
	Verify(ctx context.Context, email, code string) (*domain.Account, error)
	// ResendVerification re-issues the verification token of an existing,
	// not yet verified account.
	ResendVerification(ctx context.Context, email string) error
	// ForgotPassword starts a reset; its outcome is indistinguishable to
	// the caller whether or not the account exists.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword redeems a raw reset token for a new password.
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}
