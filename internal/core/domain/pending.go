package domain

import "time"

// PendingRegistration is a staged signup awaiting email verification. It is
// never mutated after creation: it is either promoted into an Account and
// deleted, deleted on an expired verification attempt, or reaped once
// ExpiresAt has passed.
type PendingRegistration struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`

	VerificationCode          string    `json:"-"`
	VerificationCodeExpiresAt time.Time `json:"verification_code_expires_at"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeExpired reports whether the verification code can no longer be redeemed.
func (p *PendingRegistration) CodeExpired(now time.Time) bool {
	return now.After(p.VerificationCodeExpiresAt)
}
