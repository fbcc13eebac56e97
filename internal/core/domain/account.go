package domain

import "time"

// Role is the access tier granted to an account.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleSeller     Role = "seller"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending     AccountStatus = "pending"
	StatusApproved    AccountStatus = "approved"
	StatusSuspended   AccountStatus = "suspended"
	StatusDeactivated AccountStatus = "deactivated"
)

// DefaultLockoutThreshold is the number of failed logins after which an
// account can no longer authenticate until an administrator resets it.
const DefaultLockoutThreshold = 5

// Account is the durable identity record. Email and phone number are
// globally unique. PasswordHash is empty for pure federated accounts.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`

	Role   Role          `json:"role"`
	Status AccountStatus `json:"status"`

	IsEmailVerified bool       `json:"is_email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	FederatedID    string `json:"-"`
	ProfilePicture string `json:"profile_picture,omitempty"`

	FailedLoginAttempts int        `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt   *time.Time `json:"-"`

	VerificationToken        string     `json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`

	// PasswordResetToken holds a one-way hash of the reset token,
	// never the raw value handed to the account holder.
	PasswordResetToken        string     `json:"-"`
	PasswordResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the name parts, tolerating either being empty.
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// IsActive reports whether the account is approved and email-verified.
func (a *Account) IsActive() bool {
	return a.Status == StatusApproved && a.IsEmailVerified
}

// CanLogin reports whether a login may even be attempted: the account must
// be active and below the failed-attempt threshold. The counter keeps
// climbing on failures past the threshold, so a locked account stays locked
// until an external reset.
func (a *Account) CanLogin(lockoutThreshold int) bool {
	if lockoutThreshold <= 0 {
		lockoutThreshold = DefaultLockoutThreshold
	}
	return a.IsActive() && a.FailedLoginAttempts < lockoutThreshold
}

// RecordSuccessfulLogin resets the failure counter and stamps the login time.
func (a *Account) RecordSuccessfulLogin(now time.Time) {
	a.FailedLoginAttempts = 0
	t := now.UTC()
	a.LastLoginAt = &t
}
