package domain

import "time"

// RefreshTokenRecord is the durable side of an issued refresh token. A record
// that has been revoked must never be accepted for rotation again, even if
// its expiry has not passed.
type RefreshTokenRecord struct {
	ID        string `json:"id"`
	Token     string `json:"-"`
	AccountID string `json:"account_id"`

	ExpiresAt time.Time  `json:"expires_at"`
	IsRevoked bool       `json:"is_revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// ReplacedByToken links to the successor issued when this record was
	// rotated out, forming the rotation chain.
	ReplacedByToken string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the record's own expiry has passed.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsValid reports whether the record may still be rotated.
func (r *RefreshTokenRecord) IsValid(now time.Time) bool {
	return !r.IsRevoked && !r.IsExpired(now)
}

// TokenPair is the result of a successful issuance: a short-lived access
// token and a long-lived, single-use refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
