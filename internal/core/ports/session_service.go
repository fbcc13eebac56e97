package ports

import (
	"context"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// LoginResult carries the token pair and the authenticated account.
type LoginResult struct {
	Pair    domain.TokenPair
	Account *domain.Account
}

// SessionService authenticates credentials, rotates and revokes token pairs,
// and enforces the lockout policy.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Refresh rotates a refresh token: the presented token is revoked and a
	// brand-new pair is issued. A revoked or unknown token always yields
	// domain.ErrInvalidRefreshToken.
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	// Logout revokes the named token, if any, and then every live token of
	// the account ("log out everywhere").
	Logout(ctx context.Context, accountID, refreshToken string) error

	// IssueTokens is the single token-issuance path, shared with the
	// federated reconciler: signs the pair and persists the refresh record.
	IssueTokens(ctx context.Context, account *domain.Account) (domain.TokenPair, error)

	// ValidateAccess resolves an access token to its active account, for
	// use by the request-authentication layer.
	ValidateAccess(ctx context.Context, accessToken string) (*domain.Account, error)
}
