package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sellerhub/identity-service/internal/api/metrics"
	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

type federatedService struct {
	accounts ports.AccountRepository
	sessions ports.SessionService
	clock    ports.Clock
	log      zerolog.Logger
}

// NewFederatedService returns the reconciler for third-party identity
// assertions. Token issuance is delegated to the session service; there is
// no second issuance path.
func NewFederatedService(
	accounts ports.AccountRepository,
	sessions ports.SessionService,
	clock ports.Clock,
	log zerolog.Logger,
) ports.FederatedService {
	return &federatedService{accounts: accounts, sessions: sessions, clock: clock, log: log}
}

func (s *federatedService) Reconcile(ctx context.Context, assertion ports.FederatedAssertion) (*ports.LoginResult, error) {
	assertion.Email = strings.ToLower(strings.TrimSpace(assertion.Email))
	if assertion.Email == "" || assertion.FederatedID == "" {
		return nil, domain.ErrMissingAssertion
	}

	account, branch, err := s.resolve(ctx, assertion)
	if err != nil {
		return nil, err
	}

	pair, err := s.sessions.IssueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	metrics.FederatedLoginsTotal.WithLabelValues(branch).Inc()
	s.log.Info().Str("account_id", account.ID).Str("branch", branch).Msg("federated identity reconciled")

	return &ports.LoginResult{Pair: pair, Account: account}, nil
}

// resolve applies the three-way match in priority order: already linked,
// linkable by email, or a brand-new pre-verified account.
func (s *federatedService) resolve(ctx context.Context, assertion ports.FederatedAssertion) (*domain.Account, string, error) {
	if linked, err := s.accounts.FindByFederatedID(ctx, assertion.FederatedID); err == nil {
		s.syncProfile(linked, assertion)
		if err := s.accounts.Update(ctx, linked); err != nil {
			return nil, "", fmt.Errorf("sync linked account: %w", err)
		}
		return linked, "linked", nil
	}

	if existing, err := s.accounts.FindByEmail(ctx, assertion.Email); err == nil {
		existing.FederatedID = assertion.FederatedID
		s.syncProfile(existing, assertion)
		if err := s.accounts.Update(ctx, existing); err != nil {
			return nil, "", fmt.Errorf("link account: %w", err)
		}
		return existing, "email_link", nil
	}

	// A federated assertion is a pre-verified trust signal: the pending
	// stage is bypassed and the account is born approved. Phone number
	// stays blank until profile completion.
	now := s.clock.Now()
	verifiedAt := now
	account := &domain.Account{
		ID:              uuid.NewString(),
		Email:           assertion.Email,
		FirstName:       assertion.FirstName,
		LastName:        assertion.LastName,
		ProfilePicture:  assertion.Picture,
		FederatedID:     assertion.FederatedID,
		Role:            domain.RoleSeller,
		Status:          domain.StatusApproved,
		IsEmailVerified: true,
		EmailVerifiedAt: &verifiedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, "", fmt.Errorf("create federated account: %w", err)
	}
	return created, "created", nil
}

func (s *federatedService) syncProfile(account *domain.Account, assertion ports.FederatedAssertion) {
	account.FirstName = assertion.FirstName
	account.LastName = assertion.LastName
	if assertion.Picture != "" {
		account.ProfilePicture = assertion.Picture
	}
	account.UpdatedAt = s.clock.Now()
}
