package ports

import "context"

// FederatedAssertion is a verified identity claim from a trusted third-party
// login provider. Email and FederatedID are mandatory.
type FederatedAssertion struct {
	FederatedID string
	Email       string
	FirstName   string
	LastName    string
	Picture     string
}

// FederatedService merges or creates an account from a federated assertion
// and issues a session for it.
type FederatedService interface {
	Reconcile(ctx context.Context, assertion FederatedAssertion) (*LoginResult, error)
}
