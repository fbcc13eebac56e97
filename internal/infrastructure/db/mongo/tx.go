package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sellerhub/identity-service/internal/core/ports"
)

// TxRunner implements ports.TxRunner on top of MongoDB sessions. Repository
// calls made with the callback's context join the session's transaction, so
// the account-create and pending-delete of a promotion commit as one unit.
type TxRunner struct {
	client *mongo.Client
}

var _ ports.TxRunner = (*TxRunner)(nil)

func NewTxRunner(client *mongo.Client) *TxRunner {
	return &TxRunner{client: client}
}

func (t *TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
