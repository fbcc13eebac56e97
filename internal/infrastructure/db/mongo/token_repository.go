package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

const tokenCollection = "refresh_tokens"

// TokenRepository implements ports.TokenRepository using MongoDB.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokenCollection)}
}

type tokenDoc struct {
	ID        string `bson:"_id"`
	Token     string `bson:"token"`
	AccountID string `bson:"account_id"`

	ExpiresAt time.Time  `bson:"expires_at"`
	IsRevoked bool       `bson:"is_revoked"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty"`

	ReplacedByToken string `bson:"replaced_by_token,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
}

func (d tokenDoc) toDomain() *domain.RefreshTokenRecord {
	return &domain.RefreshTokenRecord{
		ID:              d.ID,
		Token:           d.Token,
		AccountID:       d.AccountID,
		ExpiresAt:       d.ExpiresAt,
		IsRevoked:       d.IsRevoked,
		RevokedAt:       d.RevokedAt,
		ReplacedByToken: d.ReplacedByToken,
		CreatedAt:       d.CreatedAt,
	}
}

func (r *TokenRepository) Create(ctx context.Context, record *domain.RefreshTokenRecord) error {
	doc := tokenDoc{
		ID:              record.ID,
		Token:           record.Token,
		AccountID:       record.AccountID,
		ExpiresAt:       record.ExpiresAt.UTC(),
		IsRevoked:       record.IsRevoked,
		RevokedAt:       record.RevokedAt,
		ReplacedByToken: record.ReplacedByToken,
		CreatedAt:       record.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByTokenAndAccount(ctx context.Context, token, accountID string) (*domain.RefreshTokenRecord, error) {
	var doc tokenDoc
	err := r.coll.FindOne(ctx, bson.M{"token": token, "account_id": accountID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return doc.toDomain(), nil
}

// Revoke flips is_revoked with a filter on is_revoked=false, so under
// concurrent rotation of the same token exactly one caller matches.
func (r *TokenRepository) Revoke(ctx context.Context, id string, at time.Time, replacedBy string) (bool, error) {
	set := bson.M{
		"is_revoked": true,
		"revoked_at": at.UTC(),
	}
	if replacedBy != "" {
		set["replaced_by_token"] = replacedBy
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "is_revoked": false}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *TokenRepository) RevokeAllForAccount(ctx context.Context, accountID string, at time.Time) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"account_id": accountID, "is_revoked": false},
		bson.M{"$set": bson.M{"is_revoked": true, "revoked_at": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("revoke account refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes every record past its expiry regardless of revoked
// state; revoked-but-unexpired records stay for the rotation audit trail.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}
