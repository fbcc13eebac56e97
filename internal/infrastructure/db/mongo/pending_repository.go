package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

const pendingCollection = "pending_registrations"

// PendingRepository implements ports.PendingRepository using MongoDB.
type PendingRepository struct {
	coll *mongo.Collection
}

func NewPendingRepository(db *mongo.Database) *PendingRepository {
	return &PendingRepository{coll: db.Collection(pendingCollection)}
}

type pendingDoc struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PhoneNumber  string `bson:"phone_number"`
	PasswordHash string `bson:"password_hash"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`

	VerificationCode          string    `bson:"verification_code"`
	VerificationCodeExpiresAt time.Time `bson:"verification_code_expires_at"`

	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (d pendingDoc) toDomain() *domain.PendingRegistration {
	return &domain.PendingRegistration{
		ID:                        d.ID,
		Email:                     d.Email,
		PhoneNumber:               d.PhoneNumber,
		PasswordHash:              d.PasswordHash,
		FirstName:                 d.FirstName,
		LastName:                  d.LastName,
		VerificationCode:          d.VerificationCode,
		VerificationCodeExpiresAt: d.VerificationCodeExpiresAt,
		CreatedAt:                 d.CreatedAt,
		ExpiresAt:                 d.ExpiresAt,
	}
}

func (r *PendingRepository) Create(ctx context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	doc := pendingDoc{
		ID:                        p.ID,
		Email:                     p.Email,
		PhoneNumber:               p.PhoneNumber,
		PasswordHash:              p.PasswordHash,
		FirstName:                 p.FirstName,
		LastName:                  p.LastName,
		VerificationCode:          p.VerificationCode,
		VerificationCodeExpiresAt: p.VerificationCodeExpiresAt.UTC(),
		CreatedAt:                 p.CreatedAt.UTC(),
		ExpiresAt:                 p.ExpiresAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, classifyDuplicate(err)
		}
		return nil, fmt.Errorf("insert pending registration: %w", err)
	}
	return p, nil
}

func (r *PendingRepository) FindByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *PendingRepository) FindByEmailAndCode(ctx context.Context, email, code string) (*domain.PendingRegistration, error) {
	return r.findOne(ctx, bson.M{"email": email, "verification_code": code})
}

func (r *PendingRepository) findOne(ctx context.Context, filter bson.M) (*domain.PendingRegistration, error) {
	var doc pendingDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPendingNotFound
		}
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PendingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func (r *PendingRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired pending registrations: %w", err)
	}
	return res.DeletedCount, nil
}
