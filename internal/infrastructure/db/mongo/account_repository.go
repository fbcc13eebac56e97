package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

const accountCollection = "accounts"

// AccountRepository implements ports.AccountRepository using MongoDB.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PhoneNumber  string `bson:"phone_number,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`

	Role   string `bson:"role"`
	Status string `bson:"status"`

	IsEmailVerified bool       `bson:"is_email_verified"`
	EmailVerifiedAt *time.Time `bson:"email_verified_at,omitempty"`

	FederatedID    string `bson:"federated_id,omitempty"`
	ProfilePicture string `bson:"profile_picture,omitempty"`

	FailedLoginAttempts int        `bson:"failed_login_attempts"`
	LastLoginAt         *time.Time `bson:"last_login_at,omitempty"`
	PasswordChangedAt   *time.Time `bson:"password_changed_at,omitempty"`

	VerificationToken        string     `bson:"verification_token,omitempty"`
	VerificationTokenExpires *time.Time `bson:"verification_token_expires,omitempty"`

	PasswordResetToken        string     `bson:"password_reset_token,omitempty"`
	PasswordResetTokenExpires *time.Time `bson:"password_reset_token_expires,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toAccountDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:                        a.ID,
		Email:                     a.Email,
		PhoneNumber:               a.PhoneNumber,
		PasswordHash:              a.PasswordHash,
		FirstName:                 a.FirstName,
		LastName:                  a.LastName,
		Role:                      string(a.Role),
		Status:                    string(a.Status),
		IsEmailVerified:           a.IsEmailVerified,
		EmailVerifiedAt:           a.EmailVerifiedAt,
		FederatedID:               a.FederatedID,
		ProfilePicture:            a.ProfilePicture,
		FailedLoginAttempts:       a.FailedLoginAttempts,
		LastLoginAt:               a.LastLoginAt,
		PasswordChangedAt:         a.PasswordChangedAt,
		VerificationToken:         a.VerificationToken,
		VerificationTokenExpires:  a.VerificationTokenExpires,
		PasswordResetToken:        a.PasswordResetToken,
		PasswordResetTokenExpires: a.PasswordResetTokenExpires,
		CreatedAt:                 a.CreatedAt.UTC(),
		UpdatedAt:                 a.UpdatedAt.UTC(),
	}
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                        d.ID,
		Email:                     d.Email,
		PhoneNumber:               d.PhoneNumber,
		PasswordHash:              d.PasswordHash,
		FirstName:                 d.FirstName,
		LastName:                  d.LastName,
		Role:                      domain.Role(d.Role),
		Status:                    domain.AccountStatus(d.Status),
		IsEmailVerified:           d.IsEmailVerified,
		EmailVerifiedAt:           d.EmailVerifiedAt,
		FederatedID:               d.FederatedID,
		ProfilePicture:            d.ProfilePicture,
		FailedLoginAttempts:       d.FailedLoginAttempts,
		LastLoginAt:               d.LastLoginAt,
		PasswordChangedAt:         d.PasswordChangedAt,
		VerificationToken:         d.VerificationToken,
		VerificationTokenExpires:  d.VerificationTokenExpires,
		PasswordResetToken:        d.PasswordResetToken,
		PasswordResetTokenExpires: d.PasswordResetTokenExpires,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if _, err := r.coll.InsertOne(ctx, toAccountDoc(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, classifyDuplicate(err)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"phone_number": phone})
}

func (r *AccountRepository) FindByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"federated_id": federatedID})
}

func (r *AccountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"password_reset_token": tokenHash})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	doc := toAccountDoc(account)
	doc.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": account.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyDuplicate(err)
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// IncrementFailedLogins bumps the failure counter with a server-side $inc,
// so concurrent failed logins never lose an update to each other.
func (r *AccountRepository) IncrementFailedLogins(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"failed_login_attempts": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("increment failed logins: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"failed_login_attempts": 0,
			"last_login_at":         at.UTC(),
			"updated_at":            at.UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
