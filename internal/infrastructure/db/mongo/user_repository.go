package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tenantgrid/authd/internal/core/domain"
)

type UserRepository struct {
	coll        *mongo.Collection
	memberships *MembershipRepository
}

func NewUserRepository(db *mongo.Database, memberships *MembershipRepository) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), memberships: memberships}
}

type mongoUser struct {
	ID                         string     `bson:"_id"`
	Email                      string     `bson:"email"`
	PasswordHash               string     `bson:"password_hash,omitempty"`
	Role                       string     `bson:"role"`
	EmailConfirmedAt           *time.Time `bson:"email_confirmed_at,omitempty"`
	EmailConfirmationTokenHash string     `bson:"email_confirmation_token_hash,omitempty"`
	PasswordResetTokenHash     string     `bson:"password_reset_token_hash,omitempty"`
	PasswordResetExpiresAt     *time.Time `bson:"password_reset_expires_at,omitempty"`
	KeycloakSubject            *string    `bson:"keycloak_subject,omitempty"`
	CreatedAt                  time.Time  `bson:"created_at"`
	UpdatedAt                  time.Time  `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	mu := mongoUser{
		ID:                         u.ID,
		Email:                      u.Email,
		PasswordHash:               u.PasswordHash,
		Role:                       u.Role,
		EmailConfirmedAt:           u.EmailConfirmedAt,
		EmailConfirmationTokenHash: u.EmailConfirmationTokenHash,
		PasswordResetTokenHash:     u.PasswordResetTokenHash,
		PasswordResetExpiresAt:     u.PasswordResetExpiresAt,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
	// nil keeps the field absent so the sparse unique index ignores it.
	if u.KeycloakSubject != "" {
		sub := u.KeycloakSubject
		mu.KeycloakSubject = &sub
	}
	return mu
}

func (mu *mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                         mu.ID,
		Email:                      mu.Email,
		PasswordHash:               mu.PasswordHash,
		Role:                       mu.Role,
		EmailConfirmedAt:           mu.EmailConfirmedAt,
		EmailConfirmationTokenHash: mu.EmailConfirmationTokenHash,
		PasswordResetTokenHash:     mu.PasswordResetTokenHash,
		PasswordResetExpiresAt:     mu.PasswordResetExpiresAt,
		CreatedAt:                  mu.CreatedAt,
		UpdatedAt:                  mu.UpdatedAt,
	}
	if mu.KeycloakSubject != nil {
		u.KeycloakSubject = *mu.KeycloakSubject
	}
	return u
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByKeycloakSubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"keycloak_subject": subject})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toMongoUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, toMongoUser(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user row and cascades its membership rows.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return r.memberships.deleteByUser(ctx, id)
}
