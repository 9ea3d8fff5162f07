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

type MembershipRepository struct {
	coll *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	return &MembershipRepository{coll: db.Collection(membershipsCollection)}
}

type mongoMembership struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ClientID  string    `bson:"client_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (mm *mongoMembership) toDomain() *domain.ClientMembership {
	return &domain.ClientMembership{
		ID:        mm.ID,
		UserID:    mm.UserID,
		ClientID:  mm.ClientID,
		Role:      mm.Role,
		CreatedAt: mm.CreatedAt,
	}
}

func (r *MembershipRepository) FindByID(ctx context.Context, id string) (*domain.ClientMembership, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MembershipRepository) FindByUserAndClient(ctx context.Context, userID, clientID string) (*domain.ClientMembership, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "client_id": clientID})
}

func (r *MembershipRepository) findOne(ctx context.Context, filter bson.M) (*domain.ClientMembership, error) {
	var mm mongoMembership
	if err := r.coll.FindOne(ctx, filter).Decode(&mm); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return mm.toDomain(), nil
}

func (r *MembershipRepository) Create(ctx context.Context, m *domain.ClientMembership) (*domain.ClientMembership, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	doc := mongoMembership{
		ID:        m.ID,
		UserID:    m.UserID,
		ClientID:  m.ClientID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateMembership
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	return m, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) deleteByUser(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("cascade memberships by user: %w", err)
	}
	return nil
}

func (r *MembershipRepository) deleteByClient(ctx context.Context, clientID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"client_id": clientID}); err != nil {
		return fmt.Errorf("cascade memberships by client: %w", err)
	}
	return nil
}
