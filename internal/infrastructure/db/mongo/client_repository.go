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

type ClientRepository struct {
	coll        *mongo.Collection
	memberships *MembershipRepository
}

func NewClientRepository(db *mongo.Database, memberships *MembershipRepository) *ClientRepository {
	return &ClientRepository{coll: db.Collection(clientsCollection), memberships: memberships}
}

type mongoClient struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name,omitempty"`
	OwnerUserID string    `bson:"owner_user_id,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var mc mongoClient
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &domain.Client{
		ID:          mc.ID,
		Name:        mc.Name,
		OwnerUserID: mc.OwnerUserID,
		CreatedAt:   mc.CreatedAt,
		UpdatedAt:   mc.UpdatedAt,
	}, nil
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	doc := mongoClient{
		ID:          client.ID,
		Name:        client.Name,
		OwnerUserID: client.OwnerUserID,
		CreatedAt:   client.CreatedAt,
		UpdatedAt:   client.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return client, nil
}

// Delete removes the client row and cascades its membership rows.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrClientNotFound
	}
	return r.memberships.deleteByClient(ctx, id)
}
