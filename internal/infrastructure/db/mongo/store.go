package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tenantgrid/authd/internal/core/ports"
)

const (
	usersCollection       = "users"
	clientsCollection     = "clients"
	membershipsCollection = "client_memberships"
)

// CredentialStore bundles the Mongo-backed repositories. Uniqueness
// invariants (email, keycloak_subject, user↔client pair) are enforced
// by the indexes created in EnsureIndexes, not by application locks.
type CredentialStore struct {
	users       *UserRepository
	clients     *ClientRepository
	memberships *MembershipRepository
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	memberships := NewMembershipRepository(db)
	return &CredentialStore{
		users:       NewUserRepository(db, memberships),
		clients:     NewClientRepository(db, memberships),
		memberships: memberships,
	}
}

func (s *CredentialStore) Users() ports.UserStore             { return s.users }
func (s *CredentialStore) Clients() ports.ClientStore         { return s.clients }
func (s *CredentialStore) Memberships() ports.MembershipStore { return s.memberships }

// EnsureIndexes creates the unique indexes the services rely on. Run
// once at startup, before the HTTP server accepts traffic.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "keycloak_subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	_, err = db.Collection(membershipsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create membership index: %w", err)
	}
	return nil
}
