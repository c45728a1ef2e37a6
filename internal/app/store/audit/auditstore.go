// internal/app/store/audit/auditstore.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event is one audit record: who did what to whom, and whether it worked.
type Event struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	Category      string              `bson:"category"`
	EventType     string              `bson:"eventType"`
	Success       bool                `bson:"success"`
	ActorID       *primitive.ObjectID `bson:"actorId,omitempty"`
	TargetUser    *primitive.ObjectID `bson:"targetUser,omitempty"`
	TargetActivity *primitive.ObjectID `bson:"targetActivity,omitempty"`
	IP            string              `bson:"ip,omitempty"`
	Details       map[string]string   `bson:"details,omitempty"`
	FailureReason string              `bson:"failureReason,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt"`
}

// Store persists audit events.
type Store struct {
	c *mongo.Collection
}

// New binds the store to the auditEvents collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("auditEvents")}
}

// Insert writes one event, stamping CreatedAt when unset.
func (s *Store) Insert(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, ev)
	return err
}

// Recent returns the newest events, optionally filtered by category.
func (s *Store) Recent(ctx context.Context, category string, limit int64) ([]Event, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
