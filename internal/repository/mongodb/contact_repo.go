package mongodb

import (
	"context"
	"fmt"
	"time"

	"portfolio-backend/internal/domain"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultCollection holds contact submissions when none is configured.
const DefaultCollection = "contacts"

// contactDocument is the stored document shape.
type contactDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Message   string    `bson:"message"`
	Locale    string    `bson:"locale,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type contactRepo struct {
	coll *mongo.Collection
}

func NewContactRepository(db *mongo.Database, collection string) domain.SubmissionRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &contactRepo{coll: db.Collection(collection)}
}

// Insert appends one submission document.
func (r *contactRepo) Insert(ctx context.Context, record *domain.SubmissionRecord) error {
	doc := contactDocument{
		ID:        record.ID,
		Name:      record.Name,
		Email:     record.Email,
		Message:   record.Message,
		Locale:    record.Locale,
		CreatedAt: record.CreatedAt,
	}

	_, err := r.coll.InsertOne(ctx, doc)
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("contact submission %s already exists: %w", record.ID, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%w: insert contact submission: %w", domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("insert contact submission: %w", err)
	}
}

func (r *contactRepo) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
