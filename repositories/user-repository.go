package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trello-project/microservices/assignment-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo is the MongoDB user accessor. Email uniqueness is enforced by the
// index created in EnsureIndexes.
type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(collection *mongo.Collection) *UserRepo {
	return &UserRepo{collection: collection}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create unique index on user email: %w", err)
	}
	return nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.DateCreated.IsZero() {
		user.DateCreated = time.Now().UTC()
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	return &user, nil
}

func (r *UserRepo) FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	return findProjected(ctx, r.collection, id, projection)
}

func (r *UserRepo) Replace(ctx context.Context, id string, user *models.User) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	user.ID = oid
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var updated models.User
	if err := r.collection.FindOneAndReplace(ctx, bson.M{"_id": oid}, user, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &updated, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var deleted models.User
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return &deleted, nil
}

// AddPendingTask appends taskID unless it is already present.
func (r *UserRepo) AddPendingTask(ctx context.Context, userID, taskID string) error {
	return r.updatePending(ctx, userID, bson.M{"$addToSet": bson.M{"pendingTasks": taskID}})
}

func (r *UserRepo) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	return r.updatePending(ctx, userID, bson.M{"$pull": bson.M{"pendingTasks": taskID}})
}

func (r *UserRepo) updatePending(ctx context.Context, userID string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update pending tasks: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, q ListQuery) ([]bson.M, error) {
	return listDocuments(ctx, r.collection, q)
}

func (r *UserRepo) Count(ctx context.Context, q ListQuery) (int64, error) {
	return countDocuments(ctx, r.collection, q)
}
