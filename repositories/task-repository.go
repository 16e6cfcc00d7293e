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

// TaskRepo is the MongoDB task accessor.
type TaskRepo struct {
	collection *mongo.Collection
}

func NewTaskRepo(collection *mongo.Collection) *TaskRepo {
	return &TaskRepo{collection: collection}
}

// EnsureIndexes creates the index backing the assignedUser batch updates.
func (r *TaskRepo) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "assignedUser", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create assignedUser index: %w", err)
	}
	return nil
}

func (r *TaskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.DateCreated.IsZero() {
		task.DateCreated = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return task, nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var task models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

// FindByIDs reads every listed task in one round trip. Missing or malformed
// ids are simply absent from the result.
func (r *TaskRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Task, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []models.Task{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	return findProjected(ctx, r.collection, id, projection)
}

func (r *TaskRepo) Replace(ctx context.Context, id string, task *models.Task) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	task.ID = oid

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var updated models.Task
	if err := r.collection.FindOneAndReplace(ctx, bson.M{"_id": oid}, task, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &updated, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var deleted models.Task
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return &deleted, nil
}

func (r *TaskRepo) UpdateAssignments(ctx context.Context, filter TaskFilter, assignment Assignment) (int64, error) {
	query := bson.M{}
	if filter.IDs != nil {
		oids := objectIDs(filter.IDs)
		if len(oids) == 0 {
			return 0, nil
		}
		query["_id"] = bson.M{"$in": oids}
	}
	if filter.AssignedUser != nil {
		query["assignedUser"] = *filter.AssignedUser
	}

	update := bson.M{"$set": bson.M{
		"assignedUser":     assignment.AssignedUser,
		"assignedUserName": assignment.AssignedUserName,
	}}
	result, err := r.collection.UpdateMany(ctx, query, update)
	if err != nil {
		return 0, fmt.Errorf("failed to update task assignments: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *TaskRepo) List(ctx context.Context, q ListQuery) ([]bson.M, error) {
	return listDocuments(ctx, r.collection, q)
}

func (r *TaskRepo) Count(ctx context.Context, q ListQuery) (int64, error) {
	return countDocuments(ctx, r.collection, q)
}
