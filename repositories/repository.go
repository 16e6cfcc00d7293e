package repositories

import (
	"context"
	"errors"

	"trello-project/microservices/assignment-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned for missing records and for ids that are not
	// valid ObjectIDs.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user write collides with the
	// unique email index.
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// TaskFilter selects tasks for a batch update. Set fields are ANDed; a nil
// IDs slice means "any id", an empty non-nil slice matches nothing.
type TaskFilter struct {
	IDs          []string
	AssignedUser *string
}

// Assignment is the field pair written by a batch assignment update.
type Assignment struct {
	AssignedUser     string
	AssignedUserName string
}

// Unassigned is the assignment written when a task loses its user.
func Unassigned() Assignment {
	return Assignment{AssignedUser: "", AssignedUserName: models.UnassignedName}
}

// ListQuery carries the parsed where/sort/select/skip/limit parameters of a
// list request. Zero Skip or Limit means unset.
type ListQuery struct {
	Where  bson.M
	Sort   bson.D
	Select bson.M
	Skip   int64
	Limit  int64
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Task, error)
	FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error)
	Replace(ctx context.Context, id string, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) (*models.Task, error)
	UpdateAssignments(ctx context.Context, filter TaskFilter, assignment Assignment) (int64, error)
	List(ctx context.Context, q ListQuery) ([]bson.M, error)
	Count(ctx context.Context, q ListQuery) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error)
	Replace(ctx context.Context, id string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) (*models.User, error)
	AddPendingTask(ctx context.Context, userID, taskID string) error
	RemovePendingTask(ctx context.Context, userID, taskID string) error
	List(ctx context.Context, q ListQuery) ([]bson.M, error)
	Count(ctx context.Context, q ListQuery) (int64, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
}

// objectIDs converts hex ids, silently dropping malformed ones: a malformed
// id can never match a stored record.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}
