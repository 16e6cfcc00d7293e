package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trello-project/microservices/assignment-service/models"
	"trello-project/microservices/assignment-service/repositories"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinator owns every cross-entity consequence of a task or user
// mutation. It keeps Task.assignedUser/assignedUserName and
// User.pendingTasks consistent and holds no per-entity state of its own.
type Coordinator struct {
	tasks         repositories.TaskStore
	users         repositories.UserStore
	notifications repositories.NotificationStore
	cascades      *cascadeRunner
	notifyBreaker *gobreaker.CircuitBreaker
	logger        *logrus.Logger
}

type Options struct {
	// CascadeTimeout bounds one detached cascade. Defaults to 10s.
	CascadeTimeout time.Duration
	Logger         *logrus.Logger
}

// NewCoordinator wires the coordinator. notifications may be nil, in which
// case no assignment notifications are recorded.
func NewCoordinator(tasks repositories.TaskStore, users repositories.UserStore, notifications repositories.NotificationStore, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := opts.CascadeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Coordinator{
		tasks:         tasks,
		users:         users,
		notifications: notifications,
		cascades:      newCascadeRunner(timeout, logger),
		notifyBreaker: newBreaker("notifications-cb", 5*time.Second, logger),
		logger:        logger,
	}
}

// Wait blocks until all in-flight cascades have finished.
func (c *Coordinator) Wait() {
	c.cascades.Wait()
}

// canonicalID lower-cases valid ObjectID hex strings so that membership
// checks compare like with like. Anything else is returned trimmed.
func canonicalID(id string) string {
	id = strings.TrimSpace(id)
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid.Hex()
	}
	return id
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (c *Coordinator) addPendingStep(userID, taskID string) step {
	return step{
		name: fmt.Sprintf("add task %s to pendingTasks of user %s", taskID, userID),
		run: func(ctx context.Context) error {
			return c.users.AddPendingTask(ctx, userID, taskID)
		},
	}
}

func (c *Coordinator) removePendingStep(userID, taskID string) step {
	return step{
		name: fmt.Sprintf("remove task %s from pendingTasks of user %s", taskID, userID),
		run: func(ctx context.Context) error {
			return c.users.RemovePendingTask(ctx, userID, taskID)
		},
	}
}

func (c *Coordinator) assignStep(name string, filter repositories.TaskFilter, assignment repositories.Assignment) step {
	return step{
		name: name,
		run: func(ctx context.Context) error {
			n, err := c.tasks.UpdateAssignments(ctx, filter, assignment)
			if err != nil {
				return err
			}
			c.logger.Debugf("Event ID: TASK_ASSIGNMENTS_UPDATED, Description: %s touched %d task(s)", name, n)
			return nil
		},
	}
}

// notifySteps returns the notification write for one user, or nothing when
// the feed is disabled.
func (c *Coordinator) notifySteps(userID, taskID, taskName string, kind models.NotificationType) []step {
	if c.notifications == nil || userID == "" {
		return nil
	}

	var message string
	switch kind {
	case models.NotificationTaskAssigned:
		message = fmt.Sprintf("Task '%s' has been assigned to you", taskName)
	default:
		message = fmt.Sprintf("Task '%s' is no longer assigned to you", taskName)
	}

	return []step{{
		name:    fmt.Sprintf("notify user %s (%s)", userID, kind),
		breaker: c.notifyBreaker,
		run: func(ctx context.Context) error {
			return c.notifications.Create(ctx, &models.Notification{
				UserID:  userID,
				TaskID:  taskID,
				Type:    kind,
				Message: message,
			})
		},
	}}
}

// Notifications lists the assignment notifications recorded for a user.
func (c *Coordinator) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	userID = canonicalID(userID)
	if _, err := c.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeError("failed to fetch user", err)
	}

	if c.notifications == nil {
		return []models.Notification{}, nil
	}
	list, err := c.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("failed to read notifications", err)
	}
	return list, nil
}

func (c *Coordinator) getOne(ctx context.Context, entity string, find func(context.Context, string, bson.M) (bson.M, error), id string, projection bson.M) (bson.M, error) {
	doc, err := find(ctx, canonicalID(id), projection)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(entity)
		}
		return nil, storeError(fmt.Sprintf("failed to fetch %s", entity), err)
	}
	return doc, nil
}

func (c *Coordinator) GetTask(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	return c.getOne(ctx, "task", c.tasks.FindOne, id, projection)
}

func (c *Coordinator) GetUser(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	return c.getOne(ctx, "user", c.users.FindOne, id, projection)
}

func (c *Coordinator) ListTasks(ctx context.Context, q repositories.ListQuery) ([]bson.M, error) {
	docs, err := c.tasks.List(ctx, q)
	if err != nil {
		return nil, storeError("failed to list tasks", err)
	}
	return docs, nil
}

func (c *Coordinator) CountTasks(ctx context.Context, q repositories.ListQuery) (int64, error) {
	n, err := c.tasks.Count(ctx, q)
	if err != nil {
		return 0, storeError("failed to count tasks", err)
	}
	return n, nil
}

func (c *Coordinator) ListUsers(ctx context.Context, q repositories.ListQuery) ([]bson.M, error) {
	docs, err := c.users.List(ctx, q)
	if err != nil {
		return nil, storeError("failed to list users", err)
	}
	return docs, nil
}

func (c *Coordinator) CountUsers(ctx context.Context, q repositories.ListQuery) (int64, error) {
	n, err := c.users.Count(ctx, q)
	if err != nil {
		return 0, storeError("failed to count users", err)
	}
	return n, nil
}
