package services

import (
	"context"
	"errors"

	"trello-project/microservices/assignment-service/models"
	"trello-project/microservices/assignment-service/repositories"
)

// TaskInput is the full client-supplied state of a task. Updates replace
// the whole record, so zero values mean "reset to default".
// AssignedUserName is accepted for compatibility and always ignored: the
// name is derived from the assigned user.
type TaskInput struct {
	Name             string
	Description      string
	Deadline         string
	Completed        bool
	AssignedUser     string
	AssignedUserName string
}

func validateTaskInput(in TaskInput) error {
	if blank(in.Name) || blank(in.Deadline) {
		return validationFailed("Name and deadline are required")
	}
	return nil
}

// resolveAssignee sets both assignment fields on task from the requested
// user id, reading the user's current name.
func (c *Coordinator) resolveAssignee(ctx context.Context, task *models.Task, userID string) error {
	userID = canonicalID(userID)
	if userID == "" {
		task.Unassign()
		return nil
	}

	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return referenceNotFound("user", userID)
		}
		return storeError("failed to resolve assigned user", err)
	}

	task.AssignedUser = user.ID.Hex()
	task.AssignedUserName = user.Name
	return nil
}

// CreateTask stores a new task and, when it is assigned and open, appends
// it to the assignee's pendingTasks.
func (c *Coordinator) CreateTask(ctx context.Context, in TaskInput) (*models.Task, error) {
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	task := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		Deadline:    in.Deadline,
		Completed:   in.Completed,
	}
	if err := c.resolveAssignee(ctx, task, in.AssignedUser); err != nil {
		return nil, err
	}

	created, err := c.tasks.Create(ctx, task)
	if err != nil {
		return nil, storeError("failed to create task", err)
	}
	c.logger.Infof("Event ID: TASK_CREATED, Description: Task %s created (assignedUser=%q)", created.ID.Hex(), created.AssignedUser)

	if created.IsAssigned() {
		taskID := created.ID.Hex()
		var steps []step
		if created.IsPending() {
			steps = append(steps, c.addPendingStep(created.AssignedUser, taskID))
		}
		steps = append(steps, c.notifySteps(created.AssignedUser, taskID, created.Name, models.NotificationTaskAssigned)...)
		c.cascades.Go(ctx, "CreateTask", steps...)
	}

	return created, nil
}

// UpdateTask replaces the task and reconciles pendingTasks against the
// task's assignee and completion state before the update.
func (c *Coordinator) UpdateTask(ctx context.Context, id string, in TaskInput) (*models.Task, error) {
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	id = canonicalID(id)
	existing, err := c.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("task")
		}
		return nil, storeError("failed to fetch task", err)
	}

	task := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		Deadline:    in.Deadline,
		Completed:   in.Completed,
		DateCreated: existing.DateCreated,
	}
	if err := c.resolveAssignee(ctx, task, in.AssignedUser); err != nil {
		return nil, err
	}

	updated, err := c.tasks.Replace(ctx, id, task)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("task")
		}
		return nil, storeError("failed to update task", err)
	}
	c.logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated (assignedUser %q -> %q, completed %t -> %t)",
		id, existing.AssignedUser, updated.AssignedUser, existing.Completed, updated.Completed)

	c.cascades.Go(ctx, "UpdateTask", c.reconcileTask(existing, updated)...)
	return updated, nil
}

// reconcileTask returns the pendingTasks writes needed to move from before
// to after. No steps are produced when neither the assignee nor the
// completion state changed.
func (c *Coordinator) reconcileTask(before, after *models.Task) []step {
	taskID := after.ID.Hex()
	var steps []step

	if before.AssignedUser != after.AssignedUser {
		if before.IsAssigned() {
			steps = append(steps, c.removePendingStep(before.AssignedUser, taskID))
			steps = append(steps, c.notifySteps(before.AssignedUser, taskID, after.Name, models.NotificationTaskUnassigned)...)
		}
		// A completed task can already sit in the new assignee's list when a
		// queued claim has not reached the task record yet.
		switch {
		case after.IsPending():
			steps = append(steps, c.addPendingStep(after.AssignedUser, taskID))
		case after.IsAssigned():
			steps = append(steps, c.removePendingStep(after.AssignedUser, taskID))
		}
		if after.IsAssigned() {
			steps = append(steps, c.notifySteps(after.AssignedUser, taskID, after.Name, models.NotificationTaskAssigned)...)
		}
		return steps
	}

	if after.IsAssigned() && before.Completed != after.Completed {
		if after.Completed {
			steps = append(steps, c.removePendingStep(after.AssignedUser, taskID))
		} else {
			steps = append(steps, c.addPendingStep(after.AssignedUser, taskID))
		}
	}
	return steps
}

// DeleteTask removes the task and pulls it from its assignee's
// pendingTasks. The delete does not wait for, or depend on, that pull.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	deleted, err := c.tasks.Delete(ctx, canonicalID(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("task")
		}
		return nil, storeError("failed to delete task", err)
	}
	c.logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted", deleted.ID.Hex())

	if deleted.IsAssigned() {
		c.cascades.Go(ctx, "DeleteTask", c.removePendingStep(deleted.AssignedUser, deleted.ID.Hex()))
	}
	return deleted, nil
}
