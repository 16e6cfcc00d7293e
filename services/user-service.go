package services

import (
	"context"
	"errors"
	"fmt"

	"trello-project/microservices/assignment-service/models"
	"trello-project/microservices/assignment-service/repositories"
)

// UserInput is the full client-supplied state of a user.
type UserInput struct {
	Name         string
	Email        string
	PendingTasks []string
}

func validateUserInput(in UserInput) error {
	if blank(in.Name) || blank(in.Email) {
		return validationFailed("Name and email are required")
	}
	return nil
}

// normalizePending canonicalizes ids, drops blanks and collapses duplicates
// while keeping first-seen order. The result is never nil.
func normalizePending(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = canonicalID(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// loadTasks reads every id in one batch and indexes the result by hex id.
func (c *Coordinator) loadTasks(ctx context.Context, ids []string) (map[string]models.Task, error) {
	if len(ids) == 0 {
		return map[string]models.Task{}, nil
	}
	tasks, err := c.tasks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("failed to read referenced tasks", err)
	}
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID.Hex()] = t
	}
	return byID, nil
}

// validatePending checks existence of every id first, then completion.
func validatePending(pending []string, tasks map[string]models.Task) error {
	for _, id := range pending {
		if _, ok := tasks[id]; !ok {
			return referenceNotFound("task", id)
		}
	}
	for _, id := range pending {
		if tasks[id].Completed {
			return invalidState("task", "completed task cannot be pending")
		}
	}
	return nil
}

// claimSteps assigns ids to user. A task taken over from another user is
// also pulled from that user's pendingTasks.
func (c *Coordinator) claimSteps(user *models.User, ids []string, tasks map[string]models.Task) []step {
	if len(ids) == 0 {
		return nil
	}
	userID := user.ID.Hex()

	steps := []step{c.assignStep(
		fmt.Sprintf("assign %d task(s) to user %s", len(ids), userID),
		repositories.TaskFilter{IDs: ids},
		repositories.Assignment{AssignedUser: userID, AssignedUserName: user.Name},
	)}
	for _, id := range ids {
		task := tasks[id]
		if task.AssignedUser == userID {
			continue
		}
		if task.IsAssigned() {
			steps = append(steps, c.removePendingStep(task.AssignedUser, id))
			steps = append(steps, c.notifySteps(task.AssignedUser, id, task.Name, models.NotificationTaskUnassigned)...)
		}
		steps = append(steps, c.notifySteps(userID, id, task.Name, models.NotificationTaskAssigned)...)
	}
	return steps
}

// CreateUser validates the claimed tasks, stores the user and points every
// claimed task at it.
func (c *Coordinator) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}

	pending := normalizePending(in.PendingTasks)
	tasks, err := c.loadTasks(ctx, pending)
	if err != nil {
		return nil, err
	}
	if err := validatePending(pending, tasks); err != nil {
		return nil, err
	}

	created, err := c.users.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: pending,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, conflict("email", "User with this email already exists")
		}
		return nil, storeError("failed to create user", err)
	}
	c.logger.Infof("Event ID: USER_CREATED, Description: User %s created with %d pending task(s)", created.ID.Hex(), len(created.PendingTasks))

	c.cascades.Go(ctx, "CreateUser", c.claimSteps(created, created.PendingTasks, tasks)...)
	return created, nil
}

// UpdateUser replaces the user and reconciles tasks against the difference
// between the old and new pendingTasks. A rename is pushed to every task
// assigned to the user, not only the diffed ones.
func (c *Coordinator) UpdateUser(ctx context.Context, id string, in UserInput) (*models.User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}

	id = canonicalID(id)
	existing, err := c.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeError("failed to fetch user", err)
	}

	pending := normalizePending(in.PendingTasks)
	added, removed := diffPending(existing.PendingTasks, pending)

	// removed tasks are read in the same batch for their notification text
	tasks, err := c.loadTasks(ctx, append(append([]string{}, pending...), removed...))
	if err != nil {
		return nil, err
	}
	if err := validatePending(pending, tasks); err != nil {
		return nil, err
	}

	updated, err := c.users.Replace(ctx, id, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: pending,
		DateCreated:  existing.DateCreated,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, conflict("email", "User with this email already exists")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, notFound("user")
		}
		return nil, storeError("failed to update user", err)
	}
	c.logger.Infof("Event ID: USER_UPDATED, Description: User %s updated (+%d/-%d pending task(s))", id, len(added), len(removed))

	var steps []step
	if len(removed) > 0 {
		steps = append(steps, c.assignStep(
			fmt.Sprintf("unassign %d task(s) from user %s", len(removed), id),
			repositories.TaskFilter{IDs: removed, AssignedUser: &id},
			repositories.Unassigned(),
		))
		for _, taskID := range removed {
			if task, ok := tasks[taskID]; ok && task.AssignedUser == id {
				steps = append(steps, c.notifySteps(id, taskID, task.Name, models.NotificationTaskUnassigned)...)
			}
		}
	}
	steps = append(steps, c.claimSteps(updated, added, tasks)...)
	if updated.Name != existing.Name {
		steps = append(steps, c.assignStep(
			fmt.Sprintf("rename user %s on assigned tasks", id),
			repositories.TaskFilter{AssignedUser: &id},
			repositories.Assignment{AssignedUser: id, AssignedUserName: updated.Name},
		))
	}
	c.cascades.Go(ctx, "UpdateUser", steps...)

	return updated, nil
}

// diffPending compares two id lists by set membership.
func diffPending(before, after []string) (added, removed []string) {
	inBefore := make(map[string]bool, len(before))
	for _, id := range before {
		inBefore[canonicalID(id)] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, id := range after {
		inAfter[id] = true
		if !inBefore[id] {
			added = append(added, id)
		}
	}
	for id := range inBefore {
		if !inAfter[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// DeleteUser unassigns every task pointing at the user and then deletes it.
// Unlike the other cascades the unassignment is synchronous: if it fails
// the user is kept.
func (c *Coordinator) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	id = canonicalID(id)
	if _, err := c.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeError("failed to fetch user", err)
	}

	n, err := c.tasks.UpdateAssignments(ctx, repositories.TaskFilter{AssignedUser: &id}, repositories.Unassigned())
	if err != nil {
		c.logger.Errorf("Event ID: USER_DELETE_ABORTED, Description: Failed to unassign tasks of user %s: %v", id, err)
		return nil, storeError("failed to unassign tasks of user", err)
	}

	deleted, err := c.users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeError("failed to delete user", err)
	}
	c.logger.Infof("Event ID: USER_DELETED, Description: User %s deleted, %d task(s) unassigned", id, n)
	return deleted, nil
}
