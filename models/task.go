package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnassignedName is stored in AssignedUserName while AssignedUser is empty.
const UnassignedName = "unassigned"

type Task struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Description      string             `json:"description" bson:"description"`
	Deadline         string             `json:"deadline" bson:"deadline"`
	Completed        bool               `json:"completed" bson:"completed"`
	AssignedUser     string             `json:"assignedUser" bson:"assignedUser"`
	AssignedUserName string             `json:"assignedUserName" bson:"assignedUserName"`
	DateCreated      time.Time          `json:"dateCreated" bson:"dateCreated"`
}

// IsAssigned reports whether the task points at a user.
func (t *Task) IsAssigned() bool {
	return t.AssignedUser != ""
}

// IsPending reports whether the task belongs in its assignee's pendingTasks.
func (t *Task) IsPending() bool {
	return t.IsAssigned() && !t.Completed
}

// Unassign resets both assignment fields to the sentinel pair.
func (t *Task) Unassign() {
	t.AssignedUser = ""
	t.AssignedUserName = UnassignedName
}
