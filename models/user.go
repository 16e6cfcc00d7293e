package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PendingTasks []string           `json:"pendingTasks" bson:"pendingTasks"`
	DateCreated  time.Time          `json:"dateCreated" bson:"dateCreated"`
}

// HasPendingTask reports whether taskID is in the user's pendingTasks.
func (u *User) HasPendingTask(taskID string) bool {
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}
