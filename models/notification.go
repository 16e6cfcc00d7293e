package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned   NotificationType = "task_assigned"
	NotificationTaskUnassigned NotificationType = "task_unassigned"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	TaskID    string           `json:"taskId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}
