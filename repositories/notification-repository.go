package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trello-project/microservices/assignment-service/models"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// NotificationRepo stores the assignment notification feed in Cassandra,
// partitioned by user.
type NotificationRepo struct {
	session *gocql.Session
	logger  *logrus.Logger
}

// NewNotificationRepo connects to the comma-separated hosts, creates the
// notifications keyspace if needed and opens a session bound to it.
func NewNotificationRepo(hosts string, logger *logrus.Logger) (*NotificationRepo, error) {
	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		session.Close()
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: Failed to connect to notifications keyspace: %v", err)
		return nil, err
	}

	logger.Info("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra notifications keyspace.")
	return &NotificationRepo{
		session: session,
		logger:  logger,
	}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	nr.logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed.")
}

func (nr *NotificationRepo) CreateTable() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS assignment_notifications (
			user_id TEXT,
			created_at TIMESTAMP,
			id UUID,
			task_id TEXT,
			type TEXT,
			message TEXT,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func (nr *NotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	id := gocql.TimeUUID()
	if notification.ID != "" {
		parsed, err := gocql.ParseUUID(notification.ID)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", err)
		}
		id = parsed
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	err := nr.session.Query(
		`INSERT INTO assignment_notifications (user_id, created_at, id, task_id, type, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		notification.UserID, notification.CreatedAt, id, notification.TaskID, string(notification.Type), notification.Message,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	notification.ID = id.String()
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (nr *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, task_id, type, message, created_at
		 FROM assignment_notifications WHERE user_id = ?`, userID,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var (
		id        gocql.UUID
		n         models.Notification
		notifType string
	)
	for iter.Scan(&id, &n.UserID, &n.TaskID, &notifType, &n.Message, &n.CreatedAt) {
		n.ID = id.String()
		n.Type = models.NotificationType(notifType)
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return notifications, nil
}
