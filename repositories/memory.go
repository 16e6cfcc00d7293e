package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"trello-project/microservices/assignment-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTaskRepo keeps tasks in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	order []string
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: make(map[string]models.Task)}
}

func (r *MemoryTaskRepo) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.DateCreated.IsZero() {
		task.DateCreated = time.Now().UTC()
	}
	id := task.ID.Hex()
	r.tasks[id] = *task
	r.order = append(r.order, id)

	created := *task
	return &created, nil
}

func (r *MemoryTaskRepo) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &task, nil
}

func (r *MemoryTaskRepo) FindByIDs(_ context.Context, ids []string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []models.Task{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if task, ok := r.tasks[id]; ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *MemoryTaskRepo) FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := toDocument(task)
	if err != nil {
		return nil, err
	}
	return project(doc, projection), nil
}

func (r *MemoryTaskRepo) Replace(_ context.Context, id string, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return nil, ErrNotFound
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	task.ID = oid
	r.tasks[id] = *task

	updated := *task
	return &updated, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.tasks, id)
	r.order = removeString(r.order, id)
	return &task, nil
}

func (r *MemoryTaskRepo) UpdateAssignments(_ context.Context, filter TaskFilter, assignment Assignment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	if filter.IDs != nil {
		ids = filter.IDs
	} else {
		ids = r.order
	}

	var modified int64
	for _, id := range ids {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
		if filter.AssignedUser != nil && task.AssignedUser != *filter.AssignedUser {
			continue
		}
		if task.AssignedUser == assignment.AssignedUser && task.AssignedUserName == assignment.AssignedUserName {
			continue
		}
		task.AssignedUser = assignment.AssignedUser
		task.AssignedUserName = assignment.AssignedUserName
		r.tasks[id] = task
		modified++
	}
	return modified, nil
}

func (r *MemoryTaskRepo) List(_ context.Context, q ListQuery) ([]bson.M, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return runQuery(docs, q), nil
}

func (r *MemoryTaskRepo) Count(_ context.Context, q ListQuery) (int64, error) {
	docs, err := r.documents()
	if err != nil {
		return 0, err
	}
	return int64(len(runQuery(docs, ListQuery{Where: q.Where, Skip: q.Skip, Limit: q.Limit}))), nil
}

func (r *MemoryTaskRepo) documents() ([]bson.M, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]bson.M, 0, len(r.order))
	for _, id := range r.order {
		task := r.tasks[id]
		doc, err := toDocument(&task)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// MemoryUserRepo keeps users in process memory and enforces email
// uniqueness the way the Mongo unique index does.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]models.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return nil, ErrDuplicateEmail
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.DateCreated.IsZero() {
		user.DateCreated = time.Now().UTC()
	}
	user.PendingTasks = copyStrings(user.PendingTasks)

	id := user.ID.Hex()
	r.users[id] = *user
	r.order = append(r.order, id)
	return cloneUser(*user), nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepo) FindOne(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := toDocument(user)
	if err != nil {
		return nil, err
	}
	return project(doc, projection), nil
}

func (r *MemoryUserRepo) Replace(_ context.Context, id string, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return nil, ErrNotFound
	}
	if r.emailTaken(user.Email, id) {
		return nil, ErrDuplicateEmail
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	user.ID = oid
	user.PendingTasks = copyStrings(user.PendingTasks)
	r.users[id] = *user
	return cloneUser(*user), nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.users, id)
	r.order = removeString(r.order, id)
	return cloneUser(user), nil
}

func (r *MemoryUserRepo) AddPendingTask(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if user.HasPendingTask(taskID) {
		return nil
	}
	user.PendingTasks = append(copyStrings(user.PendingTasks), taskID)
	r.users[userID] = user
	return nil
}

func (r *MemoryUserRepo) RemovePendingTask(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.PendingTasks = removeString(copyStrings(user.PendingTasks), taskID)
	r.users[userID] = user
	return nil
}

func (r *MemoryUserRepo) List(_ context.Context, q ListQuery) ([]bson.M, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return runQuery(docs, q), nil
}

func (r *MemoryUserRepo) Count(_ context.Context, q ListQuery) (int64, error) {
	docs, err := r.documents()
	if err != nil {
		return 0, err
	}
	return int64(len(runQuery(docs, ListQuery{Where: q.Where, Skip: q.Skip, Limit: q.Limit}))), nil
}

func (r *MemoryUserRepo) documents() ([]bson.M, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]bson.M, 0, len(r.order))
	for _, id := range r.order {
		doc, err := toDocument(cloneUser(r.users[id]))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// emailTaken must be called with the lock held.
func (r *MemoryUserRepo) emailTaken(email, exceptID string) bool {
	for id, user := range r.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

// MemoryNotificationRepo is the notification feed used when no Cassandra
// cluster is configured.
type MemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications map[string][]models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{notifications: make(map[string][]models.Notification)}
}

func (r *MemoryNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = primitive.NewObjectID().Hex()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	r.notifications[notification.UserID] = append(r.notifications[notification.UserID], *notification)
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *MemoryNotificationRepo) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.notifications[userID]
	list := make([]models.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		list = append(list, stored[i])
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func cloneUser(user models.User) *models.User {
	user.PendingTasks = copyStrings(user.PendingTasks)
	return &user
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func removeString(s []string, target string) []string {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
