package repositories

import (
	"context"
	"testing"
	"time"

	"trello-project/microservices/assignment-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryTaskRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepo()

	created, err := repo.Create(ctx, &models.Task{Name: "T", Deadline: "d", AssignedUserName: models.UnassignedName})
	require.NoError(t, err)
	id := created.ID.Hex()

	// Mutating the returned copy must not leak into the store.
	created.Name = "changed"
	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", stored.Name)

	replaced, err := repo.Replace(ctx, id, &models.Task{Name: "T2", Deadline: "d", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.ID)
	assert.True(t, replaced.Completed)

	_, err = repo.Replace(ctx, primitive.NewObjectID().Hex(), &models.Task{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T2", deleted.Name)

	_, err = repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTaskRepoFindByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepo()

	a, err := repo.Create(ctx, &models.Task{Name: "A"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &models.Task{Name: "B"})
	require.NoError(t, err)

	tasks, err := repo.FindByIDs(ctx, []string{b.ID.Hex(), a.ID.Hex(), b.ID.Hex(), "missing"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "B", tasks[0].Name)
	assert.Equal(t, "A", tasks[1].Name)
}

func TestMemoryTaskRepoUpdateAssignments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepo()
	u1, u2 := "u1", "u2"

	a, _ := repo.Create(ctx, &models.Task{Name: "A", AssignedUser: u1, AssignedUserName: "One"})
	b, _ := repo.Create(ctx, &models.Task{Name: "B", AssignedUser: u2, AssignedUserName: "Two"})
	c, _ := repo.Create(ctx, &models.Task{Name: "C", AssignedUser: u1, AssignedUserName: "One"})

	n, err := repo.UpdateAssignments(ctx, TaskFilter{AssignedUser: &u1}, Assignment{AssignedUser: u1, AssignedUserName: "Uno"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.UpdateAssignments(ctx, TaskFilter{IDs: []string{a.ID.Hex(), b.ID.Hex()}, AssignedUser: &u1}, Unassigned())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.UpdateAssignments(ctx, TaskFilter{IDs: []string{}}, Unassigned())
	require.NoError(t, err)
	assert.Zero(t, n)

	got := func(id primitive.ObjectID) *models.Task {
		task, err := repo.FindByID(ctx, id.Hex())
		require.NoError(t, err)
		return task
	}
	assert.Equal(t, "", got(a.ID).AssignedUser)
	assert.Equal(t, models.UnassignedName, got(a.ID).AssignedUserName)
	assert.Equal(t, "Two", got(b.ID).AssignedUserName)
	assert.Equal(t, "Uno", got(c.ID).AssignedUserName)
}

func TestMemoryUserRepoEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()

	a, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	assert.NotNil(t, a.PendingTasks)

	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	b, err := repo.Create(ctx, &models.User{Name: "B", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = repo.Replace(ctx, a.ID.Hex(), &models.User{Name: "A2", Email: "a@x.com"})
	assert.NoError(t, err)

	_, err = repo.Replace(ctx, b.ID.Hex(), &models.User{Name: "B", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryUserRepoPendingTasks(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()

	user, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	id := user.ID.Hex()

	require.NoError(t, repo.AddPendingTask(ctx, id, "t1"))
	require.NoError(t, repo.AddPendingTask(ctx, id, "t2"))
	require.NoError(t, repo.AddPendingTask(ctx, id, "t1"))

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, stored.PendingTasks)

	require.NoError(t, repo.RemovePendingTask(ctx, id, "t1"))
	require.NoError(t, repo.RemovePendingTask(ctx, id, "absent"))
	stored, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, stored.PendingTasks)

	assert.ErrorIs(t, repo.AddPendingTask(ctx, primitive.NewObjectID().Hex(), "t1"), ErrNotFound)
}

func TestMemoryNotificationRepoNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotificationRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u1", TaskID: "t1", Type: models.NotificationTaskAssigned, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u1", TaskID: "t2", Type: models.NotificationTaskAssigned, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u2", TaskID: "t3", Type: models.NotificationTaskUnassigned}))

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].TaskID)
	assert.NotEmpty(t, list[0].ID)

	list, err = repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryListQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepo()

	for i, tc := range []struct {
		name      string
		completed bool
		user      string
	}{
		{"c", false, "u1"},
		{"a", true, "u2"},
		{"b", false, "u1"},
		{"d", false, ""},
	} {
		_, err := repo.Create(ctx, &models.Task{
			Name:         tc.name,
			Deadline:     time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			Completed:    tc.completed,
			AssignedUser: tc.user,
		})
		require.NoError(t, err)
	}

	names := func(docs []bson.M) []string {
		out := make([]string, 0, len(docs))
		for _, d := range docs {
			out = append(out, d["name"].(string))
		}
		return out
	}

	docs, err := repo.List(ctx, ListQuery{Where: bson.M{"completed": false}, Sort: bson.D{{Key: "name", Value: 1}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, names(docs))

	docs, err = repo.List(ctx, ListQuery{Where: bson.M{"assignedUser": bson.M{"$in": bson.A{"u1", "u2"}}}, Sort: bson.D{{Key: "name", Value: int32(-1)}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, names(docs))

	docs, err = repo.List(ctx, ListQuery{Sort: bson.D{{Key: "name", Value: 1}}, Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(docs))

	docs, err = repo.List(ctx, ListQuery{Where: bson.M{"assignedUser": bson.M{"$ne": ""}}, Select: bson.M{"name": 1}})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0], "_id")
	assert.NotContains(t, docs[0], "deadline")

	docs, err = repo.List(ctx, ListQuery{Select: bson.M{"description": 0, "_id": 0}})
	require.NoError(t, err)
	assert.NotContains(t, docs[0], "_id")
	assert.NotContains(t, docs[0], "description")
	assert.Contains(t, docs[0], "name")

	n, err := repo.Count(ctx, ListQuery{Where: bson.M{"completed": false}, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryListMatchesArrayMembership(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()

	a, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", PendingTasks: []string{"t1", "t2"}})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "b@x.com", PendingTasks: []string{"t3"}})
	require.NoError(t, err)

	docs, err := repo.List(ctx, ListQuery{Where: bson.M{"pendingTasks": "t2"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "A", docs[0]["name"])

	docs, err = repo.List(ctx, ListQuery{Where: bson.M{"_id": a.ID.Hex()}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, a.ID, docs[0]["_id"])
}
