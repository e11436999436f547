package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	s, err := NewStore(db, logger.Nop())
	require.NoError(t, err)
	return s
}

type fakeRemote struct {
	mu      sync.Mutex
	courses map[int]models.Course
	topics  map[int][]models.Topic
	err     error
}

func (f *fakeRemote) Course(_ context.Context, id int) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, apierr.NotFound("course %d not found", id)
	}
	return &c, nil
}

func (f *fakeRemote) Topics(_ context.Context, courseID int) ([]models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Topic(nil), f.topics[courseID]...), nil
}

func (f *fakeRemote) set(courseID int, topics ...models.Topic) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[courseID] = topics
}

func topic(course, order int, name string) models.Topic {
	return models.Topic{CourseID: course, OrderIndex: order, TopicID: course*100 + order, Name: name}
}

func newRemote() *fakeRemote {
	return &fakeRemote{
		courses: map[int]models.Course{
			1: {ID: 1, Title: "DSA", CourseCode: "CS201"},
			2: {ID: 2, Title: "OOP", CourseCode: "CS102"},
		},
		topics: map[int][]models.Topic{},
	}
}

func names(rows []LocalTopic) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestUpsertReplacesByKeyAndKeepsMissing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertTopics(ctx, 1, []LocalTopic{
		FromTopic(topic(1, 0, "Arrays")),
		FromTopic(topic(1, 1, "Lists")),
	}))
	require.NoError(t, s.UpsertTopics(ctx, 1, []LocalTopic{
		FromTopic(topic(1, 1, "Linked lists")),
	}))

	rows, err := s.Topics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrays", "Linked lists"}, names(rows))
}

func TestSyncFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.set(1, topic(1, 0, "Arrays"))
	sy := NewSyncer(newStore(t), remote, logger.Nop())

	require.NoError(t, sy.SyncCourse(ctx, 1))
	assert.Equal(t, StateSynced, sy.Status(1).State)

	remote.err = errors.New("connection refused")
	err := sy.SyncCourse(ctx, 1)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.CodeNetwork))
	assert.Equal(t, StateNetworkError, sy.Status(1).State)

	rows, err := sy.Store().Topics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrays"}, names(rows))
}

func TestStatusDefaultsToIdle(t *testing.T) {
	sy := NewSyncer(newStore(t), newRemote(), logger.Nop())
	assert.Equal(t, StateIdle, sy.Status(7).State)
}

func TestOfflineToggle(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.set(1, topic(1, 0, "Arrays"), topic(1, 1, "Stacks"))
	sy := NewSyncer(newStore(t), remote, logger.Nop())

	on, err := sy.IsOffline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, sy.MakeOffline(ctx, 1))
	on, err = sy.IsOffline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, on)

	c, err := sy.Store().Course(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "CS201", c.CourseCode)

	require.NoError(t, sy.RemoveOffline(ctx, 1))
	on, err = sy.IsOffline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, on)
	rows, err := sy.Store().Topics(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = sy.MakeOffline(ctx, 9)
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.set(1, topic(1, 0, "Arrays"))
	remote.set(2, topic(2, 0, "Classes"), topic(2, 1, "Interfaces"))
	sy := NewSyncer(newStore(t), remote, logger.Nop())
	require.NoError(t, sy.MakeOffline(ctx, 1))
	require.NoError(t, sy.MakeOffline(ctx, 2))

	remote.set(2, topic(2, 0, "Classes"), topic(2, 1, "Interfaces"), topic(2, 2, "Generics"))
	require.NoError(t, sy.SyncAll(ctx))

	rows, err := sy.Store().Topics(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, StateSynced, sy.Status(1).State)
}

func recv(t *testing.T, ch <-chan []LocalTopic) []LocalTopic {
	t.Helper()
	select {
	case rows, ok := <-ch:
		require.True(t, ok, "watch closed")
		return rows
	case <-time.After(2 * time.Second):
		t.Fatal("no emit from watch")
		return nil
	}
}

func TestWatchEmitsOnSubscribeAndChange(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Watch(ctx, 1)
	assert.Empty(t, recv(t, ch))

	require.NoError(t, s.UpsertTopics(context.Background(), 1, []LocalTopic{FromTopic(topic(1, 0, "Arrays"))}))
	assert.Equal(t, []string{"Arrays"}, names(recv(t, ch)))

	require.NoError(t, s.DeleteCourse(context.Background(), 1))
	assert.Empty(t, recv(t, ch))

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch not closed after cancel")
	}
}
