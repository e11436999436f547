package offline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
)

const (
	StateIdle         = "idle"
	StateSyncing      = "syncing"
	StateSynced       = "synced"
	StateNetworkError = "network_error"
)

// Remote is where the mirror pulls from.
type Remote interface {
	Course(ctx context.Context, id int) (*models.Course, error)
	Topics(ctx context.Context, courseID int) ([]models.Topic, error)
}

type repoRemote struct {
	courses repos.CourseRepo
	topics  repos.TopicRepo
}

// RepoRemote reads through the remote repositories.
func RepoRemote(r *repos.Repos) Remote {
	return repoRemote{courses: r.Courses, topics: r.Topics}
}

func (r repoRemote) Course(ctx context.Context, id int) (*models.Course, error) {
	return r.courses.Get(ctx, nil, id)
}

func (r repoRemote) Topics(ctx context.Context, courseID int) ([]models.Topic, error) {
	return r.topics.ListByCourse(ctx, nil, courseID)
}

type Status struct {
	State    string    `json:"state"`
	Error    string    `json:"error,omitempty"`
	SyncedAt time.Time `json:"syncedAt,omitempty"`
}

type Syncer struct {
	store  *Store
	remote Remote
	log    *logger.Logger
	limit  int

	mu     sync.RWMutex
	status map[int]Status
}

func NewSyncer(store *Store, remote Remote, log *logger.Logger) *Syncer {
	return &Syncer{
		store:  store,
		remote: remote,
		log:    log.With("component", "offline.sync"),
		limit:  4,
		status: map[int]Status{},
	}
}

func (s *Syncer) Status(courseID int) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[courseID]; ok {
		return st
	}
	return Status{State: StateIdle}
}

func (s *Syncer) setStatus(courseID int, st Status) {
	s.mu.Lock()
	s.status[courseID] = st
	s.mu.Unlock()
}

// SyncCourse refreshes the cached topics of a course. On failure the cache is
// left as it was.
func (s *Syncer) SyncCourse(ctx context.Context, courseID int) error {
	s.setStatus(courseID, Status{State: StateSyncing})
	topics, err := s.remote.Topics(ctx, courseID)
	if err != nil {
		return s.fail(courseID, err)
	}
	rows := make([]LocalTopic, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, FromTopic(t))
	}
	if err := s.store.UpsertTopics(ctx, courseID, rows); err != nil {
		return s.fail(courseID, err)
	}
	s.setStatus(courseID, Status{State: StateSynced, SyncedAt: time.Now().UTC()})
	s.log.Debug("course synced", "course", courseID, "topics", len(rows))
	return nil
}

func (s *Syncer) fail(courseID int, err error) error {
	s.setStatus(courseID, Status{State: StateNetworkError, Error: err.Error()})
	s.log.Warn("course sync failed", "course", courseID, "error", err)
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Code == apierr.CodeNetwork {
		return ae
	}
	return apierr.Network(err)
}

// SyncAll syncs every offline course concurrently and returns the first error.
// Each course still records its own status.
func (s *Syncer) SyncAll(ctx context.Context) error {
	courses, err := s.store.Courses(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, c := range courses {
		id := c.ID
		g.Go(func() error { return s.SyncCourse(gctx, id) })
	}
	return g.Wait()
}

// MakeOffline saves the course mirror and pulls its topics.
func (s *Syncer) MakeOffline(ctx context.Context, courseID int) error {
	course, err := s.remote.Course(ctx, courseID)
	if err != nil {
		return err
	}
	if err := s.store.SaveCourse(ctx, FromCourse(*course)); err != nil {
		return err
	}
	return s.SyncCourse(ctx, courseID)
}

func (s *Syncer) RemoveOffline(ctx context.Context, courseID int) error {
	if err := s.store.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.status, courseID)
	s.mu.Unlock()
	return nil
}

func (s *Syncer) IsOffline(ctx context.Context, courseID int) (bool, error) {
	_, err := s.store.Course(ctx, courseID)
	if apierr.Is(err, apierr.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Syncer) Store() *Store { return s.store }
