// Package offline mirrors selected courses and their topics into a local
// SQLite database. The local rows are what readers see; remote fetches only
// feed them.
package offline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type LocalCourse struct {
	ID          int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string    `json:"title"`
	ShortTitle  string    `json:"shortTitle"`
	CourseCode  string    `json:"courseCode"`
	Instructor  string    `json:"instructor"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	Outline     string    `json:"outline"`
	Semester    string    `json:"semester"`
	Level       string    `json:"level"`
	Language    string    `json:"language"`
	Lectures    int       `json:"lectures"`
	CreditHours int       `json:"creditHours"`
	Tags        []string  `gorm:"serializer:json" json:"tags"`
	SavedAt     time.Time `json:"savedAt"`
}

func (LocalCourse) TableName() string { return "courses" }

type LocalTopic struct {
	CourseID    int       `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	OrderIndex  int       `gorm:"primaryKey;autoIncrement:false" json:"orderIndex"`
	TopicID     int       `json:"topicId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	VideoID     string    `json:"videoID"`
	IsPublic    bool      `json:"isPublic"`
	Tags        string    `json:"tags"`
	Categories  string    `json:"categories"`
	Views       int       `json:"views"`
	Semester    string    `json:"semester"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (LocalTopic) TableName() string { return "topics" }

func FromCourse(c models.Course) LocalCourse {
	return LocalCourse{
		ID:          c.ID,
		Title:       c.Title,
		ShortTitle:  c.ShortTitle,
		CourseCode:  c.CourseCode,
		Instructor:  c.Instructor,
		Description: c.Description,
		Duration:    c.Duration,
		Outline:     c.Outline,
		Semester:    c.Semester,
		Level:       c.Level,
		Language:    c.Language,
		Lectures:    c.Lectures,
		CreditHours: c.CreditHours,
		Tags:        c.Tags,
	}
}

func FromTopic(t models.Topic) LocalTopic {
	return LocalTopic{
		CourseID:    t.CourseID,
		OrderIndex:  t.OrderIndex,
		TopicID:     t.TopicID,
		Name:        t.Name,
		Description: t.Description,
		Content:     t.Content,
		VideoID:     t.VideoID,
		IsPublic:    t.IsPublic,
		Tags:        t.Tags,
		Categories:  t.Categories,
		Views:       t.Views,
		Semester:    t.Semester,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Open opens (creating if needed) the local database file.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open local db %s: %w", path, err)
	}
	return db, nil
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger

	mu   sync.Mutex
	subs map[int]map[chan struct{}]struct{}
}

func NewStore(db *gorm.DB, log *logger.Logger) (*Store, error) {
	if err := db.AutoMigrate(&LocalCourse{}, &LocalTopic{}); err != nil {
		return nil, fmt.Errorf("migrate local db: %w", err)
	}
	return &Store{
		db:   db,
		log:  log.With("component", "offline.store"),
		subs: map[int]map[chan struct{}]struct{}{},
	}, nil
}

// UpsertTopics inserts or replaces rows by key. Rows missing from topics are
// left in place.
func (s *Store) UpsertTopics(ctx context.Context, courseID int, topics []LocalTopic) error {
	if len(topics) == 0 {
		return nil
	}
	for i := range topics {
		topics[i].CourseID = courseID
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&topics).Error
	if err != nil {
		return apierr.Network(fmt.Errorf("upsert topics of course %d: %w", courseID, err))
	}
	s.changed(courseID)
	return nil
}

func (s *Store) Topics(ctx context.Context, courseID int) ([]LocalTopic, error) {
	out := []LocalTopic{}
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index").
		Find(&out).Error
	if err != nil {
		return nil, apierr.Network(fmt.Errorf("local topics of course %d: %w", courseID, err))
	}
	return out, nil
}

func (s *Store) SaveCourse(ctx context.Context, c LocalCourse) error {
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now().UTC()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error
	if err != nil {
		return apierr.Network(fmt.Errorf("save local course %d: %w", c.ID, err))
	}
	return nil
}

func (s *Store) Course(ctx context.Context, id int) (*LocalCourse, error) {
	var c LocalCourse
	err := s.db.WithContext(ctx).Limit(1).Find(&c, "id = ?", id).Error
	if err != nil {
		return nil, apierr.Network(fmt.Errorf("local course %d: %w", id, err))
	}
	if c.ID != id {
		return nil, apierr.NotFound("course %d is not offline", id)
	}
	return &c, nil
}

func (s *Store) Courses(ctx context.Context) ([]LocalCourse, error) {
	out := []LocalCourse{}
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, apierr.Network(fmt.Errorf("local courses: %w", err))
	}
	return out, nil
}

// DeleteCourse drops the course mirror and all of its topics.
func (s *Store) DeleteCourse(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&LocalTopic{}).Error; err != nil {
			return err
		}
		return tx.Delete(&LocalCourse{}, "id = ?", id).Error
	})
	if err != nil {
		return apierr.Network(fmt.Errorf("delete local course %d: %w", id, err))
	}
	s.changed(id)
	return nil
}

// Watch emits the topics of a course on subscribe and again after every
// change to that course. Bursts of changes may be coalesced into one emit.
// The channel closes when ctx ends.
func (s *Store) Watch(ctx context.Context, courseID int) <-chan []LocalTopic {
	out := make(chan []LocalTopic)
	wake := make(chan struct{}, 1)
	wake <- struct{}{}

	s.mu.Lock()
	if s.subs[courseID] == nil {
		s.subs[courseID] = map[chan struct{}]struct{}{}
	}
	s.subs[courseID][wake] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer s.unsubscribe(courseID, wake)
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
			rows, err := s.Topics(ctx, courseID)
			if err != nil {
				s.log.Warn("watch query failed", "course", courseID, "error", err)
				continue
			}
			select {
			case out <- rows:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Store) unsubscribe(courseID int, wake chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[courseID], wake)
	if len(s.subs[courseID]) == 0 {
		delete(s.subs, courseID)
	}
}

func (s *Store) changed(courseID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for wake := range s.subs[courseID] {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}
