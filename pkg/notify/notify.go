// Package notify stores user notifications and turns kafka events into them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/email"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
)

const DefaultTTL = 30 * 24 * time.Hour

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Service struct {
	notifications repos.NotificationRepo
	users         repos.UserRepo
	ids           counter.Counter
	mailer        email.Sender
	log           *logger.Logger
	now           func() time.Time
}

func NewService(r *repos.Repos, ids counter.Counter, mailer email.Sender, log *logger.Logger) *Service {
	return &Service{
		notifications: r.Notifications,
		users:         r.Users,
		ids:           ids,
		mailer:        mailer,
		log:           log.With("component", "notify"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores a notification for one user, or for everyone when
// recipient is empty.
func (s *Service) Notify(ctx context.Context, recipient, content string, ttl time.Duration) (*models.Notification, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.Validation("content is required", map[string]string{"content": "is required"})
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	id, err := s.ids.Next(ctx, counter.NotificationKey(), func(ctx context.Context) (int, error) {
		return s.notifications.MaxID(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	n := &models.Notification{
		ID:        id,
		Content:   content,
		UserEmail: recipient,
		CreatedAt: now,
		Expiry:    now.Add(ttl),
	}
	if err := s.notifications.Create(ctx, nil, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListFor(ctx context.Context, email string) ([]models.Notification, error) {
	return s.notifications.ListFor(ctx, nil, email, s.now())
}

// Consume reads until ctx is cancelled. Bad messages are logged and skipped.
func (s *Service) Consume(ctx context.Context, r Reader) error {
	defer r.Close()
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			s.log.Warn("kafka read failed", "error", err)
			continue
		}
		if err := s.Handle(ctx, m); err != nil {
			s.log.Error("notification event dropped", "topic", m.Topic, "error", err)
		}
	}
}

func (s *Service) Handle(ctx context.Context, m kafka.Message) error {
	switch m.Topic {
	case kfka.TopicGrades:
		var e kfka.GradeEvent
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return fmt.Errorf("decode grade event: %w", err)
		}
		return s.onGraded(ctx, e)
	case kfka.TopicCourses:
		var e kfka.CourseEvent
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return fmt.Errorf("decode course event: %w", err)
		}
		return s.onCourse(ctx, e)
	}
	return fmt.Errorf("unexpected topic %q", m.Topic)
}

func (s *Service) onGraded(ctx context.Context, e kfka.GradeEvent) error {
	if _, err := s.Notify(ctx, e.UserEmail, GradedMessage(e), 0); err != nil {
		return err
	}
	s.mail(ctx, e.UserEmail, "Assignment graded", "Graded.html", email.EmailData{
		AssignmentTitle: e.AssignmentTitle,
		Score:           e.Score,
		MaxScore:        e.MaxScore,
		Percentage:      e.Percentage,
		Feedback:        e.Feedback,
	})
	return nil
}

func (s *Service) onCourse(ctx context.Context, e kfka.CourseEvent) error {
	var content, tmpl string
	switch e.EventType {
	case kfka.EventTopicAdded:
		content = fmt.Sprintf("New topic %q added to %s", e.TopicName, e.CourseName)
		tmpl = "NewTopic.html"
	default:
		content = fmt.Sprintf("Course %s was updated", e.CourseName)
		tmpl = "UpdateCourse.html"
	}
	if _, err := s.Notify(ctx, e.Email, content, 0); err != nil {
		return err
	}
	s.mail(ctx, e.Email, "New message from course "+e.CourseName, tmpl, email.EmailData{
		CourseName: e.CourseName,
		TopicName:  e.TopicName,
		TopicLink:  fmt.Sprintf("/api/courses/%d/topics/%d", e.CourseID, e.TopicIndex),
		Content:    e.Description,
	})
	return nil
}

// mail respects the user's notification preference; failures are logged only.
func (s *Service) mail(ctx context.Context, to, subject, tmpl string, data email.EmailData) {
	if s.mailer == nil || to == "" {
		return
	}
	user, err := s.users.Get(ctx, nil, to)
	if err != nil || !user.Notification {
		return
	}
	if err := s.mailer.Send([]string{to}, subject, tmpl, data); err != nil {
		s.log.Warn("email not sent", "to", to, "template", tmpl, "error", err)
	}
}

// GradedMessage is the notification text for a graded attempt.
func GradedMessage(e kfka.GradeEvent) string {
	return fmt.Sprintf("Your assignment %q was graded: %d/%d (%.1f%%)", e.AssignmentTitle, e.Score, e.MaxScore, e.Percentage)
}
