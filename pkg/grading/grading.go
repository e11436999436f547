// Package grading moves assignment attempts from the unchecked queue to graded.
package grading

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/notify"
	"sowp-lms/pkg/repos"
)

// Notifier stores a user notification. Used when the grade event cannot be
// published.
type Notifier interface {
	Notify(ctx context.Context, recipient, content string, ttl time.Duration) (*models.Notification, error)
}

type Service struct {
	db       *gorm.DB
	repos    *repos.Repos
	events   kfka.Writer
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, r *repos.Repos, events kfka.Writer, notifier Notifier, log *logger.Logger) *Service {
	if events == nil {
		events = kfka.Discard{}
	}
	return &Service{
		db:       db,
		repos:    r,
		events:   events,
		notifier: notifier,
		log:      log.With("component", "grading"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type Result struct {
	Attempt    *models.AssignmentAttempt `json:"attempt"`
	Percentage float64                   `json:"percentage"`
}

// Submit records a new attempt and queues it for checking.
func (s *Service) Submit(ctx context.Context, email string, courseID, assignmentID int, images []string) (*models.AssignmentAttempt, error) {
	assignment, err := s.repos.Assignments.Get(ctx, nil, courseID, assignmentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	attempt := &models.AssignmentAttempt{
		AttemptID:           uuid.NewString(),
		UserEmail:           email,
		AssignmentID:        assignment.ID,
		AssignmentTitle:     assignment.Title,
		CourseID:            courseID,
		MaxScore:            int(math.Floor(assignment.Score)),
		Status:              models.StatusSubmitted,
		SubmissionTimestamp: now,
		SubmittedImages:     images,
	}
	queued := &models.UncheckedAssignment{
		ID:              uuid.NewString(),
		AssignmentTitle: assignment.Title,
		UserEmail:       email,
		AttemptRef:      attempt.Ref(),
		CreatedAt:       now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Attempts.Create(ctx, tx, attempt); err != nil {
			return err
		}
		return s.repos.Unchecked.Create(ctx, tx, queued)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("attempt submitted", "attempt", attempt.AttemptID, "user", email, "course", courseID)
	return attempt, nil
}

// Grade scores the attempt behind a queue entry. The attempt update and the
// queue delete commit together or not at all.
func (s *Service) Grade(ctx context.Context, uncheckedID string, score int, feedback string) (*Result, error) {
	queued, err := s.repos.Unchecked.Get(ctx, nil, uncheckedID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.repos.Attempts.GetByRef(ctx, nil, queued.AttemptRef)
	if err != nil {
		return nil, err
	}
	if attempt.Checked {
		return nil, apierr.Conflict("attempt %s is already graded", attempt.AttemptID)
	}
	if err := validateScore(score, attempt.MaxScore); err != nil {
		return nil, err
	}

	gradedAt := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.repos.Attempts.Get(ctx, tx, attempt.AttemptID)
		if err != nil {
			return err
		}
		if cur.Checked {
			return apierr.Conflict("attempt %s is already graded", cur.AttemptID)
		}
		cur.Score = score
		cur.Checked = true
		cur.GradedAt = &gradedAt
		cur.Status = models.StatusGraded
		if feedback != "" {
			cur.Feedback = feedback
		}
		if err := s.repos.Attempts.Save(ctx, tx, cur); err != nil {
			return err
		}
		if err := s.repos.Unchecked.Delete(ctx, tx, uncheckedID); err != nil {
			return err
		}
		attempt = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Attempt: attempt, Percentage: Percentage(score, attempt.MaxScore)}
	s.log.Info("attempt graded", "attempt", attempt.AttemptID, "score", score, "max", attempt.MaxScore)
	s.announce(ctx, res)
	return res, nil
}

// announce runs after commit; its failures never undo the grade.
func (s *Service) announce(ctx context.Context, res *Result) {
	a := res.Attempt
	ev := kfka.GradeEvent{
		AttemptID:       a.AttemptID,
		UserEmail:       a.UserEmail,
		AssignmentTitle: a.AssignmentTitle,
		CourseID:        a.CourseID,
		Score:           a.Score,
		MaxScore:        a.MaxScore,
		Percentage:      res.Percentage,
		Feedback:        a.Feedback,
	}
	err := ev.Send(ctx, s.events)
	if err == nil {
		return
	}
	s.log.Warn("grade event not published", "attempt", a.AttemptID, "error", err)
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, a.UserEmail, notify.GradedMessage(ev), 0); err != nil {
		s.log.Error("grade notification not stored", "attempt", a.AttemptID, "error", err)
	}
}

func validateScore(score, maxScore int) error {
	if score < 0 || score > maxScore {
		return apierr.Validation(
			fmt.Sprintf("score must be between 0 and %d", maxScore),
			map[string]string{"score": fmt.Sprintf("must be between 0 and %d", maxScore)},
		)
	}
	return nil
}

// Percentage is score/maxScore*100, or 0 when maxScore is 0.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return float64(score) / float64(maxScore) * 100
}
