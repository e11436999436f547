package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/testdb"
)

type recorder struct {
	msgs []kafka.Message
	err  error
}

func (r *recorder) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

type fakeNotifier struct{ got []string }

func (f *fakeNotifier) Notify(_ context.Context, recipient, content string, _ time.Duration) (*models.Notification, error) {
	f.got = append(f.got, recipient+": "+content)
	return &models.Notification{Content: content, UserEmail: recipient}, nil
}

type fixture struct {
	db       *gorm.DB
	repos    *repos.Repos
	events   *recorder
	notifier *fakeNotifier
	svc      *Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	r := repos.New(db, logger.Nop())
	f := &fixture{db: db, repos: r, events: &recorder{}, notifier: &fakeNotifier{}}
	f.svc = NewService(db, r, f.events, f.notifier, logger.Nop())
	require.NoError(t, r.Assignments.Create(context.Background(), nil, &models.Assignment{
		CourseID: 1, ID: 1, Title: "Linked lists", Score: 10, PassingScore: 5,
	}))
	return f
}

func (f *fixture) submit(t *testing.T) (*models.AssignmentAttempt, string) {
	t.Helper()
	ctx := context.Background()
	a, err := f.svc.Submit(ctx, "s@x.io", 1, 1, []string{"img"})
	require.NoError(t, err)
	page, err := f.repos.Unchecked.Page(ctx, nil, nil, 10)
	require.NoError(t, err)
	for _, u := range page {
		if u.AttemptRef == a.Ref() {
			return a, u.ID
		}
	}
	t.Fatalf("queue entry for %s not found", a.AttemptID)
	return nil, ""
}

func (f *fixture) counts(t *testing.T) (queued, checked int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.UncheckedAssignment{}).Count(&queued).Error)
	require.NoError(t, f.db.Model(&models.AssignmentAttempt{}).Where("checked = ?", true).Count(&checked).Error)
	return queued, checked
}

func TestSubmitQueuesAttempt(t *testing.T) {
	f := setup(t)
	a, _ := f.submit(t)

	assert.Equal(t, models.StatusSubmitted, a.Status)
	assert.Equal(t, 10, a.MaxScore)
	assert.Equal(t, "Linked lists", a.AssignmentTitle)

	queued, checked := f.counts(t)
	assert.EqualValues(t, 1, queued)
	assert.EqualValues(t, 0, checked)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Submit(context.Background(), "s@x.io", 1, 99, nil)
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestGradeCommitsBothWrites(t *testing.T) {
	f := setup(t)
	f.submit(t)
	_, otherID := f.submit(t)

	res, err := f.svc.Grade(context.Background(), otherID, 8, "good")
	require.NoError(t, err)

	assert.InDelta(t, 80.0, res.Percentage, 0.001)
	assert.True(t, res.Attempt.Checked)
	assert.Equal(t, models.StatusGraded, res.Attempt.Status)
	assert.Equal(t, "good", res.Attempt.Feedback)
	require.NotNil(t, res.Attempt.GradedAt)

	queued, checked := f.counts(t)
	assert.EqualValues(t, 1, queued, "exactly one queue row removed")
	assert.EqualValues(t, 1, checked, "exactly one attempt checked")

	require.Len(t, f.events.msgs, 1)
	assert.Equal(t, "s@x.io", string(f.events.msgs[0].Key))
	assert.Empty(t, f.notifier.got)
}

type failingDelete struct{ repos.UncheckedRepo }

func (failingDelete) Delete(context.Context, *gorm.DB, string) error {
	return apierr.Network(errors.New("queue unavailable"))
}

func TestGradeRollsBackWhenQueueDeleteFails(t *testing.T) {
	f := setup(t)
	a, id := f.submit(t)
	f.repos.Unchecked = failingDelete{f.repos.Unchecked}

	_, err := f.svc.Grade(context.Background(), id, 8, "good")
	require.Error(t, err)

	got, err := f.repos.Attempts.Get(context.Background(), nil, a.AttemptID)
	require.NoError(t, err)
	assert.False(t, got.Checked)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Zero(t, got.Score)
	assert.Nil(t, got.GradedAt)
	assert.Empty(t, got.Feedback)

	queued, checked := f.counts(t)
	assert.EqualValues(t, 1, queued)
	assert.EqualValues(t, 0, checked)
	assert.Empty(t, f.events.msgs)
}

func TestMaxScoreRoundsDown(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Assignments.Create(ctx, nil, &models.Assignment{CourseID: 1, ID: 2, Title: "Heaps", Score: 7.9}))

	a, err := f.svc.Submit(ctx, "s@x.io", 1, 2, []string{"img"})
	require.NoError(t, err)
	assert.Equal(t, 7, a.MaxScore)

	page, err := f.repos.Unchecked.Page(ctx, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	_, err = f.svc.Grade(ctx, page[0].ID, 8, "")
	assert.True(t, apierr.Is(err, apierr.CodeValidation))
	_, err = f.svc.Grade(ctx, page[0].ID, 7, "")
	assert.NoError(t, err)
}

func TestGradeRejectsOutOfRangeScoreBeforeWriting(t *testing.T) {
	for _, score := range []int{-1, 11} {
		f := setup(t)
		a, id := f.submit(t)

		_, err := f.svc.Grade(context.Background(), id, score, "")
		require.Error(t, err)
		assert.True(t, apierr.Is(err, apierr.CodeValidation), "score %d", score)

		queued, checked := f.counts(t)
		assert.EqualValues(t, 1, queued)
		assert.EqualValues(t, 0, checked)

		stored, err := f.repos.Attempts.Get(context.Background(), nil, a.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, stored.Status)
		assert.Empty(t, f.events.msgs)
	}
}

func TestGradeBoundaryScores(t *testing.T) {
	for _, score := range []int{0, 10} {
		f := setup(t)
		_, id := f.submit(t)
		res, err := f.svc.Grade(context.Background(), id, score, "")
		require.NoError(t, err)
		assert.Equal(t, score, res.Attempt.Score)
	}
}

func TestGradeMissingQueueEntry(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Grade(context.Background(), "nope", 5, "")
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestGradeTwiceIsNotFound(t *testing.T) {
	f := setup(t)
	_, id := f.submit(t)
	_, err := f.svc.Grade(context.Background(), id, 5, "")
	require.NoError(t, err)

	_, err = f.svc.Grade(context.Background(), id, 6, "")
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestGradeAlreadyCheckedAttemptConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, id := f.submit(t)
	stored, err := f.repos.Attempts.Get(ctx, nil, a.AttemptID)
	require.NoError(t, err)
	stored.Checked = true
	require.NoError(t, f.repos.Attempts.Save(ctx, nil, stored))

	_, err = f.svc.Grade(ctx, id, 5, "")
	assert.True(t, apierr.Is(err, apierr.CodeConflict))
	queued, _ := f.counts(t)
	assert.EqualValues(t, 1, queued)
}

func TestGradeKeepsOldFeedbackWhenEmpty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, id := f.submit(t)
	stored, err := f.repos.Attempts.Get(ctx, nil, a.AttemptID)
	require.NoError(t, err)
	stored.Feedback = "draft note"
	require.NoError(t, f.repos.Attempts.Save(ctx, nil, stored))

	res, err := f.svc.Grade(ctx, id, 7, "")
	require.NoError(t, err)
	assert.Equal(t, "draft note", res.Attempt.Feedback)
}

func TestGradePublishFailureFallsBackToNotification(t *testing.T) {
	f := setup(t)
	f.events.err = errors.New("broker down")
	_, id := f.submit(t)

	res, err := f.svc.Grade(context.Background(), id, 5, "")
	require.NoError(t, err)
	assert.True(t, res.Attempt.Checked)
	require.Len(t, f.notifier.got, 1)
	assert.Contains(t, f.notifier.got[0], "s@x.io")
}

func TestPercentage(t *testing.T) {
	assert.InDelta(t, 50.0, Percentage(5, 10), 0.001)
	assert.Equal(t, 0.0, Percentage(3, 0))
}
