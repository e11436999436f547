package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/email"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/testdb"
)

type sentMail struct {
	to   []string
	tmpl string
	data email.EmailData
}

type fakeMailer struct{ sent []sentMail }

func (f *fakeMailer) Send(to []string, _ string, tmpl string, data email.EmailData) error {
	f.sent = append(f.sent, sentMail{to: to, tmpl: tmpl, data: data})
	return nil
}

func newService(t *testing.T) (*Service, *repos.Repos, *fakeMailer) {
	t.Helper()
	r := repos.New(testdb.Open(t), logger.Nop())
	m := &fakeMailer{}
	s := NewService(r, counter.NewMemory(), m, logger.Nop())
	s.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s, r, m
}

func TestNotifyAssignsIDsAndExpiry(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newService(t)

	a, err := s.Notify(ctx, "", "Exams next week", 0)
	require.NoError(t, err)
	b, err := s.Notify(ctx, "s@x.io", "Personal", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, s.now().Add(DefaultTTL), a.Expiry)

	got, err := s.ListFor(ctx, "s@x.io")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.Notify(ctx, "", "   ", 0)
	assert.True(t, apierr.Is(err, apierr.CodeValidation))
}

func TestHandleGradeEvent(t *testing.T) {
	ctx := context.Background()
	s, r, m := newService(t)
	require.NoError(t, r.Users.Create(ctx, nil, &models.User{Email: "s@x.io", Notification: true}))

	body, _ := json.Marshal(kfka.GradeEvent{UserEmail: "s@x.io", AssignmentTitle: "Lab 1", Score: 8, MaxScore: 10, Percentage: 80})
	require.NoError(t, s.Handle(ctx, kafka.Message{Topic: kfka.TopicGrades, Value: body}))

	got, err := s.ListFor(ctx, "s@x.io")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "8/10")

	require.Len(t, m.sent, 1)
	assert.Equal(t, "Graded.html", m.sent[0].tmpl)
}

func TestHandleCourseEventRespectsPreference(t *testing.T) {
	ctx := context.Background()
	s, r, m := newService(t)
	require.NoError(t, r.Users.Create(ctx, nil, &models.User{Email: "quiet@x.io", Notification: false}))

	body, _ := json.Marshal(kfka.CourseEvent{CourseID: 1, CourseName: "DSA", TopicName: "Heaps", Email: "quiet@x.io", EventType: kfka.EventTopicAdded})
	require.NoError(t, s.Handle(ctx, kafka.Message{Topic: kfka.TopicCourses, Value: body}))

	got, err := s.ListFor(ctx, "quiet@x.io")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "Heaps")
	assert.Empty(t, m.sent)
}

func TestHandleRejectsBadMessages(t *testing.T) {
	s, _, _ := newService(t)
	assert.Error(t, s.Handle(context.Background(), kafka.Message{Topic: kfka.TopicGrades, Value: []byte("{")}))
	assert.Error(t, s.Handle(context.Background(), kafka.Message{Topic: "other"}))
}

type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *scriptedReader) Close() error { r.closed = true; return nil }

func TestConsumeStopsOnCancel(t *testing.T) {
	s, _, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	body, _ := json.Marshal(kfka.GradeEvent{UserEmail: "s@x.io", AssignmentTitle: "A", Score: 1, MaxScore: 2})
	r := &scriptedReader{
		msgs:   []kafka.Message{{Topic: "junk"}, {Topic: kfka.TopicGrades, Value: body}},
		cancel: cancel,
	}

	require.NoError(t, s.Consume(ctx, r))
	assert.True(t, r.closed)

	got, err := s.ListFor(context.Background(), "s@x.io")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
