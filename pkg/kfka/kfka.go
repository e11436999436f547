package kfka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

const (
	TopicGrades  = "assignment_graded_notifications"
	TopicCourses = "course_update_notifications"

	EventAssignmentGraded = "assignment_graded"
	EventTopicAdded       = "topic_added"
	EventCourseUpdated    = "course_updated"
)

// Writer is the part of *kafka.Writer the events need.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter returns a writer that takes the topic from each message.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

type GradeEvent struct {
	AttemptID       string  `json:"attempt_id"`
	UserEmail       string  `json:"user_email"`
	AssignmentTitle string  `json:"assignment_title"`
	CourseID        int     `json:"course_id"`
	Score           int     `json:"score"`
	MaxScore        int     `json:"max_score"`
	Percentage      float64 `json:"percentage"`
	Feedback        string  `json:"feedback,omitempty"`
	Event           string  `json:"event"`
}

func (e *GradeEvent) Send(ctx context.Context, w Writer) error {
	e.Event = EventAssignmentGraded
	return send(ctx, w, TopicGrades, e.UserEmail, e)
}

// CourseEvent fans out to every enrolled user; Email is the recipient.
type CourseEvent struct {
	CourseID    int    `json:"course_id"`
	CourseName  string `json:"course_name"`
	TopicIndex  int    `json:"topic_index"`
	TopicName   string `json:"topic_name"`
	Description string `json:"description"`
	Email       string `json:"email"`
	EventType   string `json:"event_type"`
}

func (e *CourseEvent) Send(ctx context.Context, w Writer) error {
	if e.EventType == "" {
		e.EventType = EventCourseUpdated
	}
	return send(ctx, w, TopicCourses, e.Email, e)
}

func send(ctx context.Context, w Writer, topic, key string, v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	return w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msg,
	})
}

// Discard drops every message. Used when no broker is configured.
type Discard struct{}

func (Discard) WriteMessages(context.Context, ...kafka.Message) error { return nil }
