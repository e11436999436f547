// Package repos holds one data-access interface per stored entity. Every
// method takes an optional transaction; nil runs against the base handle.
package repos

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
)

type Repos struct {
	Courses       CourseRepo
	Topics        TopicRepo
	Assignments   AssignmentRepo
	Attempts      AttemptRepo
	Unchecked     UncheckedRepo
	Quizzes       QuizRepo
	QuizAttempts  QuizAttemptRepo
	Users         UserRepo
	Notifications NotificationRepo
	Progress      ProgressRepo
	Chat          ChatRepo
}

func New(db *gorm.DB, log *logger.Logger) *Repos {
	return &Repos{
		Courses:       NewCourseRepo(db, log),
		Topics:        NewTopicRepo(db, log),
		Assignments:   NewAssignmentRepo(db, log),
		Attempts:      NewAttemptRepo(db, log),
		Unchecked:     NewUncheckedRepo(db, log),
		Quizzes:       NewQuizRepo(db, log),
		QuizAttempts:  NewQuizAttemptRepo(db, log),
		Users:         NewUserRepo(db, log),
		Notifications: NewNotificationRepo(db, log),
		Progress:      NewProgressRepo(db, log),
		Chat:          NewChatRepo(db, log),
	}
}

func pick(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// wrap maps gorm errors onto the api error categories.
func wrap(err error, what string, key any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound("%s %v not found", what, key)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierr.Conflict("%s %v already exists", what, key)
	}
	return apierr.Network(fmt.Errorf("%s %v: %w", what, key, err))
}
