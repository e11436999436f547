package repos

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type ChatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, msg *models.ChatMessage) error
	// Recent returns the last limit messages of a course in send order.
	Recent(ctx context.Context, tx *gorm.DB, courseID, limit int) ([]models.ChatMessage, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (r *chatRepo) Create(ctx context.Context, tx *gorm.DB, msg *models.ChatMessage) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(msg).Error, "chat message", msg.CourseID)
}

func (r *chatRepo) Recent(ctx context.Context, tx *gorm.DB, courseID, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := pick(tx, r.db).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "chat of course", courseID)
	}
	slices.Reverse(out)
	return out, nil
}
