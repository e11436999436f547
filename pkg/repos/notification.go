package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error
	// ListFor returns broadcasts and the user's own notifications that have
	// not expired at now, newest first.
	ListFor(ctx context.Context, tx *gorm.DB, email string, now time.Time) ([]models.Notification, error)
	MaxID(ctx context.Context, tx *gorm.DB) (int, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(n).Error, "notification", n.ID)
}

func (r *notificationRepo) ListFor(ctx context.Context, tx *gorm.DB, email string, now time.Time) ([]models.Notification, error) {
	var all []models.Notification
	err := pick(tx, r.db).WithContext(ctx).
		Where("user_email = ? OR user_email = ?", "", email).
		Order("created_at DESC, id DESC").
		Find(&all).Error
	if err != nil {
		return nil, wrap(err, "notifications of", email)
	}
	out := all[:0]
	for _, n := range all {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *notificationRepo) MaxID(ctx context.Context, tx *gorm.DB) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Notification{}).Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	return max, wrap(err, "notification", "max id")
}
