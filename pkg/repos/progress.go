package repos

import (
	"context"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type ProgressRepo interface {
	Get(ctx context.Context, tx *gorm.DB, email string, courseID int) (*models.CourseProgress, error)
	Save(ctx context.Context, tx *gorm.DB, p *models.CourseProgress) error
	ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.CourseProgress, error)
	// Enrolled lists the users currently enrolled in a course.
	Enrolled(ctx context.Context, tx *gorm.DB, courseID int) ([]models.CourseProgress, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(ctx context.Context, tx *gorm.DB, email string, courseID int) (*models.CourseProgress, error) {
	var p models.CourseProgress
	err := pick(tx, r.db).WithContext(ctx).First(&p, "user_email = ? AND course_id = ?", email, courseID).Error
	if err != nil {
		return nil, wrap(err, "progress for course", courseID)
	}
	return &p, nil
}

func (r *progressRepo) Save(ctx context.Context, tx *gorm.DB, p *models.CourseProgress) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Save(p).Error, "progress for course", p.CourseID)
}

func (r *progressRepo) ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.CourseProgress, error) {
	var out []models.CourseProgress
	err := pick(tx, r.db).WithContext(ctx).Where("user_email = ?", email).Order("enrolled_at DESC").Find(&out).Error
	if err != nil {
		return nil, wrap(err, "progress of user", email)
	}
	return out, nil
}

func (r *progressRepo) Enrolled(ctx context.Context, tx *gorm.DB, courseID int) ([]models.CourseProgress, error) {
	var out []models.CourseProgress
	err := pick(tx, r.db).WithContext(ctx).
		Where("course_id = ? AND currently_enrolled = ?", courseID, true).
		Order("user_email").Find(&out).Error
	if err != nil {
		return nil, wrap(err, "enrollments of course", courseID)
	}
	return out, nil
}
