package repos

import (
	"context"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type AssignmentRepo interface {
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Assignment, error)
	Get(ctx context.Context, tx *gorm.DB, courseID, id int) (*models.Assignment, error)
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	MaxID(ctx context.Context, tx *gorm.DB, courseID int) (int, error)
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Assignment, error) {
	var out []models.Assignment
	err := pick(tx, r.db).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "assignments of course", courseID)
	}
	return out, nil
}

func (r *assignmentRepo) Get(ctx context.Context, tx *gorm.DB, courseID, id int) (*models.Assignment, error) {
	var a models.Assignment
	err := pick(tx, r.db).WithContext(ctx).First(&a, "course_id = ? AND id = ?", courseID, id).Error
	if err != nil {
		return nil, wrap(err, "assignment", id)
	}
	return &a, nil
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(assignment).Error, "assignment", assignment.ID)
}

func (r *assignmentRepo) MaxID(ctx context.Context, tx *gorm.DB, courseID int) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Assignment{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	return max, wrap(err, "assignment", "max id")
}
