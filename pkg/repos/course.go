package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type CourseRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]models.Course, error)
	Get(ctx context.Context, tx *gorm.DB, id int) (*models.Course, error)
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
	MaxID(ctx context.Context, tx *gorm.DB) (int, error)
	AddCounter(ctx context.Context, tx *gorm.DB, id int, c Counter, delta int) error
}

// Counter names a denormalized count on the course row. Counters only move
// through AddCounter; Update never writes them.
type Counter string

const (
	CourseMembers     Counter = "members"
	CourseLectures    Counter = "lectures"
	CourseQuizzes     Counter = "no_of_quizzes"
	CourseAssignments Counter = "no_of_assignments"
)

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB) ([]models.Course, error) {
	var courses []models.Course
	if err := pick(tx, r.db).WithContext(ctx).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, wrap(err, "courses", "")
	}
	return courses, nil
}

func (r *courseRepo) Get(ctx context.Context, tx *gorm.DB, id int) (*models.Course, error) {
	var course models.Course
	if err := pick(tx, r.db).WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "course", id)
	}
	return &course, nil
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(course).Error, "course", course.ID)
}

func (r *courseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	res := pick(tx, r.db).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).
		Select("*").Omit("id", "created_at", string(CourseMembers), string(CourseLectures), string(CourseQuizzes), string(CourseAssignments)).Updates(course)
	if res.Error != nil {
		return wrap(res.Error, "course", course.ID)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "course", course.ID)
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	res := pick(tx, r.db).WithContext(ctx).Delete(&models.Course{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "course", id)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "course", id)
	}
	return nil
}

func (r *courseRepo) MaxID(ctx context.Context, tx *gorm.DB) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Course{}).Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	return max, wrap(err, "course", "max id")
}

func (r *courseRepo) AddCounter(ctx context.Context, tx *gorm.DB, id int, c Counter, delta int) error {
	switch c {
	case CourseMembers, CourseLectures, CourseQuizzes, CourseAssignments:
	default:
		return fmt.Errorf("unknown course counter %q", c)
	}
	col := string(c)
	res := pick(tx, r.db).WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if res.Error != nil {
		return wrap(res.Error, "course", id)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "course", id)
	}
	return nil
}
