package repos

import (
	"context"

	"gorm.io/gorm"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type UncheckedRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *models.UncheckedAssignment) error
	Get(ctx context.Context, tx *gorm.DB, id string) (*models.UncheckedAssignment, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	// Page returns up to limit entries, newest first, strictly after the cursor.
	Page(ctx context.Context, tx *gorm.DB, after *listing.Cursor, limit int) ([]models.UncheckedAssignment, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type uncheckedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUncheckedRepo(db *gorm.DB, baseLog *logger.Logger) UncheckedRepo {
	return &uncheckedRepo{db: db, log: baseLog.With("repo", "UncheckedRepo")}
}

func (r *uncheckedRepo) Create(ctx context.Context, tx *gorm.DB, u *models.UncheckedAssignment) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(u).Error, "unchecked assignment", u.ID)
}

func (r *uncheckedRepo) Get(ctx context.Context, tx *gorm.DB, id string) (*models.UncheckedAssignment, error) {
	var u models.UncheckedAssignment
	if err := pick(tx, r.db).WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "unchecked assignment", id)
	}
	return &u, nil
}

func (r *uncheckedRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	res := pick(tx, r.db).WithContext(ctx).Delete(&models.UncheckedAssignment{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "unchecked assignment", id)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "unchecked assignment", id)
	}
	return nil
}

func (r *uncheckedRepo) Page(ctx context.Context, tx *gorm.DB, after *listing.Cursor, limit int) ([]models.UncheckedAssignment, error) {
	if limit <= 0 {
		limit = listing.DefaultPageSize
	}
	q := pick(tx, r.db).WithContext(ctx).Model(&models.UncheckedAssignment{})
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.At, after.At, after.ID)
	}
	var out []models.UncheckedAssignment
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, wrap(err, "unchecked assignments", "")
	}
	return out, nil
}

func (r *uncheckedRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := pick(tx, r.db).WithContext(ctx).Model(&models.UncheckedAssignment{}).Count(&n).Error
	return n, wrap(err, "unchecked assignments", "count")
}
