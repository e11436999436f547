package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.AssignmentAttempt) error
	Get(ctx context.Context, tx *gorm.DB, attemptID string) (*models.AssignmentAttempt, error)
	// GetByRef resolves a "User/<email>/AssignmentAttempts/<id>" path.
	GetByRef(ctx context.Context, tx *gorm.DB, ref string) (*models.AssignmentAttempt, error)
	Save(ctx context.Context, tx *gorm.DB, attempt *models.AssignmentAttempt) error
	ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.AssignmentAttempt, error)
	CountChecked(ctx context.Context, tx *gorm.DB, attemptID string) (int64, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.AssignmentAttempt) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(attempt).Error, "attempt", attempt.AttemptID)
}

func (r *attemptRepo) Get(ctx context.Context, tx *gorm.DB, attemptID string) (*models.AssignmentAttempt, error) {
	var a models.AssignmentAttempt
	if err := pick(tx, r.db).WithContext(ctx).First(&a, "attempt_id = ?", attemptID).Error; err != nil {
		return nil, wrap(err, "attempt", attemptID)
	}
	return &a, nil
}

func (r *attemptRepo) GetByRef(ctx context.Context, tx *gorm.DB, ref string) (*models.AssignmentAttempt, error) {
	email, id, ok := ParseAttemptRef(ref)
	if !ok {
		r.log.Warn("unparseable attempt ref", "ref", ref)
		return nil, apierr.NotFound("attempt %q not found", ref)
	}
	a, err := r.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(a.UserEmail, email) {
		r.log.Warn("attempt ref points at another user", "ref", ref, "owner", a.UserEmail)
		return nil, apierr.NotFound("attempt %q not found", ref)
	}
	return a, nil
}

func (r *attemptRepo) Save(ctx context.Context, tx *gorm.DB, attempt *models.AssignmentAttempt) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Save(attempt).Error, "attempt", attempt.AttemptID)
}

func (r *attemptRepo) ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.AssignmentAttempt, error) {
	var out []models.AssignmentAttempt
	err := pick(tx, r.db).WithContext(ctx).
		Where("user_email = ?", email).
		Order("submission_timestamp DESC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "attempts of user", email)
	}
	return out, nil
}

func (r *attemptRepo) CountChecked(ctx context.Context, tx *gorm.DB, attemptID string) (int64, error) {
	var n int64
	err := pick(tx, r.db).WithContext(ctx).Model(&models.AssignmentAttempt{}).
		Where("attempt_id = ? AND checked = ?", attemptID, true).Count(&n).Error
	return n, wrap(err, "attempt", attemptID)
}

// ParseAttemptRef splits an attempt path into owner email and attempt id.
func ParseAttemptRef(ref string) (email, attemptID string, ok bool) {
	parts := strings.Split(ref, "/")
	if len(parts) != 4 || parts[0] != "User" || parts[2] != "AssignmentAttempts" {
		return "", "", false
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}
