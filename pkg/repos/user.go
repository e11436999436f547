package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type UserRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]models.User, error)
	Get(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	Save(ctx context.Context, tx *gorm.DB, user *models.User) error
	SetPhoto(ctx context.Context, tx *gorm.DB, email, photo string) error
	// Delete removes the user and appends a deleted_users record in one transaction.
	Delete(ctx context.Context, email, reason string) error
	ListDeleted(ctx context.Context, tx *gorm.DB) ([]models.DeletedUser, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) List(ctx context.Context, tx *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := pick(tx, r.db).WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, wrap(err, "users", "")
	}
	return users, nil
}

func (r *userRepo) Get(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var u models.User
	if err := pick(tx, r.db).WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, wrap(err, "user", email)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(user).Error, "user", user.Email)
}

func (r *userRepo) Save(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Save(user).Error, "user", user.Email)
}

func (r *userRepo) SetPhoto(ctx context.Context, tx *gorm.DB, email, photo string) error {
	res := pick(tx, r.db).WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update("photo", photo)
	if res.Error != nil {
		return wrap(res.Error, "user", email)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "user", email)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, email, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.Get(ctx, tx, email)
		if err != nil {
			return err
		}
		record := models.DeletedUser{
			Email:     user.Email,
			FullName:  user.FullName,
			Reason:    reason,
			DeletedAt: time.Now().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return wrap(err, "deleted user", email)
		}
		if err := tx.Delete(&models.User{}, "email = ?", email).Error; err != nil {
			return wrap(err, "user", email)
		}
		return nil
	})
}

func (r *userRepo) ListDeleted(ctx context.Context, tx *gorm.DB) ([]models.DeletedUser, error) {
	var out []models.DeletedUser
	if err := pick(tx, r.db).WithContext(ctx).Order("deleted_at DESC").Find(&out).Error; err != nil {
		return nil, wrap(err, "deleted users", "")
	}
	return out, nil
}
