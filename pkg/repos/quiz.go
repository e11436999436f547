package repos

import (
	"context"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type QuizRepo interface {
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Quiz, error)
	Get(ctx context.Context, tx *gorm.DB, courseID, quizID int) (*models.Quiz, error)
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	MaxID(ctx context.Context, tx *gorm.DB, courseID int) (int, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Quiz, error) {
	var out []models.Quiz
	err := pick(tx, r.db).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, quiz_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "quizzes of course", courseID)
	}
	return out, nil
}

func (r *quizRepo) Get(ctx context.Context, tx *gorm.DB, courseID, quizID int) (*models.Quiz, error) {
	var q models.Quiz
	err := pick(tx, r.db).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&q, "course_id = ? AND quiz_id = ?", courseID, quizID).Error
	if err != nil {
		return nil, wrap(err, "quiz", quizID)
	}
	return &q, nil
}

// Create stores the quiz and its questions together.
func (r *quizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	for i := range quiz.Questions {
		quiz.Questions[i].CourseID = quiz.CourseID
		quiz.Questions[i].QuizID = quiz.QuizID
		quiz.Questions[i].QuestionID = i + 1
		quiz.Questions[i].OrderIndex = i
	}
	quiz.TotalQuestions = len(quiz.Questions)
	return wrap(pick(tx, r.db).WithContext(ctx).Create(quiz).Error, "quiz", quiz.QuizID)
}

func (r *quizRepo) MaxID(ctx context.Context, tx *gorm.DB, courseID int) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Quiz{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(quiz_id), 0)").Scan(&max).Error
	return max, wrap(err, "quiz", "max id")
}

type QuizAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.QuizAttempt, error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return &quizAttemptRepo{db: db, log: baseLog.With("repo", "QuizAttemptRepo")}
}

func (r *quizAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(attempt).Error, "quiz attempt", attempt.AttemptID)
}

func (r *quizAttemptRepo) ListByUser(ctx context.Context, tx *gorm.DB, email string) ([]models.QuizAttempt, error) {
	var out []models.QuizAttempt
	err := pick(tx, r.db).WithContext(ctx).
		Where("user_email = ?", email).
		Order("completed_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "quiz attempts of user", email)
	}
	return out, nil
}
