package repos

import (
	"context"

	"gorm.io/gorm"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

type TopicRepo interface {
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Topic, error)
	Get(ctx context.Context, tx *gorm.DB, courseID, orderIndex int) (*models.Topic, error)
	Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	IncrementViews(ctx context.Context, tx *gorm.DB, courseID, orderIndex int) error
	MaxOrder(ctx context.Context, tx *gorm.DB, courseID int) (int, error)
	MaxTopicID(ctx context.Context, tx *gorm.DB) (int, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID int) ([]models.Topic, error) {
	var topics []models.Topic
	err := pick(tx, r.db).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&topics).Error
	if err != nil {
		return nil, wrap(err, "topics of course", courseID)
	}
	return topics, nil
}

func (r *topicRepo) Get(ctx context.Context, tx *gorm.DB, courseID, orderIndex int) (*models.Topic, error) {
	var topic models.Topic
	err := pick(tx, r.db).WithContext(ctx).
		First(&topic, "course_id = ? AND order_index = ?", courseID, orderIndex).Error
	if err != nil {
		return nil, wrap(err, "topic", orderIndex)
	}
	return &topic, nil
}

func (r *topicRepo) Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	return wrap(pick(tx, r.db).WithContext(ctx).Create(topic).Error, "topic", topic.OrderIndex)
}

func (r *topicRepo) Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	res := pick(tx, r.db).WithContext(ctx).Model(&models.Topic{}).
		Where("course_id = ? AND order_index = ?", topic.CourseID, topic.OrderIndex).
		Select("*").Omit("course_id", "order_index", "topic_id", "created_at", "views").Updates(topic)
	if res.Error != nil {
		return wrap(res.Error, "topic", topic.OrderIndex)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "topic", topic.OrderIndex)
	}
	return nil
}

func (r *topicRepo) IncrementViews(ctx context.Context, tx *gorm.DB, courseID, orderIndex int) error {
	res := pick(tx, r.db).WithContext(ctx).Model(&models.Topic{}).
		Where("course_id = ? AND order_index = ?", courseID, orderIndex).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return wrap(res.Error, "topic", orderIndex)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "topic", orderIndex)
	}
	return nil
}

// MaxOrder returns -1 for a course without topics.
func (r *topicRepo) MaxOrder(ctx context.Context, tx *gorm.DB, courseID int) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Topic{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(order_index), -1)").Scan(&max).Error
	return max, wrap(err, "topic", "max order")
}

func (r *topicRepo) MaxTopicID(ctx context.Context, tx *gorm.DB) (int, error) {
	var max int
	err := pick(tx, r.db).WithContext(ctx).Model(&models.Topic{}).Select("COALESCE(MAX(topic_id), 0)").Scan(&max).Error
	return max, wrap(err, "topic", "max id")
}
