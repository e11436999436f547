package topics

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
	"sowp-lms/pkg/search"
)

type Handler struct {
	db       *gorm.DB
	repos    *repos.Repos
	ids      counter.Counter
	index    search.Indexer
	events   kfka.Writer
	pageSize int
	log      *logger.Logger
}

func NewHandler(db *gorm.DB, r *repos.Repos, ids counter.Counter, index search.Indexer, events kfka.Writer, pageSize int, log *logger.Logger) *Handler {
	if index == nil {
		index = search.Nop{}
	}
	if events == nil {
		events = kfka.Discard{}
	}
	return &Handler{
		db:       db,
		repos:    r,
		ids:      ids,
		index:    index,
		events:   events,
		pageSize: pageSize,
		log:      log.With("handler", "topics"),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	all, err := h.repos.Topics.ListByCourse(r.Context(), nil, courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := Screen(h.pageSize).Run(all, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, order, err := keys(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	topic, err := h.repos.Topics.Get(r.Context(), nil, courseID, order)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, topic)
}

// Create appends the topic after the last one of the course and tells every
// enrolled user about it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var topic models.Topic
	if err := response.Bind(r, &topic); err != nil {
		response.Error(w, h.log, err)
		return
	}
	ctx := r.Context()
	course, err := h.repos.Courses.Get(ctx, nil, courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	topicID, err := h.ids.Next(ctx, counter.TopicKey(), func(ctx context.Context) (int, error) {
		return h.repos.Topics.MaxTopicID(ctx, nil)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		last, err := h.repos.Topics.MaxOrder(ctx, tx, courseID)
		if err != nil {
			return err
		}
		topic.CourseID = courseID
		topic.OrderIndex = last + 1
		topic.TopicID = topicID
		topic.Views = 0
		if err := h.repos.Topics.Create(ctx, tx, &topic); err != nil {
			return err
		}
		return h.repos.Courses.AddCounter(ctx, tx, courseID, repos.CourseLectures, 1)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.reindex(ctx, topic)
	h.announce(ctx, course, topic)
	h.log.Info("topic created", "course", courseID, "order", topic.OrderIndex)
	response.JSON(w, http.StatusCreated, topic)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	courseID, order, err := keys(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var topic models.Topic
	if err := response.Bind(r, &topic); err != nil {
		response.Error(w, h.log, err)
		return
	}
	ctx := r.Context()
	topic.CourseID = courseID
	topic.OrderIndex = order
	if err := h.repos.Topics.Update(ctx, nil, &topic); err != nil {
		response.Error(w, h.log, err)
		return
	}
	stored, err := h.repos.Topics.Get(ctx, nil, courseID, order)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.reindex(ctx, *stored)
	response.JSON(w, http.StatusOK, stored)
}

// View counts a view and marks the topic as seen in the caller's progress.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	courseID, order, err := keys(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	ctx := r.Context()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.repos.Topics.IncrementViews(ctx, tx, courseID, order); err != nil {
			return err
		}
		p, err := h.repos.Progress.Get(ctx, tx, user.Email, courseID)
		if apierr.Is(err, apierr.CodeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if slices.Contains(p.ViewedTopics, order) {
			return nil
		}
		p.ViewedTopics = append(p.ViewedTopics, order)
		return h.repos.Progress.Save(ctx, tx, p)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	topic, err := h.repos.Topics.Get(ctx, nil, courseID, order)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, topic)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	found := []models.Topic{}
	if q != "" {
		found, err = h.index.SearchTopics(r.Context(), courseID, q, response.BoolParam(r, "deep"))
		if err != nil {
			response.Error(w, h.log, err)
			return
		}
	}
	if found == nil {
		found = []models.Topic{}
	}
	response.JSON(w, http.StatusOK, found)
}

func (h *Handler) reindex(ctx context.Context, t models.Topic) {
	if err := h.index.IndexTopic(ctx, t); err != nil {
		h.log.Warn("topic not indexed", "course", t.CourseID, "order", t.OrderIndex, "error", err)
	}
}

func (h *Handler) announce(ctx context.Context, course *models.Course, t models.Topic) {
	enrolled, err := h.repos.Progress.Enrolled(ctx, nil, course.ID)
	if err != nil {
		h.log.Warn("topic event not sent", "course", course.ID, "error", err)
		return
	}
	for _, p := range enrolled {
		ev := kfka.CourseEvent{
			CourseID:    course.ID,
			CourseName:  course.Title,
			TopicIndex:  t.OrderIndex,
			TopicName:   t.Name,
			Description: t.Description,
			Email:       p.UserEmail,
			EventType:   kfka.EventTopicAdded,
		}
		if err := ev.Send(ctx, h.events); err != nil {
			h.log.Warn("topic event not sent", "course", course.ID, "email", p.UserEmail, "error", err)
		}
	}
}

func keys(r *http.Request) (courseID, order int, err error) {
	if courseID, err = response.IntVar(r, "courseID"); err != nil {
		return 0, 0, err
	}
	if order, err = response.IntVar(r, "order"); err != nil {
		return 0, 0, err
	}
	return courseID, order, nil
}
