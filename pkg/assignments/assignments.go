package assignments

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/grading"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

type Handler struct {
	db       *gorm.DB
	repos    *repos.Repos
	ids      counter.Counter
	grading  *grading.Service
	pageSize int
	log      *logger.Logger
}

func NewHandler(db *gorm.DB, r *repos.Repos, ids counter.Counter, g *grading.Service, pageSize int, log *logger.Logger) *Handler {
	return &Handler{
		db:       db,
		repos:    r,
		ids:      ids,
		grading:  g,
		pageSize: pageSize,
		log:      log.With("handler", "assignments"),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	all, err := h.repos.Assignments.ListByCourse(r.Context(), nil, courseID)
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
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := response.IntVar(r, "assignmentID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	a, err := h.repos.Assignments.Get(r.Context(), nil, courseID, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, a)
}

// Create numbers assignments sequentially within their course and bumps the
// course's assignment count in the same transaction.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var a models.Assignment
	if err := response.Bind(r, &a); err != nil {
		response.Error(w, h.log, err)
		return
	}
	ctx := r.Context()
	if _, err := h.repos.Courses.Get(ctx, nil, courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := h.ids.Next(ctx, counter.AssignmentKey(courseID), func(ctx context.Context) (int, error) {
		return h.repos.Assignments.MaxID(ctx, nil, courseID)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	a.CourseID = courseID
	a.ID = id
	if a.OrderIndex == 0 {
		a.OrderIndex = id
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.repos.Assignments.Create(ctx, tx, &a); err != nil {
			return err
		}
		return h.repos.Courses.AddCounter(ctx, tx, courseID, repos.CourseAssignments, 1)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.log.Info("assignment created", "course", courseID, "assignment", id)
	response.JSON(w, http.StatusCreated, a)
}

type submitRequest struct {
	Images []string `json:"images" validate:"required,min=1"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := response.IntVar(r, "assignmentID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req submitRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	attempt, err := h.grading.Submit(r.Context(), user.Email, courseID, id, req.Images)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, attempt)
}
