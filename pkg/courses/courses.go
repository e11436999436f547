package courses

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
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
		log:      log.With("handler", "courses"),
	}
}

// List is the admin course table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.repos.Courses.List(r.Context(), nil)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := AdminScreen(h.pageSize).Run(all, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

type browseResult struct {
	listing.Window[models.Course]
	Categories []string `json:"categories"`
}

// Browse returns the next window of public courses after the first "shown".
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	all, err := h.repos.Courses.List(r.Context(), nil)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	courses := visible(all, r.URL.Query().Get("level"))
	screen := BrowseScreen(courses, h.pageSize)
	win, err := screen.Window(courses, response.ListQuery(r), response.IntParam(r, "shown", 0))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, browseResult{Window: win, Categories: Categories(courses)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := response.IntVar(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	course, err := h.repos.Courses.Get(r.Context(), nil, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, course)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var course models.Course
	if err := response.Bind(r, &course); err != nil {
		response.Error(w, h.log, err)
		return
	}
	ctx := r.Context()
	id, err := h.ids.Next(ctx, counter.CourseKey(), func(ctx context.Context) (int, error) {
		return h.repos.Courses.MaxID(ctx, nil)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	course.ID = id
	course.Members, course.Lectures, course.NoOfQuizzes, course.NoOfAssignments = 0, 0, 0, 0
	if err := h.repos.Courses.Create(ctx, nil, &course); err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.reindex(ctx, course)
	h.log.Info("course created", "course", course.ID, "code", course.CourseCode)
	response.JSON(w, http.StatusCreated, course)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := response.IntVar(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var update models.Course
	if err := response.Bind(r, &update); err != nil {
		response.Error(w, h.log, err)
		return
	}
	ctx := r.Context()
	update.ID = id
	if err := h.repos.Courses.Update(ctx, nil, &update); err != nil {
		response.Error(w, h.log, err)
		return
	}
	course, err := h.repos.Courses.Get(ctx, nil, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.reindex(ctx, *course)
	h.fanOut(ctx, kfka.CourseEvent{
		CourseID:    course.ID,
		CourseName:  course.Title,
		Description: course.Description,
		EventType:   kfka.EventCourseUpdated,
	})
	response.JSON(w, http.StatusOK, course)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := response.IntVar(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.repos.Courses.Delete(r.Context(), nil, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.index.DeleteCourse(r.Context(), id); err != nil {
		h.log.Warn("course left in search index", "course", id, "error", err)
	}
	h.log.Info("course deleted", "course", id)
	w.WriteHeader(http.StatusNoContent)
}

// Search queries the index; deep=true also matches descriptions.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.JSON(w, http.StatusOK, []models.Course{})
		return
	}
	found, err := h.index.SearchCourses(r.Context(), q, response.BoolParam(r, "deep"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if found == nil {
		found = []models.Course{}
	}
	response.JSON(w, http.StatusOK, found)
}

// reindex failures are logged; the database stays the source of truth.
func (h *Handler) reindex(ctx context.Context, c models.Course) {
	if err := h.index.IndexCourse(ctx, c); err != nil {
		h.log.Warn("course not indexed", "course", c.ID, "error", err)
	}
}

// fanOut sends ev once per enrolled user.
func (h *Handler) fanOut(ctx context.Context, ev kfka.CourseEvent) {
	enrolled, err := h.repos.Progress.Enrolled(ctx, nil, ev.CourseID)
	if err != nil {
		h.log.Warn("course event not sent", "course", ev.CourseID, "error", err)
		return
	}
	for _, p := range enrolled {
		e := ev
		e.Email = p.UserEmail
		if err := e.Send(ctx, h.events); err != nil {
			h.log.Warn("course event not sent", "course", ev.CourseID, "email", p.UserEmail, "error", err)
		}
	}
}
