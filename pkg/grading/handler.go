package grading

import (
	"net/http"

	"github.com/gorilla/mux"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

// QueueLimit is the page size of the unchecked queue.
const QueueLimit = 10

// Handler exposes the admin checking queue.
type Handler struct {
	svc   *Service
	repos *repos.Repos
	log   *logger.Logger
}

func NewHandler(svc *Service, r *repos.Repos, log *logger.Logger) *Handler {
	return &Handler{svc: svc, repos: r, log: log.With("handler", "grading")}
}

// Queue returns the oldest-last page of unchecked submissions after the
// cursor in ?after=.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	after, err := listing.DecodeCursor(r.URL.Query().Get("after"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	items, err := h.repos.Unchecked.Page(r.Context(), nil, after, QueueLimit)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, listing.NewCursorPage(items, QueueLimit, func(u models.UncheckedAssignment) listing.Cursor {
		return listing.Cursor{At: u.CreatedAt, ID: u.ID}
	}))
}

type gradeRequest struct {
	Score    *int   `json:"score" validate:"required"`
	Feedback string `json:"feedback"`
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	res, err := h.svc.Grade(r.Context(), mux.Vars(r)["id"], *req.Score, req.Feedback)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
