// Package history serves the signed-in learner's past quiz and assignment
// attempts.
package history

import (
	"net/http"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

type Handler struct {
	repos    *repos.Repos
	pageSize int
	log      *logger.Logger
}

func NewHandler(r *repos.Repos, pageSize int, log *logger.Logger) *Handler {
	return &Handler{repos: r, pageSize: pageSize, log: log.With("handler", "history")}
}

func (h *Handler) Quizzes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	attempts, err := h.repos.QuizAttempts.ListByUser(r.Context(), nil, user.Email)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := QuizScreen(h.pageSize).Run(attempts, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *Handler) Assignments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	attempts, err := h.repos.Attempts.ListByUser(r.Context(), nil, user.Email)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := AssignmentScreen(h.pageSize).Run(attempts, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}
