package offline

import (
	"encoding/json"
	"fmt"
	"net/http"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/response"
)

type Handler struct {
	syncer *Syncer
	log    *logger.Logger
}

func NewHandler(s *Syncer, log *logger.Logger) *Handler {
	return &Handler{syncer: s, log: log.With("handler", "offline")}
}

type courseState struct {
	CourseID int    `json:"courseId"`
	Offline  bool   `json:"offline"`
	Status   Status `json:"status"`
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request, status int, courseID int) {
	offline, err := h.syncer.IsOffline(r.Context(), courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, status, courseState{CourseID: courseID, Offline: offline, Status: h.syncer.Status(courseID)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.syncer.Store().Courses(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, courses)
}

// Make mirrors the course. A failed topic pull still leaves the course
// marked offline with a network_error status.
func (h *Handler) Make(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.syncer.MakeOffline(r.Context(), courseID); err != nil && !apierr.Is(err, apierr.CodeNetwork) {
		response.Error(w, h.log, err)
		return
	}
	h.state(w, r, http.StatusCreated, courseID)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.syncer.RemoveOffline(r.Context(), courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if _, err := h.syncer.Store().Course(r.Context(), courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.syncer.SyncCourse(r.Context(), courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.state(w, r, http.StatusOK, courseID)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.state(w, r, http.StatusOK, courseID)
}

// Topics serves the cached rows; it never reaches the remote store.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if _, err := h.syncer.Store().Course(r.Context(), courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	topics, err := h.syncer.Store().Topics(r.Context(), courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, topics)
}

// Stream pushes the cached topic list as server-sent events until the
// client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, h.log, fmt.Errorf("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for topics := range h.syncer.Store().Watch(r.Context(), courseID) {
		data, err := json.Marshal(topics)
		if err != nil {
			h.log.Error("encode topics", "course", courseID, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: topics\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
