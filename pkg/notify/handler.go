package notify

import (
	"net/http"
	"time"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/response"
)

type Handler struct {
	svc *Service
	log *logger.Logger
}

func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("handler", "notifications")}
}

// Mine lists the caller's unexpired notifications, broadcasts included.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	list, err := h.svc.ListFor(r.Context(), user.Email)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}

type sendRequest struct {
	Content string `json:"content" validate:"required"`
	// Recipient is empty for a broadcast.
	Recipient string `json:"recipient" validate:"omitempty,email"`
	TTLDays   int    `json:"ttlDays" validate:"gte=0,lte=365"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	n, err := h.svc.Notify(r.Context(), req.Recipient, req.Content, time.Duration(req.TTLDays)*24*time.Hour)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.log.Info("notification sent", "id", n.ID, "recipient", req.Recipient)
	response.JSON(w, http.StatusCreated, n)
}
