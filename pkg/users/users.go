package users

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
	"sowp-lms/pkg/storage"
)

type Handler struct {
	users  repos.UserRepo
	photos storage.Photos
	screen listing.Screen[models.User]
	log    *logger.Logger
}

func NewHandler(r *repos.Repos, photos storage.Photos, pageSize int, log *logger.Logger) *Handler {
	return &Handler{
		users:  r.Users,
		photos: photos,
		screen: Screen(pageSize),
		log:    log.With("handler", "users"),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context(), nil)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := h.screen.Run(all, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	email, err := h.target(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	user, err := h.users.Get(r.Context(), nil, email)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	var req deleteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			response.Error(w, h.log, apierr.Validation("malformed request body", nil))
			return
		}
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = "removed by admin"
	}
	if err := h.users.Delete(r.Context(), email, req.Reason); err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.log.Info("user deleted", "email", email)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.users.ListDeleted(r.Context(), nil)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, deleted)
}

// UploadPhoto takes a multipart "file" field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	email, err := h.target(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxPhotoSize); err != nil {
		response.Error(w, h.log, apierr.Validation("malformed upload", map[string]string{"file": "could not be read"}))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, h.log, apierr.Validation("file is required", map[string]string{"file": "is required"}))
		return
	}
	defer file.Close()

	if _, err := h.users.Get(r.Context(), nil, email); err != nil {
		response.Error(w, h.log, err)
		return
	}
	key, err := h.photos.Put(r.Context(), email, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.users.SetPhoto(r.Context(), nil, email, key); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"photo": key})
}

func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), nil, mux.Vars(r)["email"])
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if user.Photo == "" {
		response.Error(w, h.log, apierr.NotFound("user %s has no photo", user.Email))
		return
	}
	obj, contentType, err := h.photos.Get(r.Context(), user.Photo)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer obj.Close()
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, obj); err != nil {
		h.log.Warn("photo stream interrupted", "email", user.Email, "error", err)
	}
}

// target is the {email} route user, visible to admins and to the user.
func (h *Handler) target(r *http.Request) (string, error) {
	caller, ok := middleware.UserFrom(r.Context())
	if !ok {
		return "", apierr.Unauthorized()
	}
	email := mux.Vars(r)["email"]
	if email != caller.Email && !caller.IsAdmin() {
		return "", apierr.Forbidden()
	}
	return email, nil
}
