package courses

import (
	"net/http"
	"slices"
	"time"

	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

// Enroll records the caller in a course. Progress, the user's course list and
// the member count change together.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
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
	ctx := r.Context()
	var progress *models.CourseProgress
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := h.repos.Courses.Get(ctx, tx, courseID)
		if err != nil {
			return err
		}
		p, err := h.repos.Progress.Get(ctx, tx, user.Email, courseID)
		switch {
		case err == nil && p.CurrentlyEnrolled:
			return apierr.Conflict("already enrolled in course %d", courseID)
		case err == nil:
			p.CurrentlyEnrolled = true
			p.EnrolledAt = time.Now().UTC()
			p.UnenrolledAt = nil
		case apierr.Is(err, apierr.CodeNotFound):
			p = &models.CourseProgress{
				UserEmail:         user.Email,
				CourseID:          courseID,
				CourseName:        course.Title,
				EnrolledAt:        time.Now().UTC(),
				CurrentlyEnrolled: true,
				ViewedTopics:      []int{},
			}
		default:
			return err
		}
		if err := h.repos.Progress.Save(ctx, tx, p); err != nil {
			return err
		}
		u, err := h.repos.Users.Get(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		if !slices.Contains(u.EnrolledCourses, courseID) {
			u.EnrolledCourses = append(u.EnrolledCourses, courseID)
			if err := h.repos.Users.Save(ctx, tx, u); err != nil {
				return err
			}
		}
		progress = p
		return h.repos.Courses.AddCounter(ctx, tx, courseID, repos.CourseMembers, 1)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.log.Info("user enrolled", "course", courseID, "email", user.Email)
	response.JSON(w, http.StatusCreated, progress)
}

func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
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
	ctx := r.Context()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := h.repos.Progress.Get(ctx, tx, user.Email, courseID)
		if err != nil {
			return err
		}
		if !p.CurrentlyEnrolled {
			return apierr.NotFound("not enrolled in course %d", courseID)
		}
		now := time.Now().UTC()
		p.CurrentlyEnrolled = false
		p.UnenrolledAt = &now
		if err := h.repos.Progress.Save(ctx, tx, p); err != nil {
			return err
		}
		u, err := h.repos.Users.Get(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		u.EnrolledCourses = slices.DeleteFunc(u.EnrolledCourses, func(id int) bool { return id == courseID })
		if err := h.repos.Users.Save(ctx, tx, u); err != nil {
			return err
		}
		return h.repos.Courses.AddCounter(ctx, tx, courseID, repos.CourseMembers, -1)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine lists the caller's course progress, most recent enrollment first.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	progress, err := h.repos.Progress.ListByUser(r.Context(), nil, user.Email)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if progress == nil {
		progress = []models.CourseProgress{}
	}
	response.JSON(w, http.StatusOK, progress)
}
