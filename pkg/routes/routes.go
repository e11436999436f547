package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"sowp-lms/pkg/assignments"
	"sowp-lms/pkg/chat"
	"sowp-lms/pkg/courses"
	"sowp-lms/pkg/grading"
	"sowp-lms/pkg/history"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/notify"
	"sowp-lms/pkg/offline"
	"sowp-lms/pkg/quizzes"
	"sowp-lms/pkg/topics"
	"sowp-lms/pkg/users"
)

type Handlers struct {
	Users         *users.Handler
	Courses       *courses.Handler
	Topics        *topics.Handler
	Assignments   *assignments.Handler
	Quizzes       *quizzes.Handler
	Grading       *grading.Handler
	History       *history.Handler
	Notifications *notify.Handler
	Offline       *offline.Handler
	Chat          *chat.Hub
}

func admin(f http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(f)
}

// Setup mounts every route under /api behind auth.
func Setup(r *mux.Router, auth *middleware.Auth, h Handlers) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware)

	SetupMe(api.PathPrefix("/me").Subrouter(), h)
	SetupUsers(api.PathPrefix("/users").Subrouter(), h.Users)
	SetupCourses(api.PathPrefix("/courses").Subrouter(), h.Courses)
	course := api.PathPrefix("/courses/{courseID:[0-9]+}").Subrouter()
	SetupTopics(course, h.Topics)
	SetupAssignments(course, h.Assignments)
	SetupQuizzes(course, h.Quizzes)
	course.HandleFunc("/chat", h.Chat.ServeWS).Methods(http.MethodGet)
	SetupGrading(api.PathPrefix("/unchecked").Subrouter(), h.Grading)
	SetupOffline(api.PathPrefix("/offline/courses").Subrouter(), h.Offline)
	api.Handle("/notifications", admin(h.Notifications.Send)).Methods(http.MethodPost)
}

func SetupMe(h *mux.Router, hs Handlers) {
	h.HandleFunc("", hs.Users.Me).Methods(http.MethodGet)
	h.HandleFunc("/courses", hs.Courses.Mine).Methods(http.MethodGet)
	h.HandleFunc("/notifications", hs.Notifications.Mine).Methods(http.MethodGet)
	h.HandleFunc("/quizzes/history", hs.History.Quizzes).Methods(http.MethodGet)
	h.HandleFunc("/assignments/history", hs.History.Assignments).Methods(http.MethodGet)
}

func SetupUsers(h *mux.Router, u *users.Handler) {
	h.Handle("", admin(u.List)).Methods(http.MethodGet)
	h.Handle("/deleted", admin(u.ListDeleted)).Methods(http.MethodGet)
	h.HandleFunc("/{email}", u.Get).Methods(http.MethodGet)
	h.Handle("/{email}", admin(u.Delete)).Methods(http.MethodDelete)
	h.HandleFunc("/{email}/photo", u.UploadPhoto).Methods(http.MethodPut)
	h.HandleFunc("/{email}/photo", u.Photo).Methods(http.MethodGet)
}

func SetupCourses(h *mux.Router, c *courses.Handler) {
	h.HandleFunc("/browse", c.Browse).Methods(http.MethodGet)
	h.HandleFunc("/search", c.Search).Methods(http.MethodGet)
	h.Handle("", admin(c.List)).Methods(http.MethodGet)
	h.Handle("", admin(c.Create)).Methods(http.MethodPost)
	h.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	h.Handle("/{id:[0-9]+}", admin(c.Update)).Methods(http.MethodPut)
	h.Handle("/{id:[0-9]+}", admin(c.Delete)).Methods(http.MethodDelete)
	h.HandleFunc("/{courseID:[0-9]+}/enroll", c.Enroll).Methods(http.MethodPost)
	h.HandleFunc("/{courseID:[0-9]+}/enroll", c.Unenroll).Methods(http.MethodDelete)
}

func SetupTopics(h *mux.Router, t *topics.Handler) {
	h.HandleFunc("/topics", t.List).Methods(http.MethodGet)
	h.Handle("/topics", admin(t.Create)).Methods(http.MethodPost)
	h.HandleFunc("/topics/search", t.Search).Methods(http.MethodGet)
	h.HandleFunc("/topics/{order:[0-9]+}", t.Get).Methods(http.MethodGet)
	h.Handle("/topics/{order:[0-9]+}", admin(t.Update)).Methods(http.MethodPut)
	h.HandleFunc("/topics/{order:[0-9]+}/view", t.View).Methods(http.MethodPost)
}

func SetupAssignments(h *mux.Router, a *assignments.Handler) {
	h.HandleFunc("/assignments", a.List).Methods(http.MethodGet)
	h.Handle("/assignments", admin(a.Create)).Methods(http.MethodPost)
	h.HandleFunc("/assignments/{assignmentID:[0-9]+}", a.Get).Methods(http.MethodGet)
	h.HandleFunc("/assignments/{assignmentID:[0-9]+}/submit", a.Submit).Methods(http.MethodPost)
}

func SetupQuizzes(h *mux.Router, q *quizzes.Handler) {
	h.HandleFunc("/quizzes", q.List).Methods(http.MethodGet)
	h.Handle("/quizzes", admin(q.Create)).Methods(http.MethodPost)
	h.HandleFunc("/quizzes/{quizID:[0-9]+}", q.Get).Methods(http.MethodGet)
	h.HandleFunc("/quizzes/{quizID:[0-9]+}/attempts", q.Attempt).Methods(http.MethodPost)
}

func SetupGrading(h *mux.Router, g *grading.Handler) {
	h.Handle("", admin(g.Queue)).Methods(http.MethodGet)
	h.Handle("/{id}/grade", admin(g.Grade)).Methods(http.MethodPost)
}

func SetupOffline(h *mux.Router, o *offline.Handler) {
	h.HandleFunc("", o.List).Methods(http.MethodGet)
	h.Handle("/{courseID:[0-9]+}", admin(o.Make)).Methods(http.MethodPost)
	h.Handle("/{courseID:[0-9]+}", admin(o.Remove)).Methods(http.MethodDelete)
	h.Handle("/{courseID:[0-9]+}/sync", admin(o.Sync)).Methods(http.MethodPost)
	h.HandleFunc("/{courseID:[0-9]+}/status", o.Status).Methods(http.MethodGet)
	h.HandleFunc("/{courseID:[0-9]+}/topics", o.Topics).Methods(http.MethodGet)
	h.HandleFunc("/{courseID:[0-9]+}/topics/stream", o.Stream).Methods(http.MethodGet)
}
