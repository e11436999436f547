package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/testdb"
)

type fakeIndex struct {
	indexed map[int]models.Course
	deleted []int
}

func (f *fakeIndex) IndexCourse(_ context.Context, c models.Course) error {
	f.indexed[c.ID] = c
	return nil
}
func (f *fakeIndex) DeleteCourse(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeIndex) IndexTopic(context.Context, models.Topic) error { return nil }
func (f *fakeIndex) SearchCourses(_ context.Context, q string, _ bool) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.indexed {
		if strings.Contains(strings.ToLower(c.Title), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeIndex) SearchTopics(context.Context, int, string, bool) ([]models.Topic, error) {
	return nil, nil
}

type recorder struct{ msgs []kafka.Message }

func (r *recorder) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}

var student = models.User{Email: "s@x.io", FullName: "Sara"}

type fixture struct {
	router *mux.Router
	repos  *repos.Repos
	index  *fakeIndex
	events *recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	r := repos.New(db, logger.Nop())
	require.NoError(t, r.Users.Create(context.Background(), nil, &student))
	f := &fixture{repos: r, index: &fakeIndex{indexed: map[int]models.Course{}}, events: &recorder{}}
	h := NewHandler(db, r, counter.NewMemory(), f.index, f.events, listing.DefaultPageSize, logger.Nop())

	router := mux.NewRouter()
	router.HandleFunc("/courses", h.List).Methods(http.MethodGet)
	router.HandleFunc("/courses", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/courses/browse", h.Browse).Methods(http.MethodGet)
	router.HandleFunc("/courses/search", h.Search).Methods(http.MethodGet)
	router.HandleFunc("/courses/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/courses/{id:[0-9]+}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/courses/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/courses/{courseID:[0-9]+}/enroll", h.Enroll).Methods(http.MethodPost)
	router.HandleFunc("/courses/{courseID:[0-9]+}/enroll", h.Unenroll).Methods(http.MethodDelete)
	router.HandleFunc("/me/courses", h.Mine).Methods(http.MethodGet)
	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), student))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		cat := "Programming"
		if i%3 == 0 {
			cat = "Math"
		}
		require.NoError(t, f.repos.Courses.Create(context.Background(), nil, &models.Course{
			ID:            i,
			Title:         fmt.Sprintf("Course %02d", i),
			CourseCode:    fmt.Sprintf("CS%03d", i),
			CategoryArray: []string{cat},
			IsPublic:      i != 1,
			Level:         "Beginner",
		}))
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	f := setup(t)
	f.seed(t, 4)

	rec := f.do(t, http.MethodPost, "/courses", `{"title":"Compilers","courseCode":"CS401","members":50,"lectures":12,"noOfQuizzes":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 5, c.ID)
	assert.Equal(t, 0, c.Members)
	assert.Equal(t, 0, c.Lectures, "counters start at zero")
	assert.Equal(t, 0, c.NoOfQuizzes)
	assert.Contains(t, f.index.indexed, 5)

	rec = f.do(t, http.MethodPost, "/courses", `{"courseCode":"CS402","creditHours":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title")
	assert.Contains(t, rec.Body.String(), "creditHours")
}

func TestAdminListPages(t *testing.T) {
	f := setup(t)
	f.seed(t, 12)

	var page listing.Page[models.Course]
	rec := f.do(t, http.MethodGet, "/courses?page=2", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)

	rec = f.do(t, http.MethodGet, "/courses?q=cs01", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Filtered)
	assert.Equal(t, 1, page.Page)
}

func TestBrowseWindow(t *testing.T) {
	f := setup(t)
	f.seed(t, 14)

	var res browseResult
	rec := f.do(t, http.MethodGet, "/courses/browse", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 13, res.Filtered, "private course hidden")
	assert.Len(t, res.Items, 10)
	assert.True(t, res.More)
	assert.Equal(t, []string{"Programming", "Math"}, res.Categories)

	rec = f.do(t, http.MethodGet, "/courses/browse?shown=10", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 10, res.Start)
	assert.Equal(t, 13, res.End)
	assert.False(t, res.More)

	rec = f.do(t, http.MethodGet, "/courses/browse?filter=math", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 4, res.Filtered)

	rec = f.do(t, http.MethodGet, "/courses/browse?level=Expert", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Filtered)
	assert.NotNil(t, res.Items)
}

func TestUpdateDeleteAndSearch(t *testing.T) {
	f := setup(t)
	f.seed(t, 2)
	require.NoError(t, f.repos.Progress.Save(context.Background(), nil, &models.CourseProgress{UserEmail: "s@x.io", CourseID: 2, CurrentlyEnrolled: true}))

	rec := f.do(t, http.MethodPut, "/courses/2", `{"title":"Algorithms","courseCode":"CS002"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Algorithms", f.index.indexed[2].Title)
	require.Len(t, f.events.msgs, 1)
	assert.Equal(t, kfka.TopicCourses, f.events.msgs[0].Topic)

	rec = f.do(t, http.MethodGet, "/courses/search?q=algo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Algorithms")

	rec = f.do(t, http.MethodDelete, "/courses/2", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int{2}, f.index.deleted)

	rec = f.do(t, http.MethodGet, "/courses/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodPut, "/courses/2", `{"title":"x","courseCode":"y"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollOnceThenUnenroll(t *testing.T) {
	f := setup(t)
	f.seed(t, 3)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/courses/3/enroll", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/courses/3/enroll", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	u, err := f.repos.Users.Get(ctx, nil, "s@x.io")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, u.EnrolledCourses)
	c, err := f.repos.Courses.Get(ctx, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Members)

	rec = f.do(t, http.MethodGet, "/me/courses", "")
	assert.Contains(t, rec.Body.String(), `"courseId":3`)

	rec = f.do(t, http.MethodDelete, "/courses/3/enroll", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	u, err = f.repos.Users.Get(ctx, nil, "s@x.io")
	require.NoError(t, err)
	assert.Empty(t, u.EnrolledCourses)
	c, _ = f.repos.Courses.Get(ctx, nil, 3)
	assert.Equal(t, 0, c.Members)

	rec = f.do(t, http.MethodPost, "/courses/99/enroll", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
