package assignments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/grading"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/testdb"
)

type fixture struct {
	router *mux.Router
	repos  *repos.Repos
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	r := repos.New(db, logger.Nop())
	require.NoError(t, r.Courses.Create(context.Background(), nil, &models.Course{ID: 1, Title: "DSA", CourseCode: "CS201"}))
	g := grading.NewService(db, r, kfka.Discard{}, nil, logger.Nop())
	h := NewHandler(db, r, counter.NewMemory(), g, listing.DefaultPageSize, logger.Nop())

	router := mux.NewRouter()
	router.HandleFunc("/courses/{courseID}/assignments", h.List).Methods(http.MethodGet)
	router.HandleFunc("/courses/{courseID}/assignments", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/courses/{courseID}/assignments/{assignmentID}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/courses/{courseID}/assignments/{assignmentID}/submit", h.Submit).Methods(http.MethodPost)
	return &fixture{router: router, repos: r}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), models.User{Email: "s@x.io"}))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// seed stores 25 assignments; 12 of them score below 70.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	for i := 1; i <= 25; i++ {
		score := 95.0
		switch {
		case i <= 12:
			score = 50
		case i <= 20:
			score = 80
		}
		a := &models.Assignment{CourseID: 1, ID: i, OrderIndex: i, Title: fmt.Sprintf("A%02d", i), Score: score}
		if i%5 == 0 {
			a.Base64Images = []string{"img"}
		}
		require.NoError(t, f.repos.Assignments.Create(context.Background(), nil, a))
	}
}

func (f *fixture) page(t *testing.T, target string) listing.Page[models.Assignment] {
	t.Helper()
	rec := f.do(http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p listing.Page[models.Assignment]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestPagesOfTwentyFive(t *testing.T) {
	f := setup(t)
	f.seed(t)

	var sizes []int
	for page := 1; page <= 3; page++ {
		sizes = append(sizes, len(f.page(t, fmt.Sprintf("/courses/1/assignments?page=%d", page)).Items))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)

	low := f.page(t, "/courses/1/assignments?filter=Low+Score+(%3C70)")
	assert.Equal(t, 1, low.Page)
	assert.Equal(t, 12, low.Filtered)
	assert.Equal(t, 2, low.TotalPages)
	assert.Len(t, low.Items, 10)
	assert.Len(t, f.page(t, "/courses/1/assignments?filter=Low+Score+(%3C70)&page=2").Items, 2)

	assert.Equal(t, 5, f.page(t, "/courses/1/assignments?filter=high+score+(90%2B)").Filtered)
	assert.Equal(t, 5, f.page(t, "/courses/1/assignments?filter=With+Images").Filtered)
	assert.Equal(t, 20, f.page(t, "/courses/1/assignments?filter=No+Images").Filtered)

	top := f.page(t, "/courses/1/assignments?sort=Score")
	assert.Equal(t, 95.0, top.Items[0].Score)
	assert.Equal(t, "A21", top.Items[0].Title, "ties keep course order")
}

func TestSessionResetsOnFilter(t *testing.T) {
	f := setup(t)
	f.seed(t)
	all, err := f.repos.Assignments.ListByCourse(context.Background(), nil, 1)
	require.NoError(t, err)

	s := listing.NewSession(Screen(10), all)
	require.True(t, s.Next())
	require.True(t, s.Next())
	assert.Equal(t, 3, s.Current().Page)

	require.NoError(t, s.SetFilter("Low Score (<70)"))
	cur := s.Current()
	assert.Equal(t, 1, cur.Page)
	assert.Len(t, cur.Items, 10)
	require.True(t, s.Next())
	assert.Len(t, s.Current().Items, 2)
}

func TestCreateNumbersPerCourse(t *testing.T) {
	f := setup(t)

	for want := 1; want <= 2; want++ {
		rec := f.do(http.MethodPost, "/courses/1/assignments", `{"title":"Lab","score":10,"passingScore":5}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var a models.Assignment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		assert.Equal(t, want, a.ID)
	}

	rec := f.do(http.MethodPost, "/courses/1/assignments", `{"title":"Lab","score":10,"passingScore":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "passingScore")

	course, err := f.repos.Courses.Get(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, course.NoOfAssignments, "rejected create leaves the count alone")

	rec = f.do(http.MethodPost, "/courses/2/assignments", `{"title":"Lab","score":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitQueuesForGrading(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.repos.Assignments.Create(context.Background(), nil, &models.Assignment{CourseID: 1, ID: 1, Title: "Lab", Score: 20}))

	rec := f.do(http.MethodPost, "/courses/1/assignments/1/submit", `{"images":["b64"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a models.AssignmentAttempt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, 20, a.MaxScore)
	assert.Equal(t, models.StatusSubmitted, a.Status)

	n, err := f.repos.Unchecked.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rec = f.do(http.MethodPost, "/courses/1/assignments/1/submit", `{"images":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
