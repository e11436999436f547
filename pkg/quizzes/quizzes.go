package quizzes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

type Handler struct {
	db       *gorm.DB
	repos    *repos.Repos
	ids      counter.Counter
	pageSize int
	log      *logger.Logger
}

func NewHandler(db *gorm.DB, r *repos.Repos, ids counter.Counter, pageSize int, log *logger.Logger) *Handler {
	return &Handler{db: db, repos: r, ids: ids, pageSize: pageSize, log: log.With("handler", "quizzes")}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	all, err := h.repos.Quizzes.ListByCourse(r.Context(), nil, courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := Screen(h.pageSize).Run(all, response.ListQuery(r))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

// Get hides correct answers from learners.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.load(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if user, ok := middleware.UserFrom(r.Context()); !ok || !user.IsAdmin() {
		for i := range quiz.Questions {
			quiz.Questions[i].CorrectAnswer = ""
		}
	}
	response.JSON(w, http.StatusOK, quiz)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var quiz models.Quiz
	if err := response.Bind(r, &quiz); err != nil {
		response.Error(w, h.log, err)
		return
	}
	for i, q := range quiz.Questions {
		if !contains(q.Options, q.CorrectAnswer) {
			response.Error(w, h.log, apierr.Validation("correct answer must be one of the options",
				map[string]string{"questions": fmt.Sprintf("question %d has no matching option", i+1)}))
			return
		}
	}
	ctx := r.Context()
	if _, err := h.repos.Courses.Get(ctx, nil, courseID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := h.ids.Next(ctx, counter.QuizKey(courseID), func(ctx context.Context) (int, error) {
		return h.repos.Quizzes.MaxID(ctx, nil, courseID)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	quiz.CourseID = courseID
	quiz.QuizID = id
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.repos.Quizzes.Create(ctx, tx, &quiz); err != nil {
			return err
		}
		return h.repos.Courses.AddCounter(ctx, tx, courseID, repos.CourseQuizzes, 1)
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	h.log.Info("quiz created", "course", courseID, "quiz", id, "questions", quiz.TotalQuestions)
	response.JSON(w, http.StatusCreated, quiz)
}

type answer struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type attemptRequest struct {
	Answers   []answer `json:"answers"`
	TimeTaken int64    `json:"timeTaken" validate:"gte=0"`
}

type detail struct {
	QuestionID  int    `json:"questionId"`
	Correct     bool   `json:"correct"`
	UserAnswer  string `json:"userAnswer"`
	RightAnswer string `json:"rightAnswer"`
}

type attemptResult struct {
	Attempt models.QuizAttempt `json:"attempt"`
	Details []detail           `json:"details"`
}

// Attempt scores the caller's answers and stores the result. The score is
// the percentage of correct answers.
func (h *Handler) Attempt(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, h.log, apierr.Unauthorized())
		return
	}
	quiz, err := h.load(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if !quiz.Active {
		response.Error(w, h.log, apierr.Conflict("quiz %d is not active", quiz.QuizID))
		return
	}
	var req attemptRequest
	if err := response.Bind(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	given := make(map[int]string, len(req.Answers))
	for _, a := range req.Answers {
		given[a.QuestionID] = a.Answer
	}
	details := make([]detail, 0, len(quiz.Questions))
	correct := 0
	for _, q := range quiz.Questions {
		ans := given[q.QuestionID]
		ok := strings.TrimSpace(ans) == q.CorrectAnswer
		if ok {
			correct++
		}
		details = append(details, detail{QuestionID: q.QuestionID, Correct: ok, UserAnswer: ans, RightAnswer: q.CorrectAnswer})
	}
	score := 0
	if n := len(quiz.Questions); n > 0 {
		score = correct * 100 / n
	}
	attempt := models.QuizAttempt{
		AttemptID:      uuid.NewString(),
		UserEmail:      user.Email,
		QuizID:         quiz.QuizID,
		CourseID:       quiz.CourseID,
		QuizTitle:      quiz.Title,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
		Passed:         score >= quiz.PassingScore,
		PassingScore:   float64(quiz.PassingScore),
		Completed:      true,
		CompletedAt:    time.Now().UTC(),
		TimeTaken:      req.TimeTaken,
	}
	if err := h.repos.QuizAttempts.Create(r.Context(), nil, &attempt); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, attemptResult{Attempt: attempt, Details: details})
}

func (h *Handler) load(r *http.Request) (*models.Quiz, error) {
	courseID, err := response.IntVar(r, "courseID")
	if err != nil {
		return nil, err
	}
	quizID, err := response.IntVar(r, "quizID")
	if err != nil {
		return nil, err
	}
	return h.repos.Quizzes.Get(r.Context(), nil, courseID, quizID)
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
