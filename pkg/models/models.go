package models

import (
	"strconv"
	"time"
)

const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"

	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type Course struct {
	ID              int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Illustration    string    `json:"illustration"`
	Title           string    `gorm:"not null" json:"title" validate:"required"`
	ShortTitle      string    `json:"shortTitle"`
	CourseCode      string    `gorm:"index" json:"courseCode" validate:"required"`
	Instructor      string    `json:"instructor"`
	Members         int       `json:"members"`
	Description     string    `json:"description"`
	Duration        string    `json:"duration"`
	CategoryArray   []string  `gorm:"serializer:json" json:"categoryArray"`
	DepartmentArray []string  `gorm:"serializer:json" json:"departmentArray"`
	Outline         string    `json:"outline"`
	IsPublic        bool      `json:"isPublic"`
	Lectures        int       `json:"lectures" validate:"gte=0"`
	Semester        string    `json:"semester"`
	Tags            []string  `gorm:"serializer:json" json:"tags"`
	PreRequisite    []string  `gorm:"serializer:json" json:"preRequisite"`
	FollowUp        []string  `gorm:"serializer:json" json:"followUp"`
	CreditHours     int       `json:"creditHours" validate:"gte=0,lte=6"`
	IsLab           bool      `json:"isLab"`
	IsComputer      bool      `json:"isComputer"`
	Language        string    `json:"language"`
	NoOfQuizzes     int       `json:"noOfQuizzes"`
	NoOfAssignments int       `json:"noOfAssignments"`
	Level           string    `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced Expert"`
	IsPaid          bool      `json:"isPaid"`
	AvgCourseRating float64   `json:"avgCourseRating"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Key is the document key of the course.
func (c Course) Key() string { return strconv.Itoa(c.ID) }

type Topic struct {
	CourseID    int       `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	OrderIndex  int       `gorm:"primaryKey;autoIncrement:false" json:"orderIndex" validate:"gte=0"`
	TopicID     int       `gorm:"index" json:"topicId"`
	Name        string    `gorm:"not null" json:"name" validate:"required"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	VideoID     string    `json:"videoID"`
	IsPublic    bool      `json:"isPublic"`
	Tags        string    `json:"tags"`
	Categories  string    `json:"categories"`
	Views       int       `json:"views"`
	Semester    string    `json:"semester"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key is the document key of the topic inside its course.
func (t Topic) Key() string { return strconv.Itoa(t.OrderIndex) }

type Assignment struct {
	CourseID     int       `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	ID           int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Semester     string    `json:"semester"`
	OrderIndex   int       `json:"orderIndex"`
	Title        string    `gorm:"not null" json:"title" validate:"required"`
	Description  string    `json:"description"`
	Score        float64   `json:"score" validate:"gte=0"`
	PassingScore float64   `json:"passingScore" validate:"gte=0,ltefield=Score"`
	Base64Images []string  `gorm:"serializer:json" json:"base64Images"`
	Tags         []string  `gorm:"serializer:json" json:"tags"`
	Categories   []string  `gorm:"serializer:json" json:"categories"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a Assignment) HasImages() bool { return len(a.Base64Images) > 0 }

type AssignmentAttempt struct {
	AttemptID           string     `gorm:"primaryKey" json:"attemptId"`
	UserEmail           string     `gorm:"index;not null" json:"userEmail"`
	AssignmentID        int        `gorm:"index" json:"assignmentId"`
	AssignmentTitle     string     `json:"assignmentTitle"`
	CourseID            int        `gorm:"index" json:"courseId"`
	Checked             bool       `json:"checked"`
	MaxScore            int        `json:"maxScore"`
	Score               int        `json:"score"`
	Status              string     `json:"status"`
	SubmissionTimestamp time.Time  `json:"submissionTimestamp"`
	SubmittedImages     []string   `gorm:"serializer:json" json:"submittedImages"`
	Feedback            string     `json:"feedback"`
	GradedAt            *time.Time `json:"gradedAt"`
}

// Ref is the path other documents use to point at this attempt.
func (a AssignmentAttempt) Ref() string {
	return "User/" + a.UserEmail + "/AssignmentAttempts/" + a.AttemptID
}

type UncheckedAssignment struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	AssignmentTitle string    `json:"assignmentTitle"`
	UserEmail       string    `json:"userEmail"`
	AttemptRef      string    `gorm:"not null" json:"assignmentAttemptRef"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
}

type Quiz struct {
	CourseID       int        `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	QuizID         int        `gorm:"primaryKey;autoIncrement:false" json:"quizId"`
	Title          string     `gorm:"not null" json:"title" validate:"required"`
	Description    string     `json:"description"`
	Active         bool       `json:"active"`
	PassingScore   int        `json:"passingScore" validate:"gte=0,lte=100"`
	TotalQuestions int        `json:"totalQuestions"`
	Semester       string     `json:"semester"`
	Level          string     `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced Expert"`
	Tags           string     `json:"tags"`
	Categories     string     `json:"categories"`
	OrderIndex     int        `json:"orderIndex"`
	Questions      []Question `gorm:"foreignKey:CourseID,QuizID;references:CourseID,QuizID" json:"questions,omitempty" validate:"dive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Question struct {
	CourseID      int      `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	QuizID        int      `gorm:"primaryKey;autoIncrement:false" json:"quizId"`
	QuestionID    int      `gorm:"primaryKey;autoIncrement:false" json:"questionId"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `gorm:"serializer:json" json:"options" validate:"min=2"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	OrderIndex    int      `json:"orderIndex"`
}

type QuizAttempt struct {
	AttemptID      string    `gorm:"primaryKey" json:"attemptId"`
	UserEmail      string    `gorm:"index;not null" json:"userEmail"`
	QuizID         int       `json:"quizId"`
	CourseID       int       `json:"courseId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	Passed         bool      `json:"passed"`
	PassingScore   float64   `json:"passingScore"`
	Completed      bool      `json:"completed"`
	CompletedAt    time.Time `json:"completedAt"`
	TimeTaken      int64     `json:"timeTaken"`
}

type User struct {
	Email            string    `gorm:"primaryKey" json:"email"`
	UserID           string    `json:"userId"`
	FullName         string    `json:"fullName"`
	Gender           string    `json:"gender"`
	Degree           string    `json:"degree"`
	Semester         string    `json:"semester"`
	Phone            string    `json:"phone"`
	Photo            string    `json:"photo"`
	Role             string    `gorm:"default:student" json:"role"`
	Birthdate        string    `json:"birthdate"`
	Notification     bool      `json:"notification"`
	IsVerified       bool      `json:"isVerified"`
	EnrolledCourses  []int     `gorm:"serializer:json" json:"enrolledCourses"`
	CompletedCourses []int     `gorm:"serializer:json" json:"completedCourses"`
	Favorites        []int     `gorm:"serializer:json" json:"favorites"`
	QuizzesAvg       float64   `json:"quizzesAvg"`
	AssignmentAvg    float64   `json:"assignmentAvg"`
	CreatedAt        time.Time `json:"createdAt"`
}

// IsAdmin treats a missing role as a student.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type DeletedUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index" json:"email"`
	FullName  string    `json:"fullName"`
	Reason    string    `json:"reason"`
	DeletedAt time.Time `json:"deletedAt"`
}

type Notification struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false" json:"notificationId"`
	Content   string    `gorm:"not null" json:"content" validate:"required"`
	UserEmail string    `gorm:"index" json:"userEmail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Expiry    time.Time `json:"expiry"`
}

func (n Notification) Expired(now time.Time) bool {
	return !n.Expiry.IsZero() && !now.Before(n.Expiry)
}

type CourseProgress struct {
	UserEmail         string     `gorm:"primaryKey" json:"userEmail"`
	CourseID          int        `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	CourseName        string     `json:"courseName"`
	EnrolledAt        time.Time  `json:"enrolledAt"`
	CurrentlyEnrolled bool       `json:"currentlyEnrolled"`
	ViewedTopics      []int      `gorm:"serializer:json" json:"viewedTopics"`
	UserRating        float32    `json:"userRating"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completedAt"`
	UnenrolledAt      *time.Time `json:"unenrolledAt"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  int       `gorm:"index" json:"courseId"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// All lists every model stored in the remote database.
func All() []any {
	return []any{
		&Course{},
		&Topic{},
		&Assignment{},
		&AssignmentAttempt{},
		&UncheckedAssignment{},
		&Quiz{},
		&Question{},
		&QuizAttempt{},
		&User{},
		&DeletedUser{},
		&Notification{},
		&CourseProgress{},
		&ChatMessage{},
	}
}
