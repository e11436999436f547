package history

import (
	"time"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

// QuizScreen lists a learner's quiz attempts, newest first. Pages start at 0.
func QuizScreen(pageSize int) listing.Screen[models.QuizAttempt] {
	return listing.Screen[models.QuizAttempt]{
		Search: []listing.Field[models.QuizAttempt]{
			func(a models.QuizAttempt) string { return a.QuizTitle },
		},
		Filters: []listing.Filter[models.QuizAttempt]{
			{Name: "All"},
			{Name: "Passed", Match: func(a models.QuizAttempt) bool { return a.Passed }},
			{Name: "Failed", Match: func(a models.QuizAttempt) bool { return !a.Passed }},
		},
		Sorts: []listing.Sort[models.QuizAttempt]{
			{Name: "Date", Compare: listing.Newest(func(a models.QuizAttempt) time.Time { return a.CompletedAt })},
		},
		PageSize: pageSize,
	}
}

// AssignmentScreen lists a learner's submissions, newest first. Pages start at 0.
func AssignmentScreen(pageSize int) listing.Screen[models.AssignmentAttempt] {
	return listing.Screen[models.AssignmentAttempt]{
		Search: []listing.Field[models.AssignmentAttempt]{
			func(a models.AssignmentAttempt) string { return a.AssignmentTitle },
		},
		Filters: []listing.Filter[models.AssignmentAttempt]{
			{Name: "All"},
			{Name: "Graded", Match: func(a models.AssignmentAttempt) bool { return a.Checked }},
			{Name: "Pending", Match: func(a models.AssignmentAttempt) bool { return !a.Checked }},
		},
		Sorts: []listing.Sort[models.AssignmentAttempt]{
			{Name: "Date", Compare: listing.Newest(func(a models.AssignmentAttempt) time.Time { return a.SubmissionTimestamp })},
		},
		PageSize: pageSize,
	}
}
