package quizzes

import (
	"strings"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

func level(name string) listing.Filter[models.Quiz] {
	return listing.Filter[models.Quiz]{
		Name:  name,
		Match: func(q models.Quiz) bool { return strings.EqualFold(q.Level, name) },
	}
}

// Screen is the admin quiz list of one course. Pages start at 1.
func Screen(pageSize int) listing.Screen[models.Quiz] {
	return listing.Screen[models.Quiz]{
		Search: []listing.Field[models.Quiz]{
			func(q models.Quiz) string { return q.Title },
			func(q models.Quiz) string { return q.Description },
		},
		Filters: []listing.Filter[models.Quiz]{
			{Name: "All Quizzes"},
			{Name: "Active", Match: func(q models.Quiz) bool { return q.Active }},
			{Name: "Inactive", Match: func(q models.Quiz) bool { return !q.Active }},
			level("Beginner"),
			level("Intermediate"),
			level("Advanced"),
			level("Expert"),
		},
		Sorts: []listing.Sort[models.Quiz]{
			{Name: "Order", Compare: listing.Asc(func(q models.Quiz) int { return q.OrderIndex })},
			{Name: "Title", Compare: listing.Fold(func(q models.Quiz) string { return q.Title })},
		},
		PageSize: pageSize,
		Base:     1,
	}
}
