package assignments

import (
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

// Screen is the admin assignment list of one course. Pages start at 1.
func Screen(pageSize int) listing.Screen[models.Assignment] {
	return listing.Screen[models.Assignment]{
		Search: []listing.Field[models.Assignment]{
			func(a models.Assignment) string { return a.Title },
			func(a models.Assignment) string { return a.Description },
		},
		Filters: []listing.Filter[models.Assignment]{
			{Name: "All Assignments"},
			{Name: "High Score (90+)", Match: func(a models.Assignment) bool { return a.Score >= 90 }},
			{Name: "Medium Score (70-89)", Match: func(a models.Assignment) bool { return a.Score >= 70 && a.Score < 90 }},
			{Name: "Low Score (<70)", Match: func(a models.Assignment) bool { return a.Score < 70 }},
			{Name: "With Images", Match: models.Assignment.HasImages},
			{Name: "No Images", Match: func(a models.Assignment) bool { return !a.HasImages() }},
		},
		Sorts: []listing.Sort[models.Assignment]{
			{Name: "Order", Compare: listing.Asc(func(a models.Assignment) int { return a.OrderIndex })},
			{Name: "Title", Compare: listing.Fold(func(a models.Assignment) string { return a.Title })},
			{Name: "Score", Compare: listing.Desc(func(a models.Assignment) float64 { return a.Score })},
		},
		PageSize: pageSize,
		Base:     1,
	}
}
