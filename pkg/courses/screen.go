package courses

import (
	"slices"
	"strings"
	"time"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

// AdminScreen is the admin course list. Pages start at 1.
func AdminScreen(pageSize int) listing.Screen[models.Course] {
	return listing.Screen[models.Course]{
		Search: []listing.Field[models.Course]{
			func(c models.Course) string { return c.Title },
			func(c models.Course) string { return c.CourseCode },
			func(c models.Course) string { return c.Instructor },
			func(c models.Course) string { return c.Semester },
			func(c models.Course) string { return c.Level },
			func(c models.Course) string { return listing.Joined(c.Tags) },
		},
		Filters: []listing.Filter[models.Course]{{Name: "All"}},
		Sorts: []listing.Sort[models.Course]{
			{Name: "Title", Compare: listing.Fold(func(c models.Course) string { return c.Title })},
			{Name: "Newest", Compare: listing.Newest(func(c models.Course) time.Time { return c.CreatedAt })},
		},
		PageSize: pageSize,
		Base:     1,
	}
}

// BrowseScreen is the learner "load more" list. Its filters are "All" plus
// one per category found in courses.
func BrowseScreen(courses []models.Course, pageSize int) listing.Screen[models.Course] {
	filters := []listing.Filter[models.Course]{{Name: "All"}}
	for _, cat := range Categories(courses) {
		filters = append(filters, listing.Filter[models.Course]{
			Name: cat,
			Match: func(c models.Course) bool {
				return slices.ContainsFunc(c.CategoryArray, func(s string) bool { return strings.EqualFold(s, cat) })
			},
		})
	}
	return listing.Screen[models.Course]{
		Search: []listing.Field[models.Course]{
			func(c models.Course) string { return c.Title },
			func(c models.Course) string { return c.Description },
			func(c models.Course) string { return c.Instructor },
		},
		Filters: filters,
		Sorts: []listing.Sort[models.Course]{
			{Name: "Title", Compare: listing.Fold(func(c models.Course) string { return c.Title })},
		},
		PageSize: pageSize,
	}
}

// Categories lists the distinct categories in first-seen order, ignoring case.
func Categories(courses []models.Course) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range courses {
		for _, cat := range c.CategoryArray {
			key := strings.ToLower(strings.TrimSpace(cat))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(cat))
		}
	}
	return out
}

// visible keeps public courses, optionally of one level.
func visible(courses []models.Course, level string) []models.Course {
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if !c.IsPublic {
			continue
		}
		if level != "" && !strings.EqualFold(c.Level, level) {
			continue
		}
		out = append(out, c)
	}
	return out
}
