package topics

import (
	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

// Screen is the admin topic list of one course. Pages start at 0 and the
// only order is the course order.
func Screen(pageSize int) listing.Screen[models.Topic] {
	return listing.Screen[models.Topic]{
		Search: []listing.Field[models.Topic]{
			func(t models.Topic) string { return t.Name },
			func(t models.Topic) string { return t.Description },
			func(t models.Topic) string { return t.Tags },
			func(t models.Topic) string { return t.Categories },
			func(t models.Topic) string { return t.Semester },
		},
		Filters: []listing.Filter[models.Topic]{{Name: "All"}},
		Sorts: []listing.Sort[models.Topic]{
			{Name: "Order", Compare: listing.Asc(func(t models.Topic) int { return t.OrderIndex })},
		},
		PageSize: pageSize,
		Base:     0,
	}
}
