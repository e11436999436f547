package users

import (
	"time"

	"sowp-lms/pkg/listing"
	"sowp-lms/pkg/models"
)

// Screen is the admin user list. Pages start at 1.
func Screen(pageSize int) listing.Screen[models.User] {
	return listing.Screen[models.User]{
		Search: []listing.Field[models.User]{
			func(u models.User) string { return u.FullName },
			func(u models.User) string { return u.Email },
		},
		Filters: []listing.Filter[models.User]{
			{Name: "All"},
			{Name: "Verified", Match: func(u models.User) bool { return u.IsVerified }},
			{Name: "UnVerified", Match: func(u models.User) bool { return !u.IsVerified }},
		},
		Sorts: []listing.Sort[models.User]{
			{Name: "Name", Compare: listing.Fold(func(u models.User) string { return u.FullName })},
			{Name: "Email", Compare: listing.Fold(func(u models.User) string { return u.Email })},
			{Name: "Semester", Compare: listing.Fold(func(u models.User) string { return u.Semester })},
			{Name: "Gender", Compare: listing.Fold(func(u models.User) string { return u.Gender })},
			{Name: "Degree", Compare: listing.Fold(func(u models.User) string { return u.Degree })},
			{Name: "Date Created", Compare: listing.Newest(func(u models.User) time.Time { return u.CreatedAt })},
		},
		PageSize: pageSize,
		Base:     1,
	}
}
