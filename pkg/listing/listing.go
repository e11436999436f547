// Package listing implements the filter, sort and paginate chain used by every
// list endpoint. A Screen declares what a list can be searched, filtered and
// sorted by; Run applies a Query to the full, unordered fetch result.
package listing

import (
	"fmt"
	"slices"
	"strings"

	"sowp-lms/pkg/apierr"
)

const DefaultPageSize = 10

// Field extracts one searchable string from an item.
type Field[T any] func(T) string

// Filter is one entry of a screen's categorical filter enum. A nil Match
// accepts every item.
type Filter[T any] struct {
	Name  string
	Match func(T) bool
}

// Sort is one entry of a screen's sort enum. Compare follows cmp.Compare.
type Sort[T any] struct {
	Name    string
	Compare func(a, b T) int
}

type Screen[T any] struct {
	Search []Field[T]
	// Filters[0] is applied when the query names no filter.
	Filters []Filter[T]
	// Sorts[0] is applied when the query names no sort. With no sorts the
	// fetch order is kept.
	Sorts    []Sort[T]
	PageSize int
	// Base is the number of the first page, 0 or 1.
	Base int
}

type Query struct {
	Search string `json:"search"`
	Filter string `json:"filter"`
	Sort   string `json:"sort"`
	Page   int    `json:"page"`
}

type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	Filtered   int  `json:"filtered"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
	// Empty is set when nothing matched; callers show an empty state.
	Empty bool `json:"empty"`
}

func (s Screen[T]) size() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

func (s Screen[T]) base() int {
	if s.Base > 0 {
		return 1
	}
	return 0
}

// Apply filters and sorts items without touching the input slice.
func (s Screen[T]) Apply(items []T, q Query) ([]T, error) {
	filter, err := s.filter(q.Filter)
	if err != nil {
		return nil, err
	}
	order, err := s.sort(q.Sort)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if !s.matches(item, needle) {
			continue
		}
		if filter.Match != nil && !filter.Match(item) {
			continue
		}
		out = append(out, item)
	}
	if order.Compare != nil {
		slices.SortStableFunc(out, order.Compare)
	}
	return out, nil
}

// Run produces the requested page. Out-of-range pages are clamped.
func (s Screen[T]) Run(items []T, q Query) (Page[T], error) {
	filtered, err := s.Apply(items, q)
	if err != nil {
		return Page[T]{}, err
	}
	p := s.paginate(filtered, q.Page)
	p.Total = len(items)
	return p, nil
}

func (s Screen[T]) paginate(filtered []T, page int) Page[T] {
	size, base := s.size(), s.base()
	total := TotalPages(len(filtered), size)
	page = Clamp(page, base, total)

	start := (page - base) * size
	end := min(start+size, len(filtered))
	items := []T{}
	if start < len(filtered) {
		items = filtered[start:end]
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		TotalPages: total,
		PageSize:   size,
		Filtered:   len(filtered),
		HasPrev:    page > base,
		HasNext:    page < base+total-1,
		Empty:      len(filtered) == 0,
	}
}

func (s Screen[T]) matches(item T, needle string) bool {
	if needle == "" || len(s.Search) == 0 {
		return true
	}
	for _, field := range s.Search {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	return false
}

func (s Screen[T]) filter(name string) (Filter[T], error) {
	if len(s.Filters) == 0 {
		if name != "" {
			return Filter[T]{}, unknown("filter", name)
		}
		return Filter[T]{}, nil
	}
	if name == "" {
		return s.Filters[0], nil
	}
	for _, f := range s.Filters {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Filter[T]{}, unknown("filter", name)
}

func (s Screen[T]) sort(name string) (Sort[T], error) {
	if len(s.Sorts) == 0 {
		if name != "" {
			return Sort[T]{}, unknown("sort", name)
		}
		return Sort[T]{}, nil
	}
	if name == "" {
		return s.Sorts[0], nil
	}
	for _, o := range s.Sorts {
		if strings.EqualFold(o.Name, name) {
			return o, nil
		}
	}
	return Sort[T]{}, unknown("sort", name)
}

// FilterNames lists the filter enum in display order.
func (s Screen[T]) FilterNames() []string {
	names := make([]string, len(s.Filters))
	for i, f := range s.Filters {
		names[i] = f.Name
	}
	return names
}

func (s Screen[T]) SortNames() []string {
	names := make([]string, len(s.Sorts))
	for i, o := range s.Sorts {
		names[i] = o.Name
	}
	return names
}

func unknown(kind, name string) error {
	return apierr.Validation(fmt.Sprintf("unknown %s %q", kind, name), map[string]string{kind: "unknown value"})
}

// TotalPages is ceil(count/size), never less than one.
func TotalPages(count, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Clamp keeps page inside [base, base+totalPages-1].
func Clamp(page, base, totalPages int) int {
	if page < base {
		return base
	}
	if last := base + totalPages - 1; page > last {
		return last
	}
	return page
}
