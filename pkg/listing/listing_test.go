package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/apierr"
)

type item struct {
	title string
	body  string
	score int
	at    time.Time
}

func scoreScreen(base int) Screen[item] {
	return Screen[item]{
		Search: []Field[item]{
			func(i item) string { return i.title },
			func(i item) string { return i.body },
		},
		Filters: []Filter[item]{
			{Name: "All"},
			{Name: "Low", Match: func(i item) bool { return i.score < 70 }},
			{Name: "High", Match: func(i item) bool { return i.score >= 90 }},
		},
		Sorts: []Sort[item]{
			{Name: "Fetch"},
			{Name: "Title", Compare: Fold(func(i item) string { return i.title })},
			{Name: "Score", Compare: Desc(func(i item) int { return i.score })},
			{Name: "Newest", Compare: Newest(func(i item) time.Time { return i.at })},
		},
		PageSize: 10,
		Base:     base,
	}
}

// makeItems returns n items, the first low of them scoring below 70.
func makeItems(n, low int) []item {
	out := make([]item, n)
	for i := range out {
		score := 95
		if i < low {
			score = 50
		}
		out[i] = item{title: fmt.Sprintf("Item %02d", i), score: score, at: time.Unix(int64(i), 0)}
	}
	return out
}

func pageSizes[T any](t *testing.T, s Screen[T], items []T, q Query) []int {
	t.Helper()
	first, err := s.Run(items, q)
	require.NoError(t, err)
	var sizes []int
	for p := s.base(); p < s.base()+first.TotalPages; p++ {
		q.Page = p
		page, err := s.Run(items, q)
		require.NoError(t, err)
		sizes = append(sizes, len(page.Items))
	}
	return sizes
}

func TestRunPageSizes(t *testing.T) {
	s := scoreScreen(1)
	items := makeItems(25, 12)

	assert.Equal(t, []int{10, 10, 5}, pageSizes(t, s, items, Query{}))
	assert.Equal(t, []int{10, 2}, pageSizes(t, s, items, Query{Filter: "Low"}))
}

func TestRunEmptySearchMatchesAll(t *testing.T) {
	s := scoreScreen(0)
	for _, n := range []int{0, 1, 9, 10, 11, 37} {
		p, err := s.Run(makeItems(n, 0), Query{Search: "   "})
		require.NoError(t, err)
		assert.Equal(t, n, p.Filtered)
		assert.Equal(t, n, p.Total)
	}
}

func TestRunPageSizesSumToFiltered(t *testing.T) {
	s := scoreScreen(0)
	for _, n := range []int{1, 7, 10, 20, 21, 99} {
		sizes := pageSizes(t, s, makeItems(n, 0), Query{})
		sum := 0
		for _, sz := range sizes {
			sum += sz
		}
		assert.Equal(t, n, sum)
		last := n % 10
		if last == 0 {
			last = 10
		}
		assert.Equal(t, last, sizes[len(sizes)-1], "n=%d", n)
	}
}

func TestRunSearchIsCaseInsensitive(t *testing.T) {
	s := scoreScreen(1)
	items := []item{
		{title: "Binary Trees"},
		{title: "Graphs", body: "shortest paths over TREES"},
		{title: "Sorting"},
	}
	p, err := s.Run(items, Query{Search: "tReE"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Filtered)
	assert.Equal(t, 3, p.Total)
}

func TestRunClampsPage(t *testing.T) {
	s := scoreScreen(1)
	items := makeItems(25, 0)

	p, err := s.Run(items, Query{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Len(t, p.Items, 5)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p, err = s.Run(items, Query{Page: -4})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.False(t, p.HasPrev)
}

func TestRunEmptyResult(t *testing.T) {
	s := scoreScreen(0)
	p, err := s.Run(makeItems(5, 0), Query{Search: "nothing like this"})
	require.NoError(t, err)
	assert.True(t, p.Empty)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.Page)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestRunSortsStable(t *testing.T) {
	s := scoreScreen(1)
	items := []item{
		{title: "b", score: 80},
		{title: "A", score: 90},
		{title: "c", score: 80},
	}
	p, err := s.Run(items, Query{Sort: "score"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b", "c"}, titles(p.Items))

	p, err = s.Run(items, Query{Sort: "Title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b", "c"}, titles(p.Items))

	p, err = s.Run(items, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "A", "c"}, titles(p.Items))
}

func TestRunDoesNotReorderInput(t *testing.T) {
	s := scoreScreen(1)
	items := makeItems(5, 0)
	_, err := s.Run(items, Query{Sort: "Newest"})
	require.NoError(t, err)
	assert.Equal(t, "Item 00", items[0].title)
}

func TestRunUnknownNames(t *testing.T) {
	s := scoreScreen(1)
	_, err := s.Run(nil, Query{Filter: "Bogus"})
	assert.True(t, apierr.Is(err, apierr.CodeValidation))
	_, err = s.Run(nil, Query{Sort: "Bogus"})
	assert.True(t, apierr.Is(err, apierr.CodeValidation))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 3, TotalPages(25, 0))
}

func titles(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.title
	}
	return out
}
