package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFilterResetsPage(t *testing.T) {
	s := NewSession(scoreScreen(1), makeItems(25, 12))

	require.True(t, s.Next())
	require.True(t, s.Next())
	assert.False(t, s.Next())
	assert.Equal(t, 3, s.Current().Page)
	assert.Len(t, s.Current().Items, 5)

	require.NoError(t, s.SetFilter("Low"))
	p := s.Current()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 12, p.Filtered)
}

func TestSessionSearchAndSortReset(t *testing.T) {
	s := NewSession(scoreScreen(0), makeItems(30, 0))
	s.GoTo(2)
	assert.Equal(t, 2, s.Current().Page)

	s.SetSearch("item")
	assert.Equal(t, 0, s.Current().Page)

	s.GoTo(1)
	require.NoError(t, s.SetSort("Newest"))
	assert.Equal(t, 0, s.Current().Page)
	assert.Equal(t, "Item 29", s.Current().Items[0].title)

	s.GoTo(1)
	s.SetItems(makeItems(3, 0))
	assert.Equal(t, 0, s.Current().Page)
	assert.Equal(t, 3, s.Current().Total)
}

func TestSessionRejectsUnknownFilter(t *testing.T) {
	s := NewSession(scoreScreen(1), makeItems(15, 0))
	s.Next()
	assert.Error(t, s.SetFilter("nope"))
	assert.Equal(t, 2, s.Current().Page)
	assert.Equal(t, "", s.Query().Filter)
}

func TestSessionPrevStopsAtBase(t *testing.T) {
	s := NewSession(scoreScreen(0), makeItems(5, 0))
	assert.False(t, s.Prev())
	assert.False(t, s.Next())
	s.GoTo(40)
	assert.Equal(t, 0, s.Current().Page)
}
