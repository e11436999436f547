package listing

import "sync"

// Session holds the state of one open list: the unfiltered fetch result, the
// active query and the current page. Any change to the search, filter, sort
// or data restarts at the first page.
type Session[T any] struct {
	mu       sync.Mutex
	screen   Screen[T]
	items    []T
	query    Query
	filtered []T
}

func NewSession[T any](screen Screen[T], items []T) *Session[T] {
	s := &Session[T]{screen: screen}
	s.items = items
	s.query.Page = screen.base()
	s.filtered, _ = screen.Apply(items, s.query)
	return s
}

func (s *Session[T]) SetItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.reset()
}

func (s *Session[T]) SetSearch(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Search = search
	s.reset()
}

func (s *Session[T]) SetFilter(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.screen.filter(name); err != nil {
		return err
	}
	s.query.Filter = name
	s.reset()
	return nil
}

func (s *Session[T]) SetSort(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.screen.sort(name); err != nil {
		return err
	}
	s.query.Sort = name
	s.reset()
	return nil
}

// Next advances one page and reports whether it moved.
func (s *Session[T]) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.screen.base() + TotalPages(len(s.filtered), s.screen.size()) - 1
	if s.query.Page >= last {
		return false
	}
	s.query.Page++
	return true
}

func (s *Session[T]) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query.Page <= s.screen.base() {
		return false
	}
	s.query.Page--
	return true
}

// GoTo jumps to page, clamping into range.
func (s *Session[T]) GoTo(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Page = Clamp(page, s.screen.base(), TotalPages(len(s.filtered), s.screen.size()))
}

func (s *Session[T]) Current() Page[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.screen.paginate(s.filtered, s.query.Page)
	p.Total = len(s.items)
	return p
}

func (s *Session[T]) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Session[T]) reset() {
	s.query.Page = s.screen.base()
	s.filtered, _ = s.screen.Apply(s.items, s.query)
}
