package listing

// Window is one "load more" step: Items were appended at [Start, End) of the
// list already shown.
type Window[T any] struct {
	Items    []T  `json:"items"`
	Start    int  `json:"start"`
	End      int  `json:"end"`
	Filtered int  `json:"filtered"`
	More     bool `json:"more"`
}

// Window returns the next page-sized range after the first shown items.
// shown <= 0 is a fresh load.
func (s Screen[T]) Window(items []T, q Query, shown int) (Window[T], error) {
	filtered, err := s.Apply(items, q)
	if err != nil {
		return Window[T]{}, err
	}
	shown = max(0, min(shown, len(filtered)))
	end := min(shown+s.size(), len(filtered))
	return Window[T]{
		Items:    filtered[shown:end],
		Start:    shown,
		End:      end,
		Filtered: len(filtered),
		More:     end < len(filtered),
	}, nil
}
