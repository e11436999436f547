package listing

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sowp-lms/pkg/apierr"
)

// Cursor marks the last item of a page ordered by (At desc, ID desc). It is
// the startAfter position of the next page.
type Cursor struct {
	At time.Time
	ID string
}

type CursorPage[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
	// Done is set once a page comes back shorter than the limit.
	Done bool `json:"done"`
}

func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.At.UnixNano(), 10) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode. The empty token means
// "from the start" and yields nil.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, badCursor(err)
	}
	at, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, badCursor(fmt.Errorf("missing id"))
	}
	nanos, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return nil, badCursor(err)
	}
	return &Cursor{At: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// NewCursorPage wraps a fetched page. key gives the cursor of an item.
func NewCursorPage[T any](items []T, limit int, key func(T) Cursor) CursorPage[T] {
	if items == nil {
		items = []T{}
	}
	p := CursorPage[T]{Items: items, Done: len(items) < limit}
	if len(items) > 0 && !p.Done {
		p.Next = key(items[len(items)-1]).Encode()
	}
	return p
}

func badCursor(err error) error {
	return apierr.Validation("invalid cursor: "+err.Error(), map[string]string{"after": "invalid cursor"})
}
