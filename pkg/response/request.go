package response

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/listing"
)

// ListQuery reads q, filter, sort and page. A missing or malformed page is
// left at zero and clamps to the screen's first page.
func ListQuery(r *http.Request) listing.Query {
	v := r.URL.Query()
	page, _ := strconv.Atoi(v.Get("page"))
	return listing.Query{
		Search: v.Get("q"),
		Filter: v.Get("filter"),
		Sort:   v.Get("sort"),
		Page:   page,
	}
}

// IntVar parses a numeric route variable.
func IntVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.Validation("invalid "+name, map[string]string{name: "must be a number"})
	}
	return n, nil
}

// IntParam parses an optional numeric query parameter.
func IntParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}

func BoolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return b
}
