package shared

import (
	"net/http"
	"strconv"
)

// Page describes offset pagination parsed from a request.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads page/limit query parameters with sane bounds.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) Page {
	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	return Page{Limit: limit, Offset: (page - 1) * limit}
}
