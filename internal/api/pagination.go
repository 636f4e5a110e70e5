package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 100
	maxPageSize     = 100
)

// pageParams reads page/page_size query parameters and translates them to an
// offset/limit pair. Page numbering starts at 1; page_size is clamped to
// 1..100 and defaults to 100.
func pageParams(r *http.Request) (offset, limit int) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}

	size := defaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			size = n
		}
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return (page - 1) * size, size
}
