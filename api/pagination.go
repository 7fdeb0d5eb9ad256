package api

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	defaultPageSize uint64 = 12
	maxPageSize     uint64 = 100
)

// Page is the pagination envelope wrapped around list results. Link
// fields are nil when there is no such page.
type Page struct {
	Count       uint64  `json:"count"`
	TotalPages  uint64  `json:"total_pages"`
	CurrentPage uint64  `json:"current_page"`
	PageSize    uint64  `json:"page_size"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	First       *string `json:"first"`
	Last        *string `json:"last"`
	Results     any     `json:"results"`
}

// parsePageParams reads page and page_size from the query string. Bad or
// missing values fall back to sane defaults; page_size is capped.
func parsePageParams(r *http.Request) (page, pageSize uint64) {
	page = 1
	pageSize = defaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err == nil && n > 0 {
			page = n
		}
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err == nil && n > 0 {
			pageSize = min(n, maxPageSize)
		}
	}

	return page, pageSize
}

// buildPage assembles the envelope for the given request URL. Navigation
// links preserve every other query parameter and the fragment.
func buildPage(requestURL *url.URL, count, page, pageSize uint64, results any) Page {
	totalPages := count / pageSize
	if count%pageSize != 0 {
		totalPages++
	}

	p := Page{
		Count:       count,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
		Next:        nil,
		Previous:    nil,
		First:       nil,
		Last:        nil,
		Results:     results,
	}

	if page < totalPages {
		p.Next = ptr(replaceQueryParam(requestURL, "page", strconv.FormatUint(page+1, 10)))
	}

	if page > 1 {
		if page == 2 {
			p.Previous = ptr(removeQueryParam(requestURL, "page"))
		} else {
			p.Previous = ptr(replaceQueryParam(requestURL, "page", strconv.FormatUint(page-1, 10)))
		}
	}

	if page > 1 && count > 0 {
		p.First = ptr(removeQueryParam(requestURL, "page"))
	}

	if count > 0 {
		p.Last = ptr(replaceQueryParam(requestURL, "page", strconv.FormatUint(totalPages, 10)))
	}

	return p
}

func replaceQueryParam(u *url.URL, key, value string) string {
	cloned := *u

	q := cloned.Query()
	q.Set(key, value)
	cloned.RawQuery = q.Encode()

	return cloned.String()
}

func removeQueryParam(u *url.URL, key string) string {
	cloned := *u

	q := cloned.Query()
	q.Del(key)
	cloned.RawQuery = q.Encode()

	return cloned.String()
}

func ptr[T any](v T) *T {
	return &v
}

func pageOffset(page, pageSize uint64) uint64 {
	return (page - 1) * pageSize
}
