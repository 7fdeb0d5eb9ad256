package api

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)

	return u
}

func TestParsePageParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		target       string
		wantPage     uint64
		wantPageSize uint64
	}{
		{
			name:         "defaults",
			target:       "/api/v1/posts",
			wantPage:     1,
			wantPageSize: 12,
		},
		{
			name:         "explicit values",
			target:       "/api/v1/posts?page=3&page_size=20",
			wantPage:     3,
			wantPageSize: 20,
		},
		{
			name:         "page size capped",
			target:       "/api/v1/posts?page_size=500",
			wantPage:     1,
			wantPageSize: 100,
		},
		{
			name:         "garbage falls back to defaults",
			target:       "/api/v1/posts?page=abc&page_size=-2",
			wantPage:     1,
			wantPageSize: 12,
		},
		{
			name:         "zero page falls back",
			target:       "/api/v1/posts?page=0&page_size=0",
			wantPage:     1,
			wantPageSize: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", tt.target, nil)

			page, pageSize := parsePageParams(r)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
		})
	}
}

func TestBuildPageFirstPage(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts?page_size=10")

	page := buildPage(u, 25, 1, 10, []string{})

	assert.Equal(t, uint64(25), page.Count)
	assert.Equal(t, uint64(3), page.TotalPages)
	assert.Equal(t, uint64(1), page.CurrentPage)
	assert.Equal(t, uint64(10), page.PageSize)

	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")

	assert.Nil(t, page.Previous)
	assert.Nil(t, page.First)

	require.NotNil(t, page.Last)
	assert.Contains(t, *page.Last, "page=3")
}

func TestBuildPageMiddlePage(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts?page=2&page_size=10")

	page := buildPage(u, 25, 2, 10, []string{})

	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=3")

	require.NotNil(t, page.Previous)
	assert.NotContains(t, *page.Previous, "page=")

	require.NotNil(t, page.First)
	assert.NotContains(t, *page.First, "page=")

	require.NotNil(t, page.Last)
	assert.Contains(t, *page.Last, "page=3")
}

func TestBuildPageLastPage(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts?page=3&page_size=10")

	page := buildPage(u, 25, 3, 10, []string{})

	assert.Nil(t, page.Next)

	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, "page=2")
}

func TestBuildPageEmpty(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts")

	page := buildPage(u, 0, 1, 12, []string{})

	assert.Equal(t, uint64(0), page.Count)
	assert.Equal(t, uint64(0), page.TotalPages)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
	assert.Nil(t, page.First)
	assert.Nil(t, page.Last)
}

func TestReplaceQueryParam(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts?search=go&page=2#results")

	result := replaceQueryParam(u, "page", "5")

	assert.Contains(t, result, "page=5")
	assert.Contains(t, result, "search=go")
	assert.Contains(t, result, "#results")

	// The original URL is untouched.
	assert.Equal(t, "2", u.Query().Get("page"))
}

func TestRemoveQueryParam(t *testing.T) {
	t.Parallel()

	u := mustParseURL(t, "/api/v1/posts?search=go&page=2#results")

	result := removeQueryParam(u, "page")

	assert.NotContains(t, result, "page=")
	assert.Contains(t, result, "search=go")
	assert.Contains(t, result, "#results")
}
