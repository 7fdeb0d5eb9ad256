package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/todiane/djangify/blog"
)

// splitCSV turns a comma separated query value into trimmed, non-empty
// items.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}

	return items
}

const dateOnlyFormat = "2006-01-02"

// parseTimeParam accepts RFC 3339 timestamps or bare dates. A bare date
// used as an upper bound covers the whole day, keeping the bound
// inclusive.
func parseTimeParam(q url.Values, key string, upperBound bool) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return &t, nil
	}

	t, err = time.Parse(dateOnlyFormat, raw)
	if err != nil {
		return nil, blog.ValidationError{Field: key, Detail: fmt.Sprintf("invalid date %q", raw)}
	}

	if upperBound {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}

func parseBoolParam(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, blog.ValidationError{Field: key, Detail: fmt.Sprintf("invalid boolean %q", raw)}
	}

	return &v, nil
}
