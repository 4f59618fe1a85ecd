package paging

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// AllSentinel is the filter value the UI uses for "no restriction".
const AllSentinel = "ALL"

// Query parameter names of the collection endpoint contract.
const (
	QueryParamPage = "page"
	QueryParamSize = "size"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 12

// FilterSet maps filter names to their values. Unset, empty and ALL values
// are equivalent and never reach the outgoing request.
type FilterSet map[string]string

// IsUnset reports whether v carries no restriction.
func IsUnset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == AllSentinel
}

// Normalize returns a copy without unset values and without the page and
// size names, which belong to the cursor. Values are trimmed.
func (f FilterSet) Normalize() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		if k == "" || k == QueryParamPage || k == QueryParamSize || IsUnset(v) {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// Equal compares two filter sets by their normalized value.
func (f FilterSet) Equal(other FilterSet) bool {
	return maps.Equal(f.Normalize(), other.Normalize())
}

// With returns a copy of f with key set to value.
func (f FilterSet) With(key, value string) FilterSet {
	out := maps.Clone(f)
	if out == nil {
		out = FilterSet{}
	}
	out[key] = value
	return out
}

// Values builds the outgoing query for the given cursor.
func (f FilterSet) Values(c Cursor) url.Values {
	q := url.Values{}
	for k, v := range f.Normalize() {
		q.Set(k, v)
	}
	q.Set(QueryParamPage, strconv.Itoa(c.Index))
	q.Set(QueryParamSize, strconv.Itoa(c.Size))
	return q
}

// Key is a stable textual form of the normalized set, usable as a cache key.
func (f FilterSet) Key() string {
	n := f.Normalize()
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(n[k]))
	}
	return b.String()
}

// Cursor identifies the slice of a collection to fetch.
type Cursor struct {
	Index int `json:"page"`
	Size  int `json:"size"`
}

// FirstPage returns the cursor of page 0. Non-positive sizes fall back to
// DefaultPageSize.
func FirstPage(size int) Cursor {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Cursor{Index: 0, Size: size}
}

// Next returns the cursor of the following page.
func (c Cursor) Next() Cursor {
	return Cursor{Index: c.Index + 1, Size: c.Size}
}
