package domain

import (
	"sort"
	"strings"
)

// Tags is the attribute bag attached to a fetched geometry. OSM data may
// carry a single value or several values for the same key (merged parallel
// ways), so values are kept as a slice and normalized to first-value-or-absent
// in exactly one place, First.
type Tags map[string][]string

// NewTags builds a tag bag from scalar key/value pairs.
func NewTags(kv map[string]string) Tags {
	if len(kv) == 0 {
		return nil
	}
	t := make(Tags, len(kv))
	for k, v := range kv {
		t[k] = []string{v}
	}
	return t
}

// First returns the first value for a key. A missing key or an empty value
// list both count as absent.
func (t Tags) First(key string) (string, bool) {
	vals, ok := t[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// TagFilter selects features by OSM tag. Each key matches any of its values.
type TagFilter map[string][]string

// Canonical serializes the filter deterministically: keys sorted, values
// sorted, so two filters that differ only in construction order produce the
// same string. Used verbatim inside feature cache keys.
func (f TagFilter) Canonical() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := append([]string(nil), f[k]...)
		sort.Strings(vals)
		parts = append(parts, k+"="+strings.Join(vals, ","))
	}
	return strings.Join(parts, ";")
}

// The three feature layers and their fixed tag filters. These are part of
// the cache-key contract: changing them invalidates previously cached
// feature entries.
var (
	WaterTags = TagFilter{
		"natural":  {"water", "bay", "strait"},
		"waterway": {"riverbank"},
	}

	ParkTags = TagFilter{
		"leisure": {"park"},
		"landuse": {"grass"},
	}

	RailTags = TagFilter{
		"railway": {
			"rail", "subway", "tram", "light_rail",
			"narrow_gauge", "monorail",
			"service", "yard", "siding",
		},
	}
)
