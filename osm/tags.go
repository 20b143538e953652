package osm

import (
	"sort"
	"strings"
)

// Tags holds the key-value pairs of an object. The order of entries carries no meaning.
type Tags map[string]string

// Keys not describing the object itself but where the data came from or who created it.
var uninterestingKeys = map[string]bool{
	"attribution":  true,
	"created_by":   true,
	"source":       true,
	"odbl":         true,
	"converted_by": true,
}

var uninterestingKeyPrefixes = []string{
	"tiger:",
	"source:",
	"odbl:",
}

// IsInterestingKey returns false for metadata keys like "source" or "tiger:*".
func IsInterestingKey(key string) bool {
	if uninterestingKeys[key] {
		return false
	}
	for _, prefix := range uninterestingKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	return true
}

func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	clone := make(Tags, len(t))
	for k, v := range t {
		clone[k] = v
	}
	return clone
}

func (t Tags) Equal(other Tags) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		if otherValue, ok := other[k]; !ok || otherValue != v {
			return false
		}
	}
	return true
}

func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// HasInterestingTags returns true when at least one key is not metadata noise.
func (t Tags) HasInterestingTags() bool {
	for k := range t {
		if IsInterestingKey(k) {
			return true
		}
	}
	return false
}

// Keys returns all keys in lexicographic order.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge combines both tag sets. Conflicting values of interesting keys are returned as conflicts and the value of t is
// kept. Conflicting values of uninteresting keys are joined with ";", which is the usual OSM way of listing sources.
func (t Tags) Merge(other Tags) (Tags, []string) {
	merged := t.Clone()
	if merged == nil {
		merged = Tags{}
	}

	var conflicts []string
	for _, k := range other.Keys() {
		v := other[k]
		existing, ok := merged[k]
		if !ok {
			merged[k] = v
			continue
		}
		if existing == v {
			continue
		}
		if IsInterestingKey(k) {
			conflicts = append(conflicts, k)
			continue
		}
		merged[k] = existing + ";" + v
	}

	return merged, conflicts
}
