package capture

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey defines a view field used for ordering
type SortKey string

// supported sort keys
const (
	SortStatus    SortKey = "status"
	SortLabel     SortKey = "userTag"
	SortStartTime SortKey = "startTime"
	SortURL       SortKey = "captureUrl"
	SortSize      SortKey = "size"
)

// DefaultSortKey is used when no sort key requested, DefaultSortDesc is its direction
const (
	DefaultSortKey  = SortStartTime
	DefaultSortDesc = true
)

// SortKeyInfo describes a sort key for clients
type SortKeyInfo struct {
	Key  SortKey `json:"key"`
	Name string  `json:"name"`
}

// SortKeys lists all sort keys with display names
var SortKeys = []SortKeyInfo{
	{Key: SortStatus, Name: "Status"},
	{Key: SortLabel, Name: "Label"},
	{Key: SortStartTime, Name: "Start Time"},
	{Key: SortURL, Name: "URL"},
	{Key: SortSize, Name: "Size"},
}

// ParseSortKey converts string to SortKey, empty string gives DefaultSortKey
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSortKey, nil
	}
	for _, k := range SortKeys {
		if string(k.Key) == s {
			return k.Key, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Sort returns a new slice of views ordered by key. The input slice is not modified.
// Ties keep the input order.
func Sort(views []View, key SortKey, desc bool) []View {
	res := make([]View, len(views))
	copy(res, views)

	less := func(a, b View) bool { return a.StartTime.Before(b.StartTime.Time) }
	switch key {
	case SortStatus:
		less = func(a, b View) bool { return a.Status < b.Status }
	case SortLabel:
		less = func(a, b View) bool { return strings.ToLower(a.Label()) < strings.ToLower(b.Label()) }
	case SortURL:
		less = func(a, b View) bool { return a.CaptureURL < b.CaptureURL }
	case SortSize:
		// absent sizes go first in ascending order
		less = func(a, b View) bool {
			if a.Size == nil || b.Size == nil {
				return a.Size == nil && b.Size != nil
			}
			return *a.Size < *b.Size
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		if desc {
			return less(res[j], res[i])
		}
		return less(res[i], res[j])
	})
	return res
}
