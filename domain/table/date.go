package table

import (
	"strings"
	"time"
)

// dateLayouts are the formats tried by the generic date parse, most
// common first. Non-padded month/day tokens also accept zero-padded input.
var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	time.RFC3339,
	"2006/1/2",
	"2006.1.2",
	"1/2/2006",
	"2-1-2006",
	"2006년 1월 2일",
	"20060102",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate attempts a generic calendar-date read of a cell. Loaders keep
// dates as strings, so the common path is trying the layout list; cells
// that already hold a time.Time pass through.
func ParseDate(c Cell) (time.Time, bool) {
	if t, ok := c.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(String(c))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
