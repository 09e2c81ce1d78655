package rest

import (
	"errors"
	"strings"
	"time"
)

// WireLayout is the timestamp format accepted in `heure` and used in responses.
const WireLayout = "2006-01-02 15:04:05"

// SlotLayout formats listed slots with a numeric offset and no colon, e.g.
// 2024-03-04T09:00:00+0100.
const SlotLayout = "2006-01-02T15:04:05-0700"

var ErrInvalidTimestampFormat = errors.New("invalid timestamp format")

// ParseSlotTime parses raw in loc. Failure is always ErrInvalidTimestampFormat.
func ParseSlotTime(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(WireLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, ErrInvalidTimestampFormat
	}
	return t, nil
}
