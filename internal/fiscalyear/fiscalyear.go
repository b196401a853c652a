// Package fiscalyear resolves financial-year labels into concrete date
// windows. A financial year runs April 1 through March 31 and is labeled by
// its start and end calendar years, e.g. "2023-2024".
package fiscalyear

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidLabel is returned when a financial-year label is malformed:
// not two dash-separated numeric years, or years that are not consecutive.
var ErrInvalidLabel = errors.New("invalid financial year label")

// Window is the half-open-by-millisecond span of one financial year.
// Start is April 1 00:00:00.000 UTC of the start year; End is March 31
// 23:59:59.999 UTC of the following year, i.e. Start + 1 year - 1ms.
type Window struct {
	Start time.Time
	End   time.Time
}

// Parse converts a "YYYY-YYYY" label into a Window. The two components must
// be integers and the end year must follow the start year directly.
func Parse(label string) (Window, error) {
	parts := strings.Split(label, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	endYear, err := strconv.Atoi(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	if endYear != startYear+1 {
		return Window{}, fmt.Errorf("%w: %q: years must be consecutive", ErrInvalidLabel, label)
	}

	return forStartYear(startYear), nil
}

// Current derives the financial year containing now. January through March
// belong to the year that started the previous April.
func Current(now time.Time) Window {
	now = now.UTC()
	startYear := now.Year()
	if now.Month() < time.April {
		startYear--
	}
	return forStartYear(startYear)
}

// Resolve maps an optional label to a Window plus the label to report back:
// the input label when given, "current" otherwise.
func Resolve(label string, now time.Time) (Window, string, error) {
	if label == "" {
		return Current(now), "current", nil
	}
	w, err := Parse(label)
	if err != nil {
		return Window{}, "", err
	}
	return w, label, nil
}

// Label returns the "YYYY-YYYY" form of the window.
func (w Window) Label() string {
	return fmt.Sprintf("%d-%d", w.Start.Year(), w.End.Year())
}

// Contains reports whether t falls inside the window, boundaries included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func forStartYear(startYear int) Window {
	start := time.Date(startYear, time.April, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: start,
		End:   start.AddDate(1, 0, 0).Add(-time.Millisecond),
	}
}
