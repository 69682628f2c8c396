package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var weekNameRegex = regexp.MustCompile(`(?i)^week\s+(\d+)$`)

// FindOverlap returns the first existing week whose [start, end) interval
// overlaps the candidate interval, skipping excludeID (the week under edit).
// Holidays and regular weeks share one timeline; the holiday flag is ignored.
func FindOverlap(start, end time.Time, weeks []Week, excludeID string) (Week, bool) {
	for _, w := range weeks {
		if excludeID != "" && w.ID == excludeID {
			continue
		}
		if start.Before(w.EndDate) && end.After(w.StartDate) {
			return w, true
		}
	}
	return Week{}, false
}

// HasOverlap reports whether the candidate interval overlaps any existing week.
func HasOverlap(start, end time.Time, weeks []Week, excludeID string) bool {
	_, overlap := FindOverlap(start, end, weeks, excludeID)
	return overlap
}

// CurrentWeek returns the non-holiday week containing now.
// The no-overlap invariant guarantees at most one match.
func CurrentWeek(weeks []Week, now time.Time) (Week, bool) {
	for _, w := range weeks {
		if !w.IsHoliday && w.Contains(now) {
			return w, true
		}
	}
	return Week{}, false
}

// NextWeek returns the earliest non-holiday week starting after the current
// week's end; when no week covers now, the earliest non-holiday week overall.
func NextWeek(weeks []Week, now time.Time) (Week, bool) {
	curr, hasCurr := CurrentWeek(weeks, now)

	var next Week
	var found bool
	for _, w := range weeks {
		if w.IsHoliday {
			continue
		}
		if hasCurr && !w.StartDate.After(curr.EndDate) {
			continue
		}
		if !found || w.StartDate.Before(next.StartDate) {
			next = w
			found = true
		}
	}
	return next, found
}

// GenerateWeekName derives a default name for a new week.
// Holidays are always named "Holiday". Regular weeks continue the highest
// "Week N" number in use; gaps are not refilled.
func GenerateWeekName(weeks []Week, isHoliday bool) string {
	if isHoliday {
		return "Holiday"
	}
	var max int
	for _, w := range weeks {
		if w.IsHoliday {
			continue
		}
		m := weekNameRegex.FindStringSubmatch(w.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("Week %d", max+1)
}

// SuggestedStartDate proposes a start date for the next week: the end of the
// latest-starting week so weeks chain back-to-back, or the next Monday at
// local midnight when the timeline is empty.
func SuggestedStartDate(weeks []Week, now time.Time) time.Time {
	if len(weeks) == 0 {
		return nextMonday(now)
	}
	latest := weeks[0]
	for _, w := range weeks[1:] {
		if w.StartDate.After(latest.StartDate) {
			latest = w
		}
	}
	return latest.EndDate
}

func nextMonday(now time.Time) time.Time {
	daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	y, m, d := now.AddDate(0, 0, daysAhead).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// SortWeeks orders weeks chronologically by start date, in place.
func SortWeeks(weeks []Week) {
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].StartDate.Before(weeks[j].StartDate) })
}
