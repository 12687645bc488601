package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable reports that no recognized date pattern matched.
// Callers treat it as row-level and non-fatal: the row is dropped.
var ErrUnparseable = errors.New("unparseable date")

var (
	relativeAgeRe = regexp.MustCompile(`^(\d+)d$`)
	monthDayRe    = regexp.MustCompile(`^([A-Za-z]{3,9})\s+(\d{1,2})$`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Day truncates t to UTC midnight. Every date comparison in the engine
// is whole-day; truncating at this boundary keeps sub-day clock skew
// out of "is this newer" checks.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve turns a free-text posted date into an absolute calendar day.
//
// Recognized forms, tried in order:
//  1. "<N>d"            relative age, N days before now
//  2. MM/DD/YYYY        absolute; leading zeros optional
//  3. "<Month> <Day>"   no year: assume the current year, minus one
//     year if that lands in the future. The boards omit the year and
//     roll over at the year boundary, so a "Jan 3" row scraped in
//     December is last January, not next.
func Resolve(text string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseable)
	}

	if m := relativeAgeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
		}
		return Day(now).AddDate(0, 0, -n), nil
	}

	if t, err := time.Parse("1/2/2006", s); err == nil {
		return Day(t), nil
	}

	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		mon, ok := months[strings.ToLower(m[1])]
		day, err := strconv.Atoi(m[2])
		if ok && err == nil && day >= 1 && day <= 31 {
			d := time.Date(now.Year(), mon, day, 0, 0, 0, 0, time.UTC)
			if d.After(Day(now)) {
				d = d.AddDate(-1, 0, 0)
			}
			return d, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
}
