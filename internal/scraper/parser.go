package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeDate = regexp.MustCompile(`^(\d+)\s*([mh])\s+ago$`)

	absoluteLayouts = []string{
		"January 2, 2006",
		"Jan 2, 2006",
	}

	// Abbreviations the site prints that Go's "Jan" layout does not know.
	monthAliases = strings.NewReplacer("Sept ", "Sep ")
)

type DateParser struct {
	now func() time.Time
}

func NewDateParser(now func() time.Time) *DateParser {
	if now == nil {
		now = time.Now
	}
	return &DateParser{now: now}
}

// Parse converts a result entry's publish-date text into a calendar date
// (midnight, in the location of the parser's clock).
//
// Accepted forms: "5m ago", "3h ago", "March 4", "Mar. 4, 2023".
// The year of the absolute form defaults to the current year.
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	now := dp.now()
	cleaned := strings.TrimSpace(strings.ReplaceAll(dateStr, ".", ""))
	if cleaned == "" {
		return time.Time{}, &DateParseError{Raw: dateStr}
	}

	if m := relativeDate.FindStringSubmatch(cleaned); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, &DateParseError{Raw: dateStr}
		}
		unit := time.Minute
		if m[2] == "h" {
			unit = time.Hour
		}
		return truncateToDay(now.Add(-time.Duration(n) * unit)), nil
	}

	if !strings.Contains(cleaned, ",") {
		cleaned = fmt.Sprintf("%s, %d", cleaned, now.Year())
	}
	cleaned = monthAliases.Replace(cleaned)

	for _, layout := range absoluteLayouts {
		t, err := time.ParseInLocation(layout, cleaned, now.Location())
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, &DateParseError{Raw: dateStr}
}

// Cutoff is the earliest publish date a record may carry: the first day of
// now's month, moved back monthsBack-1 months.
func Cutoff(now time.Time, monthsBack int) time.Time {
	back := monthsBack - 1
	if back < 0 {
		back = 0
	}
	return time.Date(now.Year(), now.Month()-time.Month(back), 1, 0, 0, 0, 0, now.Location())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
