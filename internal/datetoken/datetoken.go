// Package datetoken parses and filters the 8-digit calendar date tokens
// embedded in blob names and local file names.
//
// Two name forms carry a token:
//
//	insights-logs-signinlogs/y=2024/m=06/d=18/h=09/m=00/PT1H.json
//	signinlog_20240618.parquet
//
// The first is the Azure insights blob layout, the second the flat local
// form. Names without a valid token are excluded from filtering rather
// than treated as errors.
package datetoken

import (
	"regexp"
	"time"

	"github.com/xtxerr/entralog/internal/errors"
)

const layout = "20060102"

var (
	pathPattern = regexp.MustCompile(`y=(\d{4})/m=(\d{2})/d=(\d{2})`)
	flatPattern = regexp.MustCompile(`(\d{8})`)
)

// Valid reports whether s is an 8-digit string naming a real calendar date.
func Valid(s string) bool {
	if len(s) != 8 {
		return false
	}
	_, err := time.Parse(layout, s)
	return err == nil
}

// Parse validates s as a YYYYMMDD date string. The name is used in the
// error message so a malformed CLI flag is reported by name.
func Parse(name, s string) (string, error) {
	if !Valid(s) {
		return "", errors.NewInvalidDate(name, s)
	}
	return s, nil
}

// FromName extracts the date token from a blob or file name.
// The y=/m=/d= path form takes precedence over a flat 8-digit token; for
// the flat form, the first calendar-valid candidate wins.
// Returns "" if no valid token is present.
func FromName(name string) string {
	if m := pathPattern.FindStringSubmatch(name); m != nil {
		token := m[1] + m[2] + m[3]
		if Valid(token) {
			return token
		}
		return ""
	}
	for _, m := range flatPattern.FindAllStringSubmatch(name, -1) {
		if Valid(m[1]) {
			return m[1]
		}
	}
	return ""
}

// Range is an optional inclusive [Start, End] date filter.
// An empty bound leaves that side open.
type Range struct {
	Start string
	End   string
}

// NewRange validates the bounds and their ordering.
func NewRange(start, end string) (Range, error) {
	if start != "" {
		if _, err := Parse("start_date", start); err != nil {
			return Range{}, err
		}
	}
	if end != "" {
		if _, err := Parse("end_date", end); err != nil {
			return Range{}, err
		}
	}
	if start != "" && end != "" && start > end {
		return Range{}, errors.Wrapf(errors.ErrInvalidDateRange, "start %s, end %s", start, end)
	}
	return Range{Start: start, End: end}, nil
}

// IsOpen reports whether the range admits everything.
func (r Range) IsOpen() bool {
	return r.Start == "" && r.End == ""
}

// Admits reports whether a name carries a valid date token that falls
// inside the range. Names without a token are always rejected.
func (r Range) Admits(name string) bool {
	token := FromName(name)
	if token == "" {
		return false
	}
	return r.AdmitsToken(token)
}

// AdmitsToken reports whether a validated token lies within the range.
// YYYYMMDD strings order lexicographically, so string comparison suffices.
func (r Range) AdmitsToken(token string) bool {
	if r.Start != "" && token < r.Start {
		return false
	}
	if r.End != "" && token > r.End {
		return false
	}
	return true
}
