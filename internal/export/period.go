// Package export produces and serves per-period constituent CSV files.
//
// A Period is a calendar year or a single month. Each period names exactly
// one object in the export store:
//
//	constituents/2025/constituents-2025.csv
//	constituents/2025/04/constituents-2025-04.csv
package export

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("export file not found")
	ErrInvalidPeriod = errors.New("invalid year or month")
)

// Period identifies one export file. Month is zero for a whole-year export.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod validates raw query values. year must be four digits; month,
// when non-empty, must be 1-12 with an optional leading zero.
func ParsePeriod(year, month string) (Period, error) {
	if len(year) != 4 {
		return Period{}, ErrInvalidPeriod
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return Period{}, ErrInvalidPeriod
	}
	p := Period{Year: y}
	if month == "" {
		return p, nil
	}
	if len(month) > 2 || strings.HasPrefix(month, "+") || strings.HasPrefix(month, "-") {
		return Period{}, ErrInvalidPeriod
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Period{}, ErrInvalidPeriod
	}
	p.Month = m
	return p, nil
}

// IsMonth reports whether the period covers a single month.
func (p Period) IsMonth() bool { return p.Month != 0 }

// String renders the period as YYYY or YYYY-MM.
func (p Period) String() string {
	if p.IsMonth() {
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
	return fmt.Sprintf("%04d", p.Year)
}

// End is the first instant after the period in loc.
func (p Period) End(loc *time.Location) time.Time {
	if p.IsMonth() {
		return time.Date(p.Year, time.Month(p.Month)+1, 1, 0, 0, 0, 0, loc)
	}
	return time.Date(p.Year+1, time.January, 1, 0, 0, 0, 0, loc)
}

// Closed reports whether no more signups can fall into the period as of now.
func (p Period) Closed(now time.Time) bool {
	return !now.Before(p.End(now.Location()))
}

// SignupPrefix is the created_at prefix matching this period.
func (p Period) SignupPrefix() string { return p.String() }

// FileName is the download name of the export.
func (p Period) FileName() string {
	return "constituents-" + p.String() + ".csv"
}

// Key is the store key of the export under an optional prefix.
func (p Period) Key(prefix string) string {
	dir := path.Join("constituents", fmt.Sprintf("%04d", p.Year))
	if p.IsMonth() {
		dir = path.Join(dir, fmt.Sprintf("%02d", p.Month))
	}
	key := path.Join(dir, p.FileName())
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = path.Join(prefix, key)
	}
	return key
}
