package db

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// DefaultPageSize is the listing page size used when the caller supplies
// no usable limit.
const DefaultPageSize = 50

const dateLayout = "2006-01-02"

// FilterParams is the raw, untrusted bag of listing query parameters.
// Every field is the string exactly as it appeared in the query, empty
// when absent.
type FilterParams struct {
	Level     string
	StartDate string
	EndDate   string
	ServerURL string
	UserID    string
	Limit     string
	Offset    string
}

// EventFilter is the typed predicate applied to an event query, plus the
// pagination window. Zero-value fields mean "no constraint on this
// dimension"; supplied fields are combined as a pure conjunction.
type EventFilter struct {
	Level     string
	ServerURL string
	UserID    string

	// CreatedFrom/CreatedTo are inclusive bounds on created_at. Either
	// may be nil for a half-open range.
	CreatedFrom *time.Time
	CreatedTo   *time.Time

	Limit  int
	Offset int
}

// BuildEventFilter translates raw query parameters into an EventFilter.
// It is pure and never fails: invalid values degrade by being dropped
// (level, dates) or replaced with defaults (limit, offset).
//
// Listing is deliberately permissive where ingestion is strict: a level
// outside {error, warning, info} is ignored here, not rejected.
//
// Dates are calendar days in server-local time. startDate becomes an
// inclusive bound at 00:00:00.000 of that day, endDate an inclusive
// bound at 23:59:59.999, so the entire end day is covered.
//
// limit falls back to DefaultPageSize when absent, unparseable, or not
// positive, and is clamped to maxLimit when maxLimit > 0. offset falls
// back to 0 when absent, unparseable, or negative.
func BuildEventFilter(p FilterParams, maxLimit int) EventFilter {
	f := EventFilter{Limit: DefaultPageSize}

	if ValidLevel(p.Level) {
		f.Level = p.Level
	}
	if p.ServerURL != "" {
		f.ServerURL = p.ServerURL
	}
	if p.UserID != "" {
		f.UserID = p.UserID
	}

	if p.StartDate != "" {
		if day, err := time.ParseInLocation(dateLayout, p.StartDate, time.Local); err == nil {
			f.CreatedFrom = &day
		}
	}
	if p.EndDate != "" {
		if day, err := time.ParseInLocation(dateLayout, p.EndDate, time.Local); err == nil {
			// Wall-clock end of day, not midnight plus a fixed duration:
			// on DST-transition days the local day is not 24 hours long.
			end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999_000_000, day.Location())
			f.CreatedTo = &end
		}
	}

	if n, err := strconv.Atoi(p.Limit); err == nil && n > 0 {
		f.Limit = n
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if n, err := strconv.Atoi(p.Offset); err == nil && n >= 0 {
		f.Offset = n
	}

	return f
}

// apply renders the filter onto a query as a conjunction of equality and
// range predicates. Pagination is not applied here; FindEvents needs the
// unbounded query for its total count.
func (f EventFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.ServerURL != "" {
		q = q.Where("server_url = ?", f.ServerURL)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	return q
}
