package storeclient

import (
	"net/url"
	"time"
)

// SortOrder for listing requests; descending is the server default.
type SortOrder string

const (
	SortDescending SortOrder = "desc"
	SortAscending  SortOrder = "asc"
)

// ListingParams is the client half of the listing query: a pure value
// object mapped deterministically onto request parameters. Zero fields add
// no constraint, so it is safe to rebuild on every UI change.
type ListingParams struct {
	Search    string
	Category  string // "All" and "" both mean no category constraint
	DateFrom  time.Time
	DateTo    time.Time
	SortBy    string
	SortOrder SortOrder
}

const listingDateLayout = "2006-01-02"

// Values encodes the parameters. Dates are sent as calendar days; the
// server widens DateTo to the end of that day.
func (p ListingParams) Values() url.Values {
	values := url.Values{}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Category != "" {
		values.Set("category", p.Category)
	}
	if !p.DateFrom.IsZero() {
		values.Set("dateFrom", p.DateFrom.Format(listingDateLayout))
	}
	if !p.DateTo.IsZero() {
		values.Set("dateTo", p.DateTo.Format(listingDateLayout))
	}
	if p.SortBy != "" {
		values.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		values.Set("sortOrder", string(p.SortOrder))
	}
	return values
}
