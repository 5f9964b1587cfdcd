package request

import (
	"net/url"

	"apartment-booking/pkg/utils"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PaginatedRequest selects one page of a reservation listing.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PageFromQuery reads ?page= and ?per_page=. Missing, malformed or
// non-positive values fall back to the first page of perPage rows.
func PageFromQuery(query url.Values, perPage int) PaginatedRequest {
	return PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), perPage),
	}
}

// Offset is computed from Limit so the rows skipped always match the page size
// actually served.
func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return DefaultPerPage
	case p.PerPage > MaxPerPage:
		return MaxPerPage
	}
	return p.PerPage
}
