package dto

import "time"

// Envelope is the common response shape of the API.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewEnvelope builds a success envelope with the current timestamp.
func NewEnvelope(message string, data any) Envelope {
	return Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorEnvelope builds a failure envelope with the current timestamp.
func NewErrorEnvelope(message string, errs any) Envelope {
	return Envelope{
		Success:   false,
		Message:   message,
		Errors:    errs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Pages       int  `json:"pages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPagination computes page counts from a total and the requested window.
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		Pages:       pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1 && total > 0,
	}
}
