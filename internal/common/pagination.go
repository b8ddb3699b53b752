package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the page metadata for a list response.
func NewPagination(page, perPage int, totalItems int64) Pagination {
	if perPage < 1 {
		perPage = 1
	}
	pages := int(totalItems) / perPage
	if int(totalItems)%perPage != 0 {
		pages++
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: int(totalItems), TotalPages: pages}
}

// ParsePagination reads page and limit query parameters, falling back to
// page 1 and the supplied default page size.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return
}
