package model

import "math"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalFiles int64
}

// Page is a slice of records plus its pagination metadata.
type Page struct {
	Files      []Document
	Pagination Pagination
}

// Window converts a 1-based page into an offset/limit pair. ok is false when
// the arguments are out of range or the offset does not fit in an int.
func Window(page, pageSize int) (offset, limit int, ok bool) {
	if page < 1 || pageSize < 1 {
		return 0, 0, false
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, 0, false
	}
	return (page - 1) * pageSize, pageSize, true
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}
