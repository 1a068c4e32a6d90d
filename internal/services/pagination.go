package services

import "snapshare/internal/models"

// newPage sizes a page over count items, clamping the requested number
// into range. Items are filled in by the caller.
func newPage[T any](count int64, requested, pageSize int) *models.Page[T] {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	numPages := models.NumPagesFor(count, pageSize)
	return &models.Page[T]{
		Items:    []T{},
		Number:   models.ClampPage(requested, numPages),
		PageSize: pageSize,
		Count:    count,
		NumPages: numPages,
	}
}
