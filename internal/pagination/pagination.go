// Package pagination computes page windows for flat store queries and for
// in-memory slices. Page and limit are expected to be positive; validating
// them is the caller's job.
package pagination

import (
	"github.com/samber/lo"
)

// Page is the pagination envelope shared by every listing.
type Page[T any] struct {
	Data            []T   `json:"data"`
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// Offset returns the index of the first item of page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

// New wraps one page of items already cut by the store.
func New[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data:            items,
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      TotalPages(total, limit),
		HasNextPage:     int64(page)*int64(limit) < total,
		HasPreviousPage: page > 1,
	}
}

// Slice cuts page out of all. Offsets past the end yield an empty page.
func Slice[T any](all []T, page, limit int) Page[T] {
	offset := Offset(page, limit)
	if offset < 0 || limit <= 0 {
		return New([]T{}, int64(len(all)), page, limit)
	}
	window := lo.Slice(all, offset, offset+limit)
	return New(append([]T{}, window...), int64(len(all)), page, limit)
}

// Map converts the items of p while keeping its window.
func Map[T, R any](p Page[T], fn func(T) R) Page[R] {
	return Page[R]{
		Data:            lo.Map(p.Data, func(item T, _ int) R { return fn(item) }),
		Total:           p.Total,
		Page:            p.Page,
		Limit:           p.Limit,
		TotalPages:      p.TotalPages,
		HasNextPage:     p.HasNextPage,
		HasPreviousPage: p.HasPreviousPage,
	}
}
