// Package paging slices in-memory result sets into pages for table views.
package paging

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 25

// Page is one page of a larger result set. Number is 1-based.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

// Paginate returns page number of items. Out of range page numbers are
// clamped to the first or last page.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := total / size
	if total%size != 0 || totalPages == 0 {
		totalPages++
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	// a page never holds more than the whole set; keeps start and end in range
	span := min(size, max(total, 1))
	start := (number - 1) * span
	end := min(start+span, total)
	out := make([]T, 0, end-start)
	if start < end {
		out = append(out, items[start:end]...)
	}
	return Page[T]{
		Items:      out,
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}
