package models

// DefaultPageSize is the number of items on a listing page.
const DefaultPageSize = 10

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items    []T
	Number   int
	PageSize int
	Count    int64
	NumPages int
}

// NumPagesFor returns how many pages count items span. An empty listing
// still has one (empty) page.
func NumPagesFor(count int64, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(pageSize) - 1) / int64(pageSize))
}

// ClampPage maps a requested page number onto [1, numPages]: anything below
// one becomes the first page, anything past the end becomes the last.
func ClampPage(requested, numPages int) int {
	if requested < 1 {
		return 1
	}
	if requested > numPages {
		return numPages
	}
	return requested
}

// Offset is the index of the first item on the page.
func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.PageSize
}

// HasPrevious reports whether a page precedes this one.
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

// PreviousNumber is the previous page number.
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// NextNumber is the next page number.
func (p *Page[T]) NextNumber() int { return p.Number + 1 }
