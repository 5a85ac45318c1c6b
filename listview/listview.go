// Package listview implements the list-page pattern shared by every
// dashboard screen: case-insensitive search over a fixed set of fields,
// fixed-size pagination and page-scoped row selection.
//
// All functions work on already-fetched slices and never mutate their input.
package listview

import (
	"sort"
	"strings"
)

// DefaultPageSize is used when a definition does not set one.
const DefaultPageSize = 10

// Fields returns the searchable string fields of a row.
type Fields[T any] func(T) []string

// Filter keeps the items whose fields contain term, ignoring case. An empty
// or blank term keeps every item. Order is preserved.
func Filter[T any](items []T, term string, fields Fields[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || fields == nil {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Page is one page of a filtered list.
type Page[T any] struct {
	Items      []T
	Number     int // 1-based, clamped to [1, TotalPages]
	Size       int
	TotalItems int
	TotalPages int // at least 1
	Offset     int // index of Items[0] in the filtered list
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number, or the current one on page 1.
func (p Page[T]) Prev() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}

// Next returns the next page number, or the current one on the last page.
func (p Page[T]) Next() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// Pages lists every page number, for rendering page buttons.
func (p Page[T]) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Paginate returns page number of items, showing items
// [(number-1)*size, number*size). Out of range page numbers are clamped and
// a non-positive size falls back to DefaultPageSize.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:      pageItems,
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
		Offset:     start,
	}
}

// Query is the user-controlled state of a list page.
type Query struct {
	Search string
	Page   int
}

// Apply filters items with q.Search and returns page q.Page.
func Apply[T any](items []T, q Query, fields Fields[T], size int) Page[T] {
	return Paginate(Filter(items, q.Search, fields), q.Page, size)
}

// Selection is a set of selected row ids.
type Selection map[string]bool

// NewSelection builds a selection from ids, ignoring blanks.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = true
		}
	}
	return s
}

// Toggle flips the selection state of id.
func (s Selection) Toggle(id string) {
	if s[id] {
		delete(s, id)
		return
	}
	s[id] = true
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool { return s[id] }

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s))
	for id, on := range s {
		if on {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of selected ids.
func (s Selection) Len() int { return len(s.IDs()) }

// SelectPage returns a selection holding exactly the rows of page.
func SelectPage[T any](page Page[T], id func(T) string) Selection {
	s := make(Selection, len(page.Items))
	for _, item := range page.Items {
		s[id(item)] = true
	}
	return s
}

// AllSelected reports whether every row of page is selected, which drives
// the state of the "select all" checkbox.
func AllSelected[T any](page Page[T], s Selection, id func(T) string) bool {
	if len(page.Items) == 0 {
		return false
	}
	for _, item := range page.Items {
		if !s[id(item)] {
			return false
		}
	}
	return true
}
