// Package catalog holds the in-memory book collection for a shelf session.
//
// A Library is an ordered sequence of Book records. Insertion order is the
// display order, duplicate titles are allowed, and nothing here touches the
// filesystem; see package store for persistence.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no book matches a removal query.
var ErrNotFound = errors.New("book not found")

// Book is one catalog entry.
type Book struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
	Genre  string `json:"genre"`
	Read   bool   `json:"read"`
}

// Status returns "Read" or "Unread".
func (b Book) Status() string {
	if b.Read {
		return "Read"
	}
	return "Unread"
}

// FormatLine renders a book as a numbered listing line.
func FormatLine(index int, b Book) string {
	return fmt.Sprintf("%d. %s by %s (%d) - %s - %s", index, b.Title, b.Author, b.Year, b.Genre, b.Status())
}

// SearchField selects which attribute SearchBooks matches against.
type SearchField string

const (
	FieldTitle  SearchField = "title"
	FieldAuthor SearchField = "author"
)

// ParseSearchField maps a field name (or its menu number) to a SearchField.
func ParseSearchField(s string) (SearchField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "title":
		return FieldTitle, nil
	case "2", "author":
		return FieldAuthor, nil
	default:
		return "", fmt.Errorf("unknown search field %q (valid: title, author)", s)
	}
}

// Library is the ordered in-memory collection.
type Library []Book

// AddBook appends a new record to the end of the library.
func (l *Library) AddBook(title, author string, year int, genre string, read bool) Book {
	b := Book{Title: title, Author: author, Year: year, Genre: genre, Read: read}
	*l = append(*l, b)
	return b
}

// RemoveBook deletes the first book whose title equals title, ignoring case
// and surrounding whitespace in the query. The library is left untouched and
// ErrNotFound returned when nothing matches.
func (l *Library) RemoveBook(title string) (Book, error) {
	query := strings.ToLower(strings.TrimSpace(title))
	for i, b := range *l {
		if strings.ToLower(b.Title) != query {
			continue
		}
		*l = append((*l)[:i], (*l)[i+1:]...)
		return b, nil
	}
	return Book{}, fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(title))
}

// SearchBooks returns, in library order, the books whose field contains
// keyword as a case-insensitive substring. An unknown field matches nothing.
func (l Library) SearchBooks(field SearchField, keyword string) []Book {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	matches := make([]Book, 0)
	for _, b := range l {
		var haystack string
		switch field {
		case FieldTitle:
			haystack = b.Title
		case FieldAuthor:
			haystack = b.Author
		default:
			continue
		}
		if strings.Contains(strings.ToLower(haystack), kw) {
			matches = append(matches, b)
		}
	}
	return matches
}

// ListAll returns a copy of every book in display order.
func (l Library) ListAll() []Book {
	out := make([]Book, len(l))
	copy(out, l)
	return out
}

// Stats summarizes the read status of a library.
type Stats struct {
	Total int
	Read  int
}

// Stats counts the library's books and how many of them are read.
func (l Library) Stats() Stats {
	s := Stats{Total: len(l)}
	for _, b := range l {
		if b.Read {
			s.Read++
		}
	}
	return s
}

// Empty reports whether there are no books, in which case no percentage
// is defined.
func (s Stats) Empty() bool {
	return s.Total == 0
}

// PercentRead returns the share of read books in [0, 100]. It returns
// false when the library is empty.
func (s Stats) PercentRead() (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	return float64(s.Read) / float64(s.Total) * 100, true
}

// PercentLabel formats the read percentage to one decimal place, or
// "no books" for an empty library.
func (s Stats) PercentLabel() string {
	pct, ok := s.PercentRead()
	if !ok {
		return "no books"
	}
	return strconv.FormatFloat(pct, 'f', 1, 64)
}
