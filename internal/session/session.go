// Package session runs the interactive library menu over an arbitrary
// input/output pair. The menu logic never touches os.Stdin or os.Stdout
// directly, so tests drive it with canned input.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"shelf/internal/catalog"
	"shelf/internal/logging"
	"shelf/internal/store"
)

// ErrInputClosed is returned when input ends before the exit option was
// chosen. Nothing is saved in that case.
var ErrInputClosed = errors.New("input closed before exit")

// MalformedWarning is printed when the persisted document cannot be decoded.
const MalformedWarning = "⚠️ Warning: Couldn't decode the file. Starting with an empty library."

// LibraryStore loads and saves the persisted document.
type LibraryStore interface {
	Load() (catalog.Library, error)
	Save(catalog.Library) error
}

// Session owns the library for the duration of one interactive run.
type Session struct {
	store LibraryStore
	in    *bufio.Reader
	out   io.Writer
	lib   catalog.Library
}

// New creates a session reading commands from in and writing to out.
func New(st LibraryStore, in io.Reader, out io.Writer) *Session {
	return &Session{
		store: st,
		in:    bufio.NewReader(in),
		out:   out,
	}
}

// Library returns the session's current in-memory library.
func (s *Session) Library() catalog.Library {
	return s.lib
}

// LoadLibrary loads the document through st, writing the malformed-document
// warning to out when decoding fails. Any other error is returned.
func LoadLibrary(st LibraryStore, out io.Writer) (catalog.Library, error) {
	lib, err := st.Load()
	if err != nil {
		if !store.IsParseError(err) {
			return nil, err
		}
		fmt.Fprintln(out, MalformedWarning)
		logging.Audit(logging.AuditEvent{Type: logging.AuditDocumentReset, Error: err.Error()})
	}
	logging.Audit(logging.AuditEvent{Type: logging.AuditLibraryLoad, Success: true, Count: len(lib)})
	return lib, nil
}

// Run loads the library and loops over the menu until the exit option is
// chosen, input ends, or ctx is cancelled. Only the exit option saves.
func (s *Session) Run(ctx context.Context) error {
	lib, err := LoadLibrary(s.store, s.out)
	if err != nil {
		return err
	}
	s.lib = lib

	logging.Session("Session started with %d books", len(s.lib))
	logging.Audit(logging.AuditEvent{Type: logging.AuditSessionStart, Success: true, Count: len(s.lib)})

	for {
		if err := ctx.Err(); err != nil {
			logging.SessionWarn("Session cancelled, %d books not saved", len(s.lib))
			return err
		}

		s.printMenu()
		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			logging.SessionWarn("Input closed, %d books not saved", len(s.lib))
			return err
		}
		// A signal that arrived while waiting for input wins over the choice.
		if err := ctx.Err(); err != nil {
			logging.SessionWarn("Session cancelled, %d books not saved", len(s.lib))
			return err
		}

		logging.SessionDebug("Menu choice %q", choice)
		switch strings.TrimSpace(choice) {
		case "1":
			err = s.addBook()
		case "2":
			err = s.removeBook()
		case "3":
			err = s.searchBooks()
		case "4":
			s.displayAll()
		case "5":
			s.displayStats()
		case "6":
			return s.saveAndExit()
		default:
			s.println("❌ Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) printMenu() {
	s.println("")
	s.println("📚 Welcome to your Personal Library Manager!")
	s.println("1. Add a book")
	s.println("2. Remove a book")
	s.println("3. Search for a book")
	s.println("4. Display all books")
	s.println("5. Display statistics")
	s.println("6. Save and exit")
}

func (s *Session) addBook() error {
	title, err := s.prompt("Enter the book title: ")
	if err != nil {
		return err
	}
	author, err := s.prompt("Enter the author: ")
	if err != nil {
		return err
	}
	year, err := s.promptYear()
	if err != nil {
		return err
	}
	genre, err := s.prompt("Enter the genre: ")
	if err != nil {
		return err
	}
	read, err := s.prompt("Have you read this book? (yes/no): ")
	if err != nil {
		return err
	}

	b := s.lib.AddBook(
		strings.TrimSpace(title),
		strings.TrimSpace(author),
		year,
		strings.TrimSpace(genre),
		ParseYesNo(read),
	)
	logging.CatalogDebug("Added %q, library now %d books", b.Title, len(s.lib))
	logging.Audit(logging.AuditEvent{Type: logging.AuditBookAdd, Target: b.Title, Success: true, Count: len(s.lib)})
	s.println("✅ Book added successfully!")
	return nil
}

// promptYear asks until the answer parses as an integer.
func (s *Session) promptYear() (int, error) {
	for {
		answer, err := s.prompt("Enter the publication year: ")
		if err != nil {
			return 0, err
		}
		year, err := ParseYear(answer)
		if err == nil {
			return year, nil
		}
		logging.SessionDebug("Rejected year %q: %v", answer, err)
		s.println("❌ Invalid year. Please enter a whole number.")
	}
}

func (s *Session) removeBook() error {
	title, err := s.prompt("Enter the title of the book to remove: ")
	if err != nil {
		return err
	}

	removed, err := s.lib.RemoveBook(title)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			logging.Audit(logging.AuditEvent{Type: logging.AuditBookNotFound, Target: title, Count: len(s.lib), Error: err.Error()})
			s.println("❌ Book not found.")
			return nil
		}
		return err
	}

	logging.CatalogDebug("Removed %q, library now %d books", removed.Title, len(s.lib))
	logging.Audit(logging.AuditEvent{Type: logging.AuditBookRemove, Target: removed.Title, Success: true, Count: len(s.lib)})
	s.println("✅ Book removed successfully!")
	return nil
}

func (s *Session) searchBooks() error {
	s.println("Search by:")
	s.println("1. Title")
	s.println("2. Author")
	choice, err := s.prompt("Enter your choice: ")
	if err != nil {
		return err
	}
	keyword, err := s.prompt("Enter the search term: ")
	if err != nil {
		return err
	}

	field := menuSearchField(choice)
	matches := s.lib.SearchBooks(field, keyword)
	logging.CatalogDebug("Search %s for %q: %d matches", field, keyword, len(matches))

	if len(matches) == 0 {
		s.println("❌ No matching books found.")
		return nil
	}
	s.println("")
	s.println("🔍 Matching Books:")
	s.printBooks(matches)
	return nil
}

func (s *Session) displayAll() {
	books := s.lib.ListAll()
	if len(books) == 0 {
		s.println("📭 Your library is empty.")
		return
	}
	s.println("")
	s.println("📖 Your Library:")
	s.printBooks(books)
}

func (s *Session) displayStats() {
	for _, line := range StatsLines(s.lib.Stats()) {
		s.println(line)
	}
}

func (s *Session) saveAndExit() error {
	timer := logging.StartTimer(logging.CategorySession, "save")
	if err := s.store.Save(s.lib); err != nil {
		logging.Audit(logging.AuditEvent{Type: logging.AuditLibrarySave, Count: len(s.lib), Error: err.Error()})
		return fmt.Errorf("failed to save library: %w", err)
	}
	timer.Stop()

	logging.Audit(logging.AuditEvent{Type: logging.AuditLibrarySave, Success: true, Count: len(s.lib)})
	logging.Audit(logging.AuditEvent{Type: logging.AuditSessionEnd, Success: true, Count: len(s.lib)})
	s.println("📁 Library saved to file. Goodbye!")
	return nil
}

func (s *Session) printBooks(books []catalog.Book) {
	for i, b := range books {
		s.println(catalog.FormatLine(i+1, b))
	}
}

// menuSearchField maps the search submenu answer to a field. Only the exact
// answers "1" and "2" select a field; anything else matches nothing.
func menuSearchField(choice string) catalog.SearchField {
	switch choice {
	case "1":
		return catalog.FieldTitle
	case "2":
		return catalog.FieldAuthor
	default:
		return ""
	}
}

// prompt writes label without a newline and reads one line of input. Lines
// have no length limit; a final line without a trailing newline still counts.
func (s *Session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			return "", ErrInputClosed
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

// ParseYear parses a publication year typed by the user.
func ParseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid year %q: %w", strings.TrimSpace(s), err)
	}
	return year, nil
}

// ParseYesNo reports whether the answer is "yes", ignoring case and
// surrounding whitespace. Anything else means no.
func ParseYesNo(s string) bool {
	return strings.ToLower(strings.TrimSpace(s)) == "yes"
}

// StatsLines renders library statistics as display lines.
func StatsLines(st catalog.Stats) []string {
	if st.Empty() {
		return []string{"📊 No books in library."}
	}
	return []string{
		fmt.Sprintf("📚 Total books: %d", st.Total),
		fmt.Sprintf("📘 Percentage read: %s%%", st.PercentLabel()),
	}
}
