package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"shelf/internal/catalog"
	"shelf/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory LibraryStore that counts saves.
type memStore struct {
	lib     catalog.Library
	loadErr error
	saveErr error
	saves   int
	saved   catalog.Library
}

func (m *memStore) Load() (catalog.Library, error) {
	if m.loadErr != nil {
		return catalog.Library{}, m.loadErr
	}
	out := make(catalog.Library, len(m.lib))
	copy(out, m.lib)
	return out, nil
}

func (m *memStore) Save(lib catalog.Library) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(catalog.Library{}, lib...)
	return nil
}

func run(t *testing.T, st LibraryStore, input string) (*Session, string, error) {
	t.Helper()
	var out bytes.Buffer
	s := New(st, strings.NewReader(input), &out)
	err := s.Run(context.Background())
	return s, out.String(), err
}

func lines(input ...string) string {
	return strings.Join(input, "\n") + "\n"
}

func TestExitSavesEmptyLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	_, out, err := run(t, store.NewFileStore(path), lines("6"))
	require.NoError(t, err)

	assert.Contains(t, out, "📚 Welcome to your Personal Library Manager!")
	assert.Contains(t, out, "6. Save and exit")
	assert.Contains(t, out, "📁 Library saved to file. Goodbye!")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestAddThenListThenSave(t *testing.T) {
	st := &memStore{}
	s, out, err := run(t, st, lines(
		"1", "Dune", "Frank Herbert", "1965", "Science Fiction", "YES",
		"1", "Emma", "Jane Austen", "1815", "Romance", "no",
		"4",
		"6",
	))
	require.NoError(t, err)

	want := catalog.Library{
		{Title: "Dune", Author: "Frank Herbert", Year: 1965, Genre: "Science Fiction", Read: true},
		{Title: "Emma", Author: "Jane Austen", Year: 1815, Genre: "Romance", Read: false},
	}
	if diff := cmp.Diff(want, st.saved); diff != "" {
		t.Fatalf("saved library mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, cmp.Diff(want, s.Library()))
	assert.Equal(t, 1, st.saves)

	assert.Equal(t, 2, strings.Count(out, "✅ Book added successfully!"))
	assert.Contains(t, out, "📖 Your Library:")
	assert.Contains(t, out, "1. Dune by Frank Herbert (1965) - Science Fiction - Read\n")
	assert.Contains(t, out, "2. Emma by Jane Austen (1815) - Romance - Unread\n")
}

func TestInvalidYearReprompts(t *testing.T) {
	st := &memStore{}
	_, out, err := run(t, st, lines("1", "Dune", "Herbert", "nineteen", "19.5", " 1965 ", "SF", "yes", "6"))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "❌ Invalid year. Please enter a whole number."))
	assert.Equal(t, 3, strings.Count(out, "Enter the publication year: "))
	require.Len(t, st.saved, 1)
	assert.Equal(t, 1965, st.saved[0].Year)
}

func TestRemoveBook(t *testing.T) {
	st := &memStore{lib: catalog.Library{{Title: "Dune"}, {Title: "dune"}, {Title: "Emma"}}}
	_, out, err := run(t, st, lines("2", "DUNE", "2", "Neuromancer", "6"))
	require.NoError(t, err)

	assert.Contains(t, out, "✅ Book removed successfully!")
	assert.Contains(t, out, "❌ Book not found.")
	assert.Empty(t, cmp.Diff(catalog.Library{{Title: "dune"}, {Title: "Emma"}}, st.saved))
}

func TestSearch(t *testing.T) {
	st := &memStore{lib: catalog.Library{
		{Title: "Dune", Author: "Herbert", Year: 1965, Genre: "SF"},
		{Title: "Foundation", Author: "Asimov", Year: 1951, Genre: "SF", Read: true},
	}}

	t.Run("by title", func(t *testing.T) {
		_, out, err := run(t, st, lines("3", "1", "dun", "6"))
		require.NoError(t, err)
		assert.Contains(t, out, "Search by:\n1. Title\n2. Author\n")
		assert.Contains(t, out, "🔍 Matching Books:\n1. Dune by Herbert (1965) - SF - Unread\n")
		assert.NotContains(t, out, "Foundation by")
	})

	t.Run("by author", func(t *testing.T) {
		_, out, err := run(t, st, lines("3", "2", "ASIMOV", "6"))
		require.NoError(t, err)
		assert.Contains(t, out, "1. Foundation by Asimov (1951) - SF - Read\n")
	})

	t.Run("no match", func(t *testing.T) {
		_, out, err := run(t, st, lines("3", "1", "zzz", "6"))
		require.NoError(t, err)
		assert.Contains(t, out, "❌ No matching books found.")
	})

	t.Run("unknown field matches nothing", func(t *testing.T) {
		_, out, err := run(t, st, lines("3", "9", "d", "6"))
		require.NoError(t, err)
		assert.Contains(t, out, "❌ No matching books found.")
	})

	for _, choice := range []string{"title", " 1", "Author", "2 "} {
		t.Run("field must be 1 or 2: "+choice, func(t *testing.T) {
			_, out, err := run(t, st, lines("3", choice, "", "6"))
			require.NoError(t, err)
			assert.Contains(t, out, "❌ No matching books found.")
			assert.NotContains(t, out, "🔍 Matching Books:")
		})
	}
}

func TestLongAnswerIsAccepted(t *testing.T) {
	st := &memStore{}
	long := strings.Repeat("x", 70*1024)
	_, out, err := run(t, st, lines(
		"1", "Dune", "Frank Herbert", "1965", "SF", "yes",
		"1", long, "Anon", "2000", "Misc", "no",
		"6",
	))
	require.NoError(t, err)
	assert.Contains(t, out, "📁 Library saved to file. Goodbye!")

	require.Equal(t, 1, st.saves)
	require.Len(t, st.saved, 2)
	assert.Equal(t, "Dune", st.saved[0].Title)
	assert.Equal(t, long, st.saved[1].Title)
}

func TestFinalLineWithoutNewline(t *testing.T) {
	st := &memStore{}
	_, out, err := run(t, st, "4\n6")
	require.NoError(t, err)
	assert.Contains(t, out, "📁 Library saved to file. Goodbye!")
	assert.Equal(t, 1, st.saves)
}

func TestDisplayEmptyAndStats(t *testing.T) {
	_, out, err := run(t, &memStore{}, lines("4", "5", "6"))
	require.NoError(t, err)
	assert.Contains(t, out, "📭 Your library is empty.")
	assert.Contains(t, out, "📊 No books in library.")
	assert.NotContains(t, out, "Percentage read")
}

func TestStats(t *testing.T) {
	st := &memStore{lib: catalog.Library{{Read: true}, {Read: true}, {}, {}}}
	_, out, err := run(t, st, lines("5", "6"))
	require.NoError(t, err)
	assert.Contains(t, out, "📚 Total books: 4\n")
	assert.Contains(t, out, "📘 Percentage read: 50.0%\n")
}

func TestInvalidChoiceContinues(t *testing.T) {
	st := &memStore{}
	_, out, err := run(t, st, lines("7", "", "abc", "6"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "❌ Invalid choice. Please try again."))
	assert.Equal(t, 1, st.saves)
}

func TestInputClosedDoesNotSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	_, _, err := run(t, store.NewFileStore(path), lines("1", "Dune", "Herbert", "1965", "SF", "yes"))
	require.ErrorIs(t, err, ErrInputClosed)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written without the exit option")
}

func TestInputClosedMidPrompt(t *testing.T) {
	st := &memStore{}
	_, _, err := run(t, st, lines("1", "Dune"))
	assert.ErrorIs(t, err, ErrInputClosed)
	assert.Zero(t, st.saves)
}

func TestCancelledContextStopsWithoutSaving(t *testing.T) {
	st := &memStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(st, strings.NewReader(lines("6")), &bytes.Buffer{})
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.saves)
}

// cancelOnRead cancels the session context while a line is being read, the
// way an interrupt arrives while the menu waits for input.
type cancelOnRead struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancelOnRead) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}

func TestCancelWhileWaitingSkipsChoice(t *testing.T) {
	st := &memStore{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	in := &cancelOnRead{r: strings.NewReader(lines("6")), cancel: cancel}
	err := New(st, in, &out).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.saves)
	assert.NotContains(t, out.String(), "Goodbye")
}

func TestMalformedDocumentWarnsAndContinues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, out, err := run(t, store.NewFileStore(path), lines("4", "6"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, MalformedWarning+"\n"))
	assert.Contains(t, out, "📭 Your library is empty.")
	assert.Empty(t, s.Library())
}

func TestEmptyDocumentDoesNotWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	_, out, err := run(t, store.NewFileStore(path), lines("6"))
	require.NoError(t, err)
	assert.NotContains(t, out, "Warning")
}

func TestLoadFailureIsFatal(t *testing.T) {
	boom := errors.New("permission denied")
	_, _, err := run(t, &memStore{loadErr: boom}, lines("6"))
	assert.ErrorIs(t, err, boom)
}

func TestSaveFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	_, out, err := run(t, &memStore{saveErr: boom}, lines("6"))
	require.ErrorIs(t, err, boom)
	assert.NotContains(t, out, "Goodbye")
}

func TestPersistAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	st := store.NewFileStore(path)

	_, _, err := run(t, st, lines("1", "Dune", "Herbert", "1965", "SF", "yes", "6"))
	require.NoError(t, err)

	_, out, err := run(t, st, lines("4", "6"))
	require.NoError(t, err)
	assert.Contains(t, out, "1. Dune by Herbert (1965) - SF - Read")
}

func TestParseHelpers(t *testing.T) {
	y, err := ParseYear(" 2001\t")
	require.NoError(t, err)
	assert.Equal(t, 2001, y)
	_, err = ParseYear("")
	assert.Error(t, err)

	assert.True(t, ParseYesNo(" Yes "))
	assert.False(t, ParseYesNo("y"))
	assert.False(t, ParseYesNo("no"))

	assert.Equal(t, []string{"📊 No books in library."}, StatsLines(catalog.Stats{}))
	assert.Equal(t, []string{"📚 Total books: 3", "📘 Percentage read: 33.3%"}, StatsLines(catalog.Stats{Total: 3, Read: 1}))
}
