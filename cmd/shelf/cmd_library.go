package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shelf/cmd/shelf/ui"
	"shelf/internal/catalog"
	"shelf/internal/logging"
	"shelf/internal/session"
	"shelf/internal/store"
)

var (
	addTitle  string
	addAuthor string
	addYear   int
	addGenre  string
	addRead   bool

	searchBy  string
	listTable bool
)

// addCmd appends one book and saves immediately
var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a book to the library",
	Example: `  shelf add --title Dune --author "Frank Herbert" --year 1965 --genre "Science Fiction" --read`,
	Args:    cobra.NoArgs,
	RunE:    runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove [title]",
	Short: "Remove the first book whose title matches (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search books by title or author substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Display all books",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display library statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

// browseCmd opens the read-only terminal browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and filter the library in a full-screen view",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func registerLibraryCommands(root *cobra.Command) {
	addCmd.Flags().StringVar(&addTitle, "title", "", "Book title (required)")
	addCmd.Flags().StringVar(&addAuthor, "author", "", "Author")
	addCmd.Flags().IntVar(&addYear, "year", 0, "Publication year (required)")
	addCmd.Flags().StringVar(&addGenre, "genre", "", "Genre")
	addCmd.Flags().BoolVar(&addRead, "read", false, "Mark the book as read")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("year")

	searchCmd.Flags().StringVar(&searchBy, "by", string(catalog.FieldTitle), "Field to search: title or author")
	listCmd.Flags().BoolVar(&listTable, "table", false, "Render as an aligned table")

	root.AddCommand(addCmd)
	root.AddCommand(removeCmd)
	root.AddCommand(searchCmd)
	root.AddCommand(listCmd)
	root.AddCommand(statsCmd)
	root.AddCommand(browseCmd)
}

func loadLibrary(cmd *cobra.Command) (catalog.Library, error) {
	lib, err := session.LoadLibrary(openStore(), cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	logger.Debug("Library loaded", zap.String("path", cfg.Library.Path), zap.Int("books", len(lib)))
	return lib, nil
}

// loadLibraryForUpdate loads the library for a command that saves it again.
// An undecodable document is refused rather than replaced, since one-shot
// commands have no point where the user can decide to discard it.
func loadLibraryForUpdate() (catalog.Library, error) {
	lib, err := openStore().Load()
	if err != nil {
		if store.IsParseError(err) {
			logging.CLIError("Refusing to modify undecodable library: %v", err)
			return nil, fmt.Errorf("refusing to modify %s: %w", cfg.Library.Path, err)
		}
		return nil, err
	}
	logger.Debug("Library loaded for update", zap.String("path", cfg.Library.Path), zap.Int("books", len(lib)))
	return lib, nil
}

func saveLibrary(lib catalog.Library) error {
	if err := openStore().Save(lib); err != nil {
		logging.CLIError("Save failed: %v", err)
		logging.Audit(logging.AuditEvent{Type: logging.AuditLibrarySave, Count: len(lib), Error: err.Error()})
		return fmt.Errorf("failed to save library: %w", err)
	}
	logging.Audit(logging.AuditEvent{Type: logging.AuditLibrarySave, Success: true, Count: len(lib)})
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForUpdate()
	if err != nil {
		return err
	}

	b := lib.AddBook(addTitle, addAuthor, addYear, addGenre, addRead)
	logging.Audit(logging.AuditEvent{Type: logging.AuditBookAdd, Target: b.Title, Success: true, Count: len(lib)})
	if err := saveLibrary(lib); err != nil {
		return err
	}

	logging.CLI("Added %q", b.Title)
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Book added successfully!")
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForUpdate()
	if err != nil {
		return err
	}

	removed, err := lib.RemoveBook(args[0])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			logging.Audit(logging.AuditEvent{Type: logging.AuditBookNotFound, Target: args[0], Count: len(lib), Error: err.Error()})
			fmt.Fprintln(cmd.OutOrStdout(), "❌ Book not found.")
		}
		return err
	}
	logging.Audit(logging.AuditEvent{Type: logging.AuditBookRemove, Target: removed.Title, Success: true, Count: len(lib)})

	if err := saveLibrary(lib); err != nil {
		return err
	}
	logging.CLI("Removed %q", removed.Title)
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Book removed successfully!")
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	field, err := catalog.ParseSearchField(searchBy)
	if err != nil {
		return err
	}

	lib, err := loadLibrary(cmd)
	if err != nil {
		return err
	}

	matches := lib.SearchBooks(field, args[0])
	logger.Debug("Search", zap.String("field", string(field)), zap.String("keyword", args[0]), zap.Int("matches", len(matches)))

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "❌ No matching books found.")
		return nil
	}
	fmt.Fprintln(out, "🔍 Matching Books:")
	for i, b := range matches {
		fmt.Fprintln(out, catalog.FormatLine(i+1, b))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	lib, err := loadLibrary(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	books := lib.ListAll()
	if len(books) == 0 {
		fmt.Fprintln(out, "📭 Your library is empty.")
		return nil
	}

	if listTable {
		styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
		fmt.Fprint(out, ui.NewBookTable("📖 Your Library:", books).View(styles))
		return nil
	}

	fmt.Fprintln(out, "📖 Your Library:")
	for i, b := range books {
		fmt.Fprintln(out, catalog.FormatLine(i+1, b))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	lib, err := loadLibrary(cmd)
	if err != nil {
		return err
	}
	for _, line := range session.StatsLines(lib.Stats()) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	lib, err := loadLibrary(cmd)
	if err != nil {
		return err
	}
	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	return ui.RunBrowser(lib, styles, cmd.InOrStdin(), cmd.OutOrStdout())
}
