package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shelf/internal/catalog"
)

// BrowserModel is a read-only bubbletea view over a library. It filters by
// title or author with the same matching rules as the search command and
// never mutates the library.
type BrowserModel struct {
	books   catalog.Library
	visible []catalog.Book
	cursor  int
	offset  int
	height  int

	filter    textinput.Model
	filtering bool
	field     catalog.SearchField

	styles Styles
}

// NewBrowser creates a browser showing every book in lib.
func NewBrowser(lib catalog.Library, styles Styles) BrowserModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	m := BrowserModel{
		books:  lib,
		filter: ti,
		field:  catalog.FieldTitle,
		styles: styles,
		height: 20,
	}
	m.refilter()
	return m
}

// Visible returns the books currently shown.
func (m BrowserModel) Visible() []catalog.Book {
	return m.visible
}

// Cursor returns the index of the highlighted book within Visible.
func (m BrowserModel) Cursor() int {
	return m.cursor
}

// Field returns the attribute the filter matches against.
func (m BrowserModel) Field() catalog.SearchField {
	return m.field
}

// Filtering reports whether the filter box has focus.
func (m BrowserModel) Filtering() bool {
	return m.filtering
}

func (m *BrowserModel) refilter() {
	m.visible = m.books.SearchBooks(m.field, m.filter.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOffset()
}

func (m *BrowserModel) toggleField() {
	if m.field == catalog.FieldTitle {
		m.field = catalog.FieldAuthor
	} else {
		m.field = catalog.FieldTitle
	}
	m.refilter()
}

func (m *BrowserModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if rows := m.height; rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, filter line, footer
		m.height = msg.Height - 5
		if m.height < 1 {
			m.height = 1
		}
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.visible) > 0 {
				m.cursor = len(m.visible) - 1
			}
		case "tab":
			m.toggleField()
		case "/":
			m.filtering = true
			return m, m.filter.Focus()
		}
		m.clampOffset()
	}
	return m, nil
}

func (m BrowserModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.refilter()
		return m, nil
	case "tab":
		m.toggleField()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

func (m BrowserModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("📖 Your Library (%d of %d)", len(m.visible), len(m.books))))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("by " + string(m.field) + " "))
	sb.WriteString(m.filter.View())
	sb.WriteString("\n")

	if len(m.visible) == 0 {
		if len(m.books) == 0 {
			sb.WriteString(m.styles.Muted.Render("📭 Your library is empty."))
		} else {
			sb.WriteString(m.styles.Error.Render("❌ No matching books found."))
		}
		sb.WriteString("\n")
	}

	end := m.offset + m.height
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := m.offset; i < end; i++ {
		line := catalog.FormatLine(i+1, m.visible[i])
		if i == m.cursor {
			sb.WriteString(m.styles.Cursor.Render("> " + line))
		} else {
			sb.WriteString(m.styles.Body.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.Footer.Render("↑/↓ move • / filter • tab title/author • q quit"))
	return sb.String()
}

// RunBrowser runs the browser until the user quits.
func RunBrowser(lib catalog.Library, styles Styles, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewBrowser(lib, styles), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
