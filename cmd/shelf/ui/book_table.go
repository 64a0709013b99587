package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shelf/internal/catalog"
)

var bookHeaders = []string{"#", "Title", "Author", "Year", "Genre", "Status"}

// BookTable renders books as an aligned table.
type BookTable struct {
	Title string
	Rows  [][]string

	read []bool
}

// NewBookTable creates a table with one row per book, numbered from 1.
func NewBookTable(title string, books []catalog.Book) *BookTable {
	t := &BookTable{Title: title, Rows: make([][]string, 0, len(books))}
	for i, b := range books {
		t.read = append(t.read, b.Read)
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1), b.Title, b.Author, strconv.Itoa(b.Year), b.Genre, b.Status(),
		})
	}
	return t
}

// View renders the table using the provided styles. An empty table renders
// as the empty string.
func (t *BookTable) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(bookHeaders))
	for i, h := range bookHeaders {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}
	// lipgloss Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Copy().Padding(0, 1)
	rowStyle := styles.Body.Copy().Padding(0, 1)
	sepStyle := styles.Divider
	statusCol := len(bookHeaders) - 1

	for i, h := range bookHeaders {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(bookHeaders)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(bookHeaders) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for r, row := range t.Rows {
		for i, cell := range row {
			style := rowStyle
			if i == statusCol && r < len(t.read) {
				style = styles.StatusStyle(t.read[r]).Copy().Padding(0, 1)
			}
			sb.WriteString(style.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
