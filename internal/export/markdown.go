package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/0khacha/web-scraper/internal/model"
)

// MarkdownWriter outputs items as a Markdown document with a summary and
// a results table. This format is for humans reviewing a scrape, not for
// machine consumption.
type MarkdownWriter struct {
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{now: time.Now}
}

// Format returns the format name.
func (w *MarkdownWriter) Format() string { return "markdown" }

// Extension returns the file extension.
func (w *MarkdownWriter) Extension() string { return "md" }

// maxCellLen bounds table cell width; smart-fallback content fields can
// hold thousands of characters and would wreck table rendering.
const maxCellLen = 120

// Write outputs the document: header, summary table, results table.
func (w *MarkdownWriter) Write(out io.Writer, items []model.Item) error {
	md := markdown.NewMarkdown(out)

	md.H1("Scrape Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Items", fmt.Sprintf("%d", len(items))},
			{"Exported", w.now().Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if len(items) == 0 {
		md.PlainText("No items were extracted.")
		return md.Build()
	}

	columns := columnOrder(items)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cell(item[col])
		}
		rows = append(rows, row)
	}

	md.H2("Items")
	md.Table(markdown.TableSet{
		Header: columns,
		Rows:   rows,
	})

	return md.Build()
}

// cell makes a value safe for a Markdown table: newlines and pipes are
// replaced and long values truncated.
func cell(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "|", "\\|")
	runes := []rune(v)
	if len(runes) > maxCellLen {
		return string(runes[:maxCellLen]) + "..."
	}
	return v
}
