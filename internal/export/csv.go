package export

import (
	"encoding/csv"
	"io"

	"github.com/0khacha/web-scraper/internal/model"
)

// CSVWriter outputs items as CSV with a header row. Columns are the union
// of all field names so heterogeneous items share one table; missing
// fields render as empty cells.
type CSVWriter struct{}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// Format returns the format name.
func (w *CSVWriter) Format() string { return "csv" }

// Extension returns the file extension.
func (w *CSVWriter) Extension() string { return "csv" }

// Write outputs the header row followed by one row per item.
func (w *CSVWriter) Write(out io.Writer, items []model.Item) error {
	cw := csv.NewWriter(out)

	columns := columnOrder(items)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, item := range items {
		for i, col := range columns {
			row[i] = item[col]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
