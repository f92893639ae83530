package export

import (
	"encoding/json"
	"io"

	"github.com/0khacha/web-scraper/internal/model"
)

// JSONWriter outputs items as an indented JSON array. This is the format
// downstream tooling consumes, so it carries every field of every item
// without the column flattening the tabular formats apply.
type JSONWriter struct{}

// NewJSONWriter creates a JSONWriter.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// Format returns the format name.
func (w *JSONWriter) Format() string { return "json" }

// Extension returns the file extension.
func (w *JSONWriter) Extension() string { return "json" }

// Write outputs all items as a JSON array. An empty slice writes [] so
// consumers always get valid JSON.
func (w *JSONWriter) Write(out io.Writer, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(items)
}
