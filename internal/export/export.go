package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/0khacha/web-scraper/internal/model"
)

// Writer outputs items in one format.
//
// Design decision: Writers take an io.Writer rather than a path so the
// same implementation serves files, stdout, and buffers in tests. File
// handling lives in the Manager.
type Writer interface {
	// Format returns the format name used for registration and lookup.
	Format() string

	// Extension returns the file extension without the dot.
	Extension() string

	// Write outputs all items to w.
	Write(w io.Writer, items []model.Item) error
}

// Manager holds the registered format writers.
type Manager struct {
	writers map[string]Writer
}

// NewManager creates a Manager with all built-in formats registered.
func NewManager() *Manager {
	m := &Manager{writers: make(map[string]Writer)}
	m.Register(NewJSONWriter())
	m.Register(NewCSVWriter())
	m.Register(NewMarkdownWriter())
	return m
}

// Register adds or replaces a format writer.
func (m *Manager) Register(w Writer) {
	m.writers[w.Format()] = w
}

// Formats returns the registered format names, sorted.
func (m *Manager) Formats() []string {
	names := make([]string, 0, len(m.writers))
	for name := range m.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export writes items in each requested format under outDir, named
// baseName plus the format's extension. It returns format to written
// path. An unknown format fails before any file is written.
func (m *Manager) Export(items []model.Item, formats []string, outDir, baseName string) (map[string]string, error) {
	for _, format := range formats {
		if _, ok := m.writers[format]; !ok {
			return nil, fmt.Errorf("unknown export format %q (available: %v)", format, m.Formats())
		}
	}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make(map[string]string, len(formats))
	for _, format := range formats {
		w := m.writers[format]
		path := filepath.Join(outDir, baseName+"."+w.Extension())

		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("failed to create %s output: %w", format, err)
		}

		if err := w.Write(f, items); err != nil {
			_ = f.Close()
			return paths, fmt.Errorf("failed to write %s output: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return paths, fmt.Errorf("failed to close %s output: %w", format, err)
		}

		paths[format] = path
	}

	return paths, nil
}

// columnOrder derives a stable column ordering across heterogeneous
// items: well-known fields first, then the remaining union of field names
// sorted. CSV and Markdown share it so their tables line up.
func columnOrder(items []model.Item) []string {
	seen := make(map[string]bool)
	for _, item := range items {
		for k := range item {
			seen[k] = true
		}
	}

	leading := []string{"title", "name", "link", model.FieldURL}
	var columns []string
	for _, k := range leading {
		if seen[k] {
			columns = append(columns, k)
			delete(seen, k)
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(columns, rest...)
}
