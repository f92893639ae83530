package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/0khacha/web-scraper/internal/model"
)

// Normalize trims whitespace on every string field. It never drops.
type Normalize struct{}

// NewNormalize creates the normalization stage.
func NewNormalize() *Normalize {
	return &Normalize{}
}

// Name returns the stage name.
func (n *Normalize) Name() string { return "normalize" }

// Apply returns a clone of the item with all values trimmed.
func (n *Normalize) Apply(item model.Item) (model.Item, bool) {
	out := make(model.Item, len(item))
	for k, v := range item {
		out[k] = strings.TrimSpace(v)
	}
	return out, true
}

// Validate drops items missing a title-equivalent field.
type Validate struct{}

// NewValidate creates the validation stage.
func NewValidate() *Validate {
	return &Validate{}
}

// Name returns the stage name.
func (v *Validate) Name() string { return "validate" }

// Apply passes the item through unless its title is empty.
func (v *Validate) Apply(item model.Item) (model.Item, bool) {
	if item.Title() == "" {
		return nil, false
	}
	return item, true
}

// Deduplicate drops items whose fingerprint was already seen in this run.
// The fingerprint prefers a link/URL field and falls back to a structural
// hash of all fields, so records without links still deduplicate.
//
// The seen set is run-scoped and held in memory only; it is not persisted
// across restarts. A Seeder can preload fingerprints (e.g. from the state
// store's saved items) when cross-run dedup is wanted.
type Deduplicate struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// Seeder yields fingerprints to preload into the seen set.
type Seeder func() []string

// NewDeduplicate creates the deduplication stage with an empty seen set.
func NewDeduplicate(seeders ...Seeder) *Deduplicate {
	d := &Deduplicate{seen: make(map[string]struct{})}
	for _, seed := range seeders {
		for _, fp := range seed() {
			d.seen[fp] = struct{}{}
		}
	}
	return d
}

// Name returns the stage name.
func (d *Deduplicate) Name() string { return "deduplicate" }

// Apply drops the item when its fingerprint was seen before.
// The insert-check is atomic under the mutex, so the membership test is
// order-independent under concurrent callers.
func (d *Deduplicate) Apply(item model.Item) (model.Item, bool) {
	fp := Fingerprint(item)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.seen[fp]; dup {
		return nil, false
	}
	d.seen[fp] = struct{}{}
	return item, true
}

// Fingerprint derives a duplicate-detection value for an item: the link
// field when present, else the url field, else a hash over all fields in
// sorted order.
func Fingerprint(item model.Item) string {
	if link := item["link"]; link != "" {
		return link
	}
	if u := item[model.FieldURL]; u != "" {
		return u
	}

	h := sha256.New()
	for _, k := range item.FieldNames() {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(item[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaValidate drops items failing a configured JSON schema.
// Without a schema it passes every item through unchanged.
type SchemaValidate struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidate compiles the schema once at construction.
// schemaJSON may be nil for a pass-through stage. A malformed schema is a
// configuration error and is reported immediately rather than silently
// dropping every item later.
func NewSchemaValidate(schemaJSON []byte) (*SchemaValidate, error) {
	s := &SchemaValidate{}
	if len(schemaJSON) == 0 {
		return s, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, err
	}
	s.schema = schema
	return s, nil
}

// Name returns the stage name.
func (s *SchemaValidate) Name() string { return "schema_validate" }

// Apply validates the item against the schema, dropping on failure.
func (s *SchemaValidate) Apply(item model.Item) (model.Item, bool) {
	if s.schema == nil {
		return item, true
	}

	doc := make(map[string]any, len(item))
	for k, v := range item {
		doc[k] = v
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		return nil, false
	}
	return item, true
}
