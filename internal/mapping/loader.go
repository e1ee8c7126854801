package mapping

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source is a mapping document as read from disk, before structural
// validation. Raw keeps the exact key layout so that include/exclude
// presence survives decoding.
type Source struct {
	// Path is the file the document was read from. Empty for in-memory documents.
	Path string
	// Dir is the directory relative output paths resolve against.
	Dir string
	Raw map[string]any
}

// Load reads a mapping document from a YAML file.
func Load(path string) (*Source, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load mapping document %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	return &Source{Path: path, Dir: dir, Raw: k.Raw()}, nil
}

// Parse reads a mapping document from YAML bytes. Relative output paths
// resolve against dir.
func Parse(data []byte, dir string) (*Source, error) {
	m, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping document: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(m, ""), nil); err != nil {
		return nil, fmt.Errorf("failed to parse mapping document: %w", err)
	}
	return &Source{Dir: dir, Raw: k.Raw()}, nil
}

// Decode converts the raw document into its typed form. It expects a
// structurally valid document; shape errors are reported as decode errors.
func (s *Source) Decode() (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		TagName:          "mapstructure",
		WeaklyTypedInput: true, // index columns may be a single name
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(s.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode mapping document: %w", err)
	}

	for name, table := range doc.Schema.Tables {
		if table.Columns == nil {
			continue
		}
		if hasColumnKey(s.Raw, name, "exclude") {
			table.Columns.Mode = ModeExclude
		}
		doc.Schema.Tables[name] = table
	}
	return &doc, nil
}

// hasColumnKey reports whether schema.tables.<table>.columns.<key> is
// present in the raw document, even with an empty list.
func hasColumnKey(raw map[string]any, table, key string) bool {
	node := any(raw)
	for _, part := range []string{"schema", "tables", table, "columns"} {
		m, ok := node.(map[string]any)
		if !ok {
			return false
		}
		node = m[part]
	}
	m, ok := node.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[key]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
