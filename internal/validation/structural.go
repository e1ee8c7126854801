package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed mapping.schema.json
var mappingSchemaJSON []byte

const mappingSchemaURL = "mapping.schema.json"

// StructuralValidator checks the grammar of a raw mapping document against
// the embedded JSON Schema.
type StructuralValidator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// NewStructuralValidator compiles the embedded document schema.
func NewStructuralValidator() (*StructuralValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(mappingSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(mappingSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add mapping schema: %w", err)
	}
	sch, err := c.Compile(mappingSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mapping schema: %w", err)
	}

	return &StructuralValidator{
		schema:  sch,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Check validates raw and returns one discrepancy per violated leaf
// constraint, sorted by path.
func (v *StructuralValidator) Check(raw map[string]any) ([]Discrepancy, error) {
	inst, err := toInstance(raw)
	if err != nil {
		return nil, err
	}

	err = v.schema.Validate(inst)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("failed to validate mapping document: %w", err)
	}

	var out []Discrepancy
	for _, leaf := range leaves(verr) {
		out = append(out, v.translate(leaf))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Detail < out[j].Detail
	})
	return dedupe(out), nil
}

// toInstance converts a YAML-decoded map into the value model the schema
// library validates.
func toInstance(raw map[string]any) (any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping document: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping document: %w", err)
	}
	return inst, nil
}

// leaves flattens the error tree. A failed oneOf or anyOf is reported as a
// whole; its branches only explain why no alternative matched.
func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	switch e.ErrorKind.(type) {
	case *kind.OneOf, *kind.AnyOf:
		return []*jsonschema.ValidationError{e}
	}
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}

	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func (v *StructuralValidator) translate(e *jsonschema.ValidationError) Discrepancy {
	path := pointer(e.InstanceLocation)
	at := "root"
	if path != "" {
		at = "`" + path + "`"
	}

	d := Discrepancy{Code: CodeStructural, Path: path}

	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		d.Detail = fmt.Sprintf("object at %s is missing required properties: %s", at, strings.Join(k.Missing, ", "))
	case *kind.Type:
		if len(k.Want) == 1 {
			d.Detail = fmt.Sprintf("value at %s is not a %s", at, k.Want[0])
		} else {
			d.Detail = fmt.Sprintf("value at %s is not one of the types: %s", at, strings.Join(k.Want, ", "))
		}
	case *kind.Not:
		if isColumnsLocation(e.InstanceLocation) {
			d.Code = CodeIncludeExcludeNotAllowed
			d.Detail = fmt.Sprintf("`include` and `exclude` can't be used together at %s", at)
		} else {
			d.Detail = fmt.Sprintf("%s: %s", at, k.LocalizedString(v.printer))
		}
	case *kind.OneOf:
		if isTableLocation(e.InstanceLocation) {
			d.Detail = fmt.Sprintf("table at %s must define exactly one of `copy_of` or `columns`", at)
		} else {
			d.Detail = fmt.Sprintf("%s: %s", at, k.LocalizedString(v.printer))
		}
	default:
		d.Detail = fmt.Sprintf("%s: %s", at, e.ErrorKind.LocalizedString(v.printer))
	}
	return d
}

// isTableLocation matches /schema/tables/<name>.
func isTableLocation(loc []string) bool {
	return len(loc) == 3 && loc[0] == "schema" && loc[1] == "tables"
}

// isColumnsLocation matches /schema/tables/<name>/columns.
func isColumnsLocation(loc []string) bool {
	return len(loc) == 4 && loc[0] == "schema" && loc[1] == "tables" && loc[3] == "columns"
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointer renders an instance location as a JSON pointer. The root is "".
func pointer(loc []string) string {
	var b strings.Builder
	for _, tok := range loc {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(tok))
	}
	return b.String()
}

func dedupe(ds []Discrepancy) []Discrepancy {
	var out []Discrepancy
	for _, d := range ds {
		if n := len(out); n > 0 && out[n-1].Path == d.Path && out[n-1].Detail == d.Detail {
			continue
		}
		out = append(out, d)
	}
	return out
}
