package core

import (
	"fmt"
	"sort"
)

// =============================================================================
// Native types
// =============================================================================

// NativeType is an adapter-neutral classification of a live column type.
// Adapters map their raw type names onto these values; a raw type they do not
// recognise is kept as its lower-cased name and fails canonicalization.
type NativeType string

// Native type classifications reported by adapters.
const (
	NativeBinary   NativeType = "binary"
	NativeBoolean  NativeType = "boolean"
	NativeDate     NativeType = "date"
	NativeDatetime NativeType = "datetime"
	NativeEnum     NativeType = "enum"
	NativeFloat    NativeType = "float"
	NativeInet     NativeType = "inet"
	NativeInteger  NativeType = "integer"
	NativeJSON     NativeType = "json"
	NativeJSONB    NativeType = "jsonb"
	NativeNumeric  NativeType = "numeric"
	NativeString   NativeType = "string"
	NativeText     NativeType = "text"
	NativeUUID     NativeType = "uuid"
)

// =============================================================================
// Canonical datatypes
// =============================================================================

// Datatype is one of the closed set of portable column types every native
// type is mapped into before resolution.
type Datatype string

// Canonical datatypes.
const (
	DatatypeBlob     Datatype = "blob"
	DatatypeBoolean  Datatype = "boolean"
	DatatypeDate     Datatype = "date"
	DatatypeDatetime Datatype = "datetime"
	DatatypeFloat    Datatype = "float"
	DatatypeInet     Datatype = "inet"
	DatatypeInteger  Datatype = "integer"
	DatatypeJSON     Datatype = "json"
	DatatypeNumeric  Datatype = "numeric"
	DatatypeText     Datatype = "text"
)

// canonicalTypes maps every known type name onto its canonical datatype.
// Keys cover both native classifications and the canonical names themselves,
// so a configured override may use either vocabulary.
var canonicalTypes = map[string]Datatype{
	string(NativeBinary): DatatypeBlob,
	string(NativeString): DatatypeText,
	string(NativeEnum):   DatatypeText,
	string(NativeUUID):   DatatypeText,
	string(NativeJSONB):  DatatypeJSON,

	string(DatatypeBlob):     DatatypeBlob,
	string(DatatypeBoolean):  DatatypeBoolean,
	string(DatatypeDate):     DatatypeDate,
	string(DatatypeDatetime): DatatypeDatetime,
	string(DatatypeFloat):    DatatypeFloat,
	string(DatatypeInet):     DatatypeInet,
	string(DatatypeInteger):  DatatypeInteger,
	string(DatatypeJSON):     DatatypeJSON,
	string(DatatypeNumeric):  DatatypeNumeric,
	string(DatatypeText):     DatatypeText,
}

// Canonicalize maps a native or canonical type name onto its canonical datatype.
// An unmapped name means the canonical table is incomplete; the returned
// *UnknownDatatypeError must abort the run.
func Canonicalize(name string) (Datatype, error) {
	if dt, ok := canonicalTypes[name]; ok {
		return dt, nil
	}
	return "", &UnknownDatatypeError{Name: name}
}

// IsKnownDatatype reports whether name can be canonicalized.
func IsKnownDatatype(name string) bool {
	_, ok := canonicalTypes[name]
	return ok
}

// KnownDatatypeNames returns every accepted type name, sorted.
func KnownDatatypeNames() []string {
	names := make([]string, 0, len(canonicalTypes))
	for name := range canonicalTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDatatypeError is an internal defect: a type reached resolution that
// the canonical table does not cover. It is never a user-facing discrepancy.
type UnknownDatatypeError struct {
	Name   string
	Table  string
	Column string
}

func (e *UnknownDatatypeError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("unknown datatype %q for column %s.%s", e.Name, e.Table, e.Column)
	}
	return fmt.Sprintf("unknown datatype %q", e.Name)
}
