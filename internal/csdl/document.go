// Package csdl reads the flattened CSDL JSON representation of an OData V4 service.
//
// A Document is the decoded JSON object as a V4 meta model exposes it: top-level keys are
// either "$"-prefixed service properties ($Version, $EntityContainer, $Annotations) or
// fully-qualified schema element names whose values carry a "$kind" discriminant. All
// accessors are tolerant: missing or mistyped optional fields yield the documented default.
package csdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminant values found under the "$kind" key.
const (
	KindSchema             = "Schema"
	KindEntityType         = "EntityType"
	KindComplexType        = "ComplexType"
	KindProperty           = "Property"
	KindNavigationProperty = "NavigationProperty"
	KindEntityContainer    = "EntityContainer"
	KindEntitySet          = "EntitySet"
	KindSingleton          = "Singleton"
	KindActionImport       = "ActionImport"
	KindFunctionImport     = "FunctionImport"
	KindAction             = "Action"
	KindFunction           = "Function"
	KindTypeDefinition     = "TypeDefinition"
)

// Structural keys of the JSON representation.
const (
	KeyKind                      = "$kind"
	KeyVersion                   = "$Version"
	KeyEntityContainer           = "$EntityContainer"
	KeyAnnotations               = "$Annotations"
	KeyType                      = "$Type"
	KeyKey                       = "$Key"
	KeyBaseType                  = "$BaseType"
	KeyAbstract                  = "$Abstract"
	KeyOpenType                  = "$OpenType"
	KeyHasStream                 = "$HasStream"
	KeyIsCollection              = "$isCollection"
	KeyNullable                  = "$Nullable"
	KeyMaxLength                 = "$MaxLength"
	KeyPrecision                 = "$Precision"
	KeyScale                     = "$Scale"
	KeyDefaultValue              = "$DefaultValue"
	KeyPartner                   = "$Partner"
	KeyContainsTarget            = "$ContainsTarget"
	KeyReferentialConstraint     = "$ReferentialConstraint"
	KeyNavigationPropertyBinding = "$NavigationPropertyBinding"
	KeyIsBound                   = "$IsBound"
	KeyParameter                 = "$Parameter"
	KeyName                      = "$Name"
	KeyReturnType                = "$ReturnType"
	KeyAction                    = "$Action"
	KeyFunction                  = "$Function"
	KeyUnderlyingType            = "$UnderlyingType"
)

// Document is a decoded CSDL JSON document.
type Document map[string]any

// Parse decodes a CSDL JSON document. Numbers are kept as json.Number so integral
// values survive without float rounding.
func Parse(r io.Reader) (Document, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode metadata document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("metadata document is empty")
	}
	return doc, nil
}

// ParseBytes decodes a CSDL JSON document held in memory.
func ParseBytes(data []byte) (Document, error) {
	return Parse(bytes.NewReader(data))
}

// Version returns the $Version of the document, or an empty string.
func (d Document) Version() string {
	return String(d, KeyVersion)
}

// EntityContainerName returns the fully-qualified name of the entity container.
func (d Document) EntityContainerName() string {
	return String(d, KeyEntityContainer)
}

// Element returns the raw object stored under a fully-qualified name.
func (d Document) Element(name string) (map[string]any, bool) {
	return Map(d, name)
}

// ElementNames returns the names of all schema elements in sorted order.
// "$"-prefixed service properties and schema entries ("ns.") are skipped.
func (d Document) ElementNames() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		if strings.HasPrefix(name, "$") || strings.HasSuffix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Annotations returns the merged annotation map of the document: the top-level
// $Annotations and the $Annotations of every Schema entry. Targets present in more
// than one place have their annotation records merged key by key.
func (d Document) Annotations() map[string]any {
	merged := make(map[string]any)
	mergeAnnotations(merged, Map0(d, KeyAnnotations))

	schemaNames := make([]string, 0)
	for name, value := range d {
		if obj, ok := value.(map[string]any); ok && String(obj, KeyKind) == KindSchema {
			schemaNames = append(schemaNames, name)
		}
	}
	sort.Strings(schemaNames)
	for _, name := range schemaNames {
		schema, _ := Map(d, name)
		mergeAnnotations(merged, Map0(schema, KeyAnnotations))
	}
	return merged
}

func mergeAnnotations(into map[string]any, from map[string]any) {
	for target, raw := range from {
		record, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		existing, ok := into[target].(map[string]any)
		if !ok {
			copied := make(map[string]any, len(record))
			for k, v := range record {
				copied[k] = v
			}
			into[target] = copied
			continue
		}
		for k, v := range record {
			existing[k] = v
		}
	}
}

// Kind returns the $kind of a raw object.
func Kind(obj map[string]any) string {
	return String(obj, KeyKind)
}

// String returns obj[key] when it is a string.
func String(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// Bool returns obj[key] when it is a bool, otherwise def.
func Bool(obj map[string]any, key string, def bool) bool {
	if obj == nil {
		return def
	}
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return def
}

// Int returns obj[key] as an int when it holds an integral number, otherwise 0.
func Int(obj map[string]any, key string) int {
	if obj == nil {
		return 0
	}
	if n, ok := ToInt64(obj[key]); ok {
		return int(n)
	}
	return 0
}

// Map returns obj[key] when it is an object.
func Map(obj map[string]any, key string) (map[string]any, bool) {
	if obj == nil {
		return nil, false
	}
	m, ok := obj[key].(map[string]any)
	return m, ok
}

// Map0 returns obj[key] when it is an object, or nil.
func Map0(obj map[string]any, key string) map[string]any {
	m, _ := Map(obj, key)
	return m
}

// Slice returns obj[key] when it is an array, or nil.
func Slice(obj map[string]any, key string) []any {
	if obj == nil {
		return nil
	}
	if s, ok := obj[key].([]any); ok {
		return s
	}
	return nil
}

// SortedKeys returns the keys of a raw object in sorted order.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// integral reports whether f is a whole number that fits into an int64.
// float64(math.MaxInt64) rounds up to 2^63, hence the strict upper bound.
func integral(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// ToInt64 converts an integral JSON number of any decoded representation.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && integral(f) {
			return int64(f), true
		}
	case float64:
		if integral(n) {
			return int64(n), true
		}
	case float32:
		if integral(float64(n)) {
			return int64(n), true
		}
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// IsNumber reports whether v is a decoded JSON number.
func IsNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int32, int64:
		return true
	}
	return false
}

// NumberString renders a decoded JSON number without loss.
func NumberString(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}

// Namespace returns the namespace part of a qualified name ("a.b.C" -> "a.b").
func Namespace(qualifiedName string) string {
	if idx := strings.LastIndex(qualifiedName, "."); idx >= 0 {
		return qualifiedName[:idx]
	}
	return ""
}

// LocalName returns the unqualified part of a qualified name ("a.b.C" -> "C").
func LocalName(qualifiedName string) string {
	if idx := strings.LastIndex(qualifiedName, "."); idx >= 0 {
		return qualifiedName[idx+1:]
	}
	return qualifiedName
}
