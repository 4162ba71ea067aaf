package expression

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

// Marker keys of the JSON annotation representation.
const (
	MarkerPath                   = "$Path"
	MarkerPropertyPath           = "$PropertyPath"
	MarkerNavigationPropertyPath = "$NavigationPropertyPath"
	MarkerAnnotationPath         = "$AnnotationPath"
	MarkerDecimal                = "$Decimal"
	MarkerEnumMember             = "$EnumMember"
	MarkerType                   = "$Type"
	MarkerFunction               = "$Function"
	MarkerApply                  = "$Apply"
	MarkerIf                     = "$If"
	MarkerAnd                    = "$And"
	MarkerOr                     = "$Or"
	MarkerNot                    = "$Not"
	MarkerEq                     = "$Eq"
	MarkerNe                     = "$Ne"
	MarkerGt                     = "$Gt"
	MarkerGe                     = "$Ge"
	MarkerLt                     = "$Lt"
	MarkerLe                     = "$Le"
)

var pathMarkers = []struct {
	marker string
	tag    Type
}{
	{MarkerPath, TypePath},
	{MarkerPropertyPath, TypePropertyPath},
	{MarkerNavigationPropertyPath, TypeNavigationPropertyPath},
	{MarkerAnnotationPath, TypeAnnotationPath},
}

var operatorMarkers = []struct {
	marker string
	tag    Type
}{
	{MarkerIf, TypeIf},
	{MarkerAnd, TypeAnd},
	{MarkerOr, TypeOr},
	{MarkerNot, TypeNot},
	{MarkerEq, TypeEq},
	{MarkerNe, TypeNe},
	{MarkerGt, TypeGt},
	{MarkerGe, TypeGe},
	{MarkerLt, TypeLt},
	{MarkerLe, TypeLe},
	{MarkerApply, TypeApply},
}

// collectionItemMarkers is the precedence used to tag a collection from its first item.
var collectionItemMarkers = []struct {
	marker string
	tag    Type
}{
	{MarkerPropertyPath, TypePropertyPath},
	{MarkerPath, TypePath},
	{MarkerNavigationPropertyPath, TypeNavigationPropertyPath},
	{MarkerAnnotationPath, TypeAnnotationPath},
	{MarkerType, TypeRecord},
	{MarkerIf, TypeIf},
	{MarkerOr, TypeOr},
	{MarkerAnd, TypeAnd},
	{MarkerEq, TypeEq},
	{MarkerNe, TypeNe},
	{MarkerNot, TypeNot},
	{MarkerGt, TypeGt},
	{MarkerGe, TypeGe},
	{MarkerLt, TypeLt},
	{MarkerLe, TypeLe},
	{MarkerApply, TypeApply},
}

// AnnotationSink receives annotations found inside records ("@" keys). target is
// the annotation target of the record that carried them.
type AnnotationSink interface {
	AddAnnotation(target, key string, raw any)
}

// Parser converts raw annotation values. It holds no state besides the sink.
type Parser struct {
	sink AnnotationSink
}

// NewParser returns a parser that routes nested annotations to sink. A nil sink
// discards them.
func NewParser(sink AnnotationSink) *Parser {
	return &Parser{sink: sink}
}

// ParseValue parses the value of a named record property. The value is parsed at
// target/name.
func (p *Parser) ParseValue(name string, raw any, target string) NamedExpression {
	return NamedExpression{
		Name:  name,
		Value: p.ParseExpression(raw, target+"/"+name),
	}
}

// ParseExpression parses a bare raw value. The first matching rule wins.
func (p *Parser) ParseExpression(raw any, target string) Expression {
	switch v := raw.(type) {
	case nil:
		return Expression{Type: TypeNull}
	case string:
		return NewString(v)
	case bool:
		return Expression{Type: TypeBool, Bool: v}
	case []any:
		return Expression{Type: TypeCollection, Collection: p.parseCollection(v, target)}
	case map[string]any:
		return p.parseObject(v, target)
	}

	if csdl.IsNumber(raw) {
		if n, ok := csdl.ToInt64(raw); ok {
			return Expression{Type: TypeInt, Int: n}
		}
		return Expression{Type: TypeDecimal, Decimal: parseDecimal(raw)}
	}

	// Anything else is not representable in JSON; keep its text.
	return NewString(csdl.NumberString(raw))
}

func (p *Parser) parseObject(obj map[string]any, target string) Expression {
	for _, m := range pathMarkers {
		if v, ok := obj[m.marker]; ok {
			return Expression{Type: m.tag, Path: stringOf(v)}
		}
	}
	if v, ok := obj[MarkerDecimal]; ok {
		return Expression{Type: TypeDecimal, Decimal: parseDecimal(v)}
	}
	if v, ok := obj[MarkerEnumMember]; ok {
		return Expression{Type: TypeEnumMember, EnumMember: vocabulary.RewriteEnumMember(stringOf(v))}
	}
	for _, m := range operatorMarkers {
		if v, ok := obj[m.marker]; ok {
			expr := Expression{Type: m.tag, Operands: v}
			if m.tag == TypeApply {
				expr.Function = csdl.String(obj, MarkerFunction)
			}
			return expr
		}
	}
	return NewRecord(p.ParseRecord(obj, target))
}

// ParseRecord parses a record object. Keys are visited in sorted order; "@" keys
// are handed to the sink with the record's own target.
func (p *Parser) ParseRecord(obj map[string]any, target string) *Record {
	record := &Record{
		Type:           csdl.String(obj, MarkerType),
		PropertyValues: make([]NamedExpression, 0, len(obj)),
	}
	for _, key := range csdl.SortedKeys(obj) {
		switch {
		case strings.HasPrefix(key, "@"):
			if p.sink != nil {
				p.sink.AddAnnotation(target, key, obj[key])
			}
		case strings.HasPrefix(key, "$"):
			// structural marker
		default:
			record.PropertyValues = append(record.PropertyValues, p.ParseValue(key, obj[key], target))
		}
	}
	return record
}

func (p *Parser) parseCollection(items []any, target string) *Collection {
	collection := &Collection{
		ItemType: CollectionItemType(items),
		Items:    make([]Expression, 0, len(items)),
	}
	for i, item := range items {
		collection.Items = append(collection.Items, p.ParseExpression(item, target+"/"+strconv.Itoa(i)))
	}
	return collection
}

// CollectionItemType returns the declared item type of a raw collection. Only the
// first item is inspected; an empty collection has no item type.
func CollectionItemType(items []any) Type {
	if len(items) == 0 {
		return ""
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return TypeString
	}
	for _, m := range collectionItemMarkers {
		if _, ok := first[m.marker]; ok {
			return m.tag
		}
	}
	return TypeRecord
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return csdl.NumberString(v)
}

func parseDecimal(v any) decimal.Decimal {
	d, err := decimal.NewFromString(csdl.NumberString(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}
