// Package expression turns raw annotation values into tagged expression trees.
package expression

import "github.com/shopspring/decimal"

// Type is the discriminant of an Expression.
type Type string

const (
	TypeNull                   Type = "Null"
	TypeString                 Type = "String"
	TypeBool                   Type = "Bool"
	TypeInt                    Type = "Int"
	TypeDecimal                Type = "Decimal"
	TypePath                   Type = "Path"
	TypePropertyPath           Type = "PropertyPath"
	TypeNavigationPropertyPath Type = "NavigationPropertyPath"
	TypeAnnotationPath         Type = "AnnotationPath"
	TypeEnumMember             Type = "EnumMember"
	TypeApply                  Type = "Apply"
	TypeAnd                    Type = "And"
	TypeOr                     Type = "Or"
	TypeNot                    Type = "Not"
	TypeEq                     Type = "Eq"
	TypeNe                     Type = "Ne"
	TypeGt                     Type = "Gt"
	TypeGe                     Type = "Ge"
	TypeLt                     Type = "Lt"
	TypeLe                     Type = "Le"
	TypeIf                     Type = "If"
	TypeRecord                 Type = "Record"
	TypeCollection             Type = "Collection"
)

// IsOperator reports whether t is one of the operator tags whose payload is kept raw.
func (t Type) IsOperator() bool {
	switch t {
	case TypeApply, TypeAnd, TypeOr, TypeNot, TypeEq, TypeNe, TypeGt, TypeGe, TypeLt, TypeLe, TypeIf:
		return true
	}
	return false
}

// IsPath reports whether t is one of the path tags.
func (t Type) IsPath() bool {
	switch t {
	case TypePath, TypePropertyPath, TypeNavigationPropertyPath, TypeAnnotationPath:
		return true
	}
	return false
}

// Expression is a tagged annotation value. Only the field matching Type is populated.
type Expression struct {
	Type Type

	String  string
	Bool    bool
	Int     int64
	Decimal decimal.Decimal

	// Path holds the value of every path tag (Path, PropertyPath,
	// NavigationPropertyPath, AnnotationPath).
	Path       string
	EnumMember string

	// Function is the function name of an Apply expression.
	Function string
	// Operands is the unparsed payload of an operator expression.
	Operands any

	Record     *Record
	Collection *Collection
}

// Float returns the value of a Decimal expression as float64.
func (e Expression) Float() float64 {
	return e.Decimal.InexactFloat64()
}

// IsNull reports whether the expression is the null literal.
func (e Expression) IsNull() bool {
	return e.Type == TypeNull || e.Type == ""
}

// Record is the body of a Record expression.
type Record struct {
	// Type is the record's $Type, in the spelling found in the metadata.
	Type           string
	PropertyValues []NamedExpression
}

// NamedExpression is one property value of a record.
type NamedExpression struct {
	Name  string
	Value Expression
}

// Property returns the value of the named record property.
func (r *Record) Property(name string) (Expression, bool) {
	if r == nil {
		return Expression{}, false
	}
	for _, pv := range r.PropertyValues {
		if pv.Name == name {
			return pv.Value, true
		}
	}
	return Expression{}, false
}

// SetProperty replaces the named property value, or appends it when absent.
func (r *Record) SetProperty(name string, value Expression) {
	for i := range r.PropertyValues {
		if r.PropertyValues[i].Name == name {
			r.PropertyValues[i].Value = value
			return
		}
	}
	r.PropertyValues = append(r.PropertyValues, NamedExpression{Name: name, Value: value})
}

// Collection is the body of a Collection expression. ItemType is decided by the
// first raw item and is empty for an empty collection.
type Collection struct {
	ItemType Type
	Items    []Expression
}

// Len returns the number of items, tolerating a nil collection.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// NewString returns a String expression.
func NewString(s string) Expression {
	return Expression{Type: TypeString, String: s}
}

// NewPath returns a Path expression.
func NewPath(path string) Expression {
	return Expression{Type: TypePath, Path: path}
}

// NewRecord returns a Record expression wrapping r.
func NewRecord(r *Record) Expression {
	return Expression{Type: TypeRecord, Record: r}
}
