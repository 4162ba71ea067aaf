// Package vocabulary holds the fixed vocabulary namespace/alias table and the
// well-known terms the converter treats specially.
package vocabulary

import "strings"

// UnknownAlias is the fragment emitted for namespaces missing from the alias table.
// It reproduces the output of the reference implementation instead of failing.
const UnknownAlias = "undefined"

var namespaceToAlias = map[string]string{
	"Org.OData.Core.V1":                     "Core",
	"Org.OData.Capabilities.V1":             "Capabilities",
	"Org.OData.Aggregation.V1":              "Aggregation",
	"Org.OData.Validation.V1":               "Validation",
	"Org.OData.Measures.V1":                 "Measures",
	"com.sap.vocabularies.Common.v1":        "Common",
	"com.sap.vocabularies.UI.v1":            "UI",
	"com.sap.vocabularies.Session.v1":       "Session",
	"com.sap.vocabularies.Analytics.v1":     "Analytics",
	"com.sap.vocabularies.CodeList.v1":      "CodeList",
	"com.sap.vocabularies.PersonalData.v1":  "PersonalData",
	"com.sap.vocabularies.Communication.v1": "Communication",
	"com.sap.vocabularies.HTML5.v1":         "HTML5",
}

var aliasToNamespace = func() map[string]string {
	out := make(map[string]string, len(namespaceToAlias))
	for namespace, alias := range namespaceToAlias {
		out[alias] = namespace
	}
	return out
}()

// Well-known terms, in their full spelling.
const (
	UIHeaderFacets        = "com.sap.vocabularies.UI.v1.HeaderFacets"
	UIIdentification      = "com.sap.vocabularies.UI.v1.Identification"
	UILineItem            = "com.sap.vocabularies.UI.v1.LineItem"
	UIFieldGroup          = "com.sap.vocabularies.UI.v1.FieldGroup"
	UIPresentationVariant = "com.sap.vocabularies.UI.v1.PresentationVariant"
	UIChart               = "com.sap.vocabularies.UI.v1.Chart"
	UIDataFieldDefault    = "com.sap.vocabularies.UI.v1.DataFieldDefault"
	UIFilterFacets        = "com.sap.vocabularies.UI.v1.FilterFacets"
	CommonSemanticKey     = "com.sap.vocabularies.Common.v1.SemanticKey"
)

// Well-known record types, in their full spelling.
const (
	UIDataField                         = "com.sap.vocabularies.UI.v1.DataField"
	UIDataFieldForIntentBasedNavigation = "com.sap.vocabularies.UI.v1.DataFieldForIntentBasedNavigation"
)

// Alias returns the short alias registered for a vocabulary namespace.
func Alias(namespace string) (string, bool) {
	alias, ok := namespaceToAlias[namespace]
	return alias, ok
}

// Namespace returns the vocabulary namespace registered for an alias.
func Namespace(alias string) (string, bool) {
	namespace, ok := aliasToNamespace[alias]
	return namespace, ok
}

// ToAliasTerm rewrites a fully-qualified term to its alias spelling
// ("com.sap.vocabularies.UI.v1.LineItem" -> "UI.LineItem"). Terms that are
// already aliased or whose namespace is unknown are returned unchanged.
func ToAliasTerm(term string) string {
	idx := strings.LastIndex(term, ".")
	if idx < 0 {
		return term
	}
	if alias, ok := namespaceToAlias[term[:idx]]; ok {
		return alias + term[idx:]
	}
	return term
}

// ToFullTerm rewrites an aliased term to its fully-qualified spelling
// ("UI.LineItem" -> "com.sap.vocabularies.UI.v1.LineItem"). Unknown aliases are
// returned unchanged.
func ToFullTerm(term string) string {
	idx := strings.LastIndex(term, ".")
	if idx < 0 {
		return term
	}
	if namespace, ok := aliasToNamespace[term[:idx]]; ok {
		return namespace + term[idx:]
	}
	return term
}

// SameTerm reports whether two terms name the same vocabulary term regardless
// of alias or full spelling.
func SameTerm(a, b string) bool {
	return ToFullTerm(a) == ToFullTerm(b)
}

// RewriteEnumMember rewrites the type segment of an enum member value through the alias
// table and preserves the member segment:
// "com.sap.vocabularies.UI.v1.ImportanceType/High" -> "UI.ImportanceType/High".
// A type in an unknown namespace gets UnknownAlias as its namespace fragment.
func RewriteEnumMember(value string) string {
	typePart, member, _ := strings.Cut(value, "/")
	return mapNameToAlias(typePart) + "/" + member
}

func mapNameToAlias(name string) string {
	pathPart, annotationPart, found := strings.Cut(name, "@")
	if !found {
		annotationPart = pathPart
		pathPart = ""
	} else {
		pathPart += "@"
	}

	lastDot := strings.LastIndex(annotationPart, ".")
	namespace, local := "", annotationPart
	if lastDot >= 0 {
		namespace, local = annotationPart[:lastDot], annotationPart[lastDot+1:]
	}

	alias, ok := namespaceToAlias[namespace]
	if !ok {
		alias = UnknownAlias
	}
	return pathPart + alias + "." + local
}
