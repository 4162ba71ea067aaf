package metamodel

import (
	"io"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
	"github.com/nlstn/go-odata-metamodel/internal/metadata"
	"github.com/nlstn/go-odata-metamodel/internal/resolver"
)

// Graph types.
type (
	ConvertedMetadata     = metadata.ConvertedMetadata
	Node                  = metadata.Node
	Kind                  = metadata.Kind
	NavigationSource      = metadata.NavigationSource
	EntityContainer       = metadata.EntityContainer
	EntitySet             = metadata.EntitySet
	Singleton             = metadata.Singleton
	EntityType            = metadata.EntityType
	ComplexType           = metadata.ComplexType
	TypeDefinition        = metadata.TypeDefinition
	Property              = metadata.Property
	NavigationProperty    = metadata.NavigationProperty
	ReferentialConstraint = metadata.ReferentialConstraint
	Action                = metadata.Action
	ActionParameter       = metadata.ActionParameter
	ActionImport          = metadata.ActionImport
)

// Annotation types.
type (
	Annotation          = annotations.Annotation
	AnnotationList      = annotations.List
	Expression          = expression.Expression
	ExpressionType      = expression.Type
	Record              = expression.Record
	NamedExpression     = expression.NamedExpression
	Collection          = expression.Collection
	Capability          = annotations.Capability
	Capabilities        = annotations.Capabilities
	Resolution          = resolver.Resolution
	DataModelObjectPath = resolver.DataModelObjectPath
)

// Capabilities that can be switched off.
const (
	Chart                 = annotations.Chart
	MicroChart            = annotations.MicroChart
	UShell                = annotations.UShell
	IntentBasedNavigation = annotations.IntentBasedNavigation
	AppState              = annotations.AppState
)

// LoadCapabilities reads capabilities from YAML:
//
//	capabilities:
//	  IntentBasedNavigation: false
//	  MicroChart: false
func LoadCapabilities(r io.Reader) (Capabilities, error) {
	return annotations.LoadCapabilities(r)
}

// LoadCapabilitiesFile reads capabilities from a YAML file.
func LoadCapabilitiesFile(path string) (Capabilities, error) {
	return annotations.LoadCapabilitiesFile(path)
}

// StableID builds an identifier usable as a UI control ID from the given parts.
func StableID(parts ...string) string {
	return metadata.StableID(parts...)
}
