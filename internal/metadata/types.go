// Package metadata builds and links the object graph of an OData service: entity
// types, complex types, containers, actions and the annotation lists attached to them.
package metadata

import (
	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

// Kind discriminates the node types of the graph.
type Kind string

const (
	KindEntityType         Kind = csdl.KindEntityType
	KindComplexType        Kind = csdl.KindComplexType
	KindProperty           Kind = csdl.KindProperty
	KindNavigationProperty Kind = csdl.KindNavigationProperty
	KindEntitySet          Kind = csdl.KindEntitySet
	KindSingleton          Kind = csdl.KindSingleton
	KindEntityContainer    Kind = csdl.KindEntityContainer
	KindAction             Kind = csdl.KindAction
	KindActionParameter    Kind = "ActionParameter"
	KindActionImport       Kind = csdl.KindActionImport
	KindTypeDefinition     Kind = csdl.KindTypeDefinition
)

// Node is implemented by every schema element of the graph.
type Node interface {
	Kind() Kind
	// Identity returns the fully-qualified name of the node.
	Identity() string
	annotationList() *annotations.List
	setAnnotationList(*annotations.List)
}

// Annotated carries the annotation list attached to a node.
type Annotated struct {
	Annotations *annotations.List
}

// Annotation returns the annotation for term and qualifier, or nil.
func (a *Annotated) Annotation(term, qualifier string) *annotations.Annotation {
	return a.Annotations.Find(term, qualifier)
}

func (a *Annotated) annotationList() *annotations.List {
	return a.Annotations
}

func (a *Annotated) setAnnotationList(l *annotations.List) {
	a.Annotations = l
}

// NavigationSource is an entity set or a singleton.
type NavigationSource interface {
	Node
	SourceName() string
	SourceEntityType() *EntityType
	// BindingFor returns the navigation source bound to a navigation property path.
	BindingFor(path string) NavigationSource
}

// EntityType is a structured type with a key.
type EntityType struct {
	Annotated
	Name               string
	FullyQualifiedName string
	BaseTypeName       string
	BaseType           *EntityType
	Abstract           bool
	OpenType           bool
	HasStream          bool

	Keys                 []*Property
	EntityProperties     []*Property
	NavigationProperties []*NavigationProperty
	// Actions holds the bound actions by unqualified and qualified name.
	Actions map[string]*Action

	graph *ConvertedMetadata
}

func (e *EntityType) Kind() Kind       { return KindEntityType }
func (e *EntityType) Identity() string { return e.FullyQualifiedName }

// FindProperty returns the structural property with the given name, looking through
// the base type chain. Returns nil if no property matches.
func (e *EntityType) FindProperty(name string) *Property {
	visited := make(map[*EntityType]bool)
	for current := e; current != nil && !visited[current]; current = current.BaseType {
		visited[current] = true
		for _, prop := range current.EntityProperties {
			if prop.Name == name {
				return prop
			}
		}
	}
	return nil
}

// FindNavigationProperty returns the navigation property with the given name, looking
// through the base type chain. Returns nil if no navigation property matches.
func (e *EntityType) FindNavigationProperty(name string) *NavigationProperty {
	visited := make(map[*EntityType]bool)
	for current := e; current != nil && !visited[current]; current = current.BaseType {
		visited[current] = true
		for _, nav := range current.NavigationProperties {
			if nav.Name == name {
				return nav
			}
		}
	}
	return nil
}

// ComplexType is a structured type without a key.
type ComplexType struct {
	Annotated
	Name                 string
	FullyQualifiedName   string
	BaseTypeName         string
	BaseType             *ComplexType
	Properties           []*Property
	NavigationProperties []*NavigationProperty
}

func (c *ComplexType) Kind() Kind       { return KindComplexType }
func (c *ComplexType) Identity() string { return c.FullyQualifiedName }

// FindProperty returns the property with the given name, looking through the base type chain.
func (c *ComplexType) FindProperty(name string) *Property {
	visited := make(map[*ComplexType]bool)
	for current := c; current != nil && !visited[current]; current = current.BaseType {
		visited[current] = true
		for _, prop := range current.Properties {
			if prop.Name == name {
				return prop
			}
		}
	}
	return nil
}

// FindNavigationProperty returns the navigation property with the given name, looking
// through the base type chain.
func (c *ComplexType) FindNavigationProperty(name string) *NavigationProperty {
	visited := make(map[*ComplexType]bool)
	for current := c; current != nil && !visited[current]; current = current.BaseType {
		visited[current] = true
		for _, nav := range current.NavigationProperties {
			if nav.Name == name {
				return nav
			}
		}
	}
	return nil
}

// Property is a structural property of an entity or complex type.
type Property struct {
	Annotated
	Name               string
	FullyQualifiedName string
	Type               string
	IsCollection       bool
	Nullable           bool
	// Facets
	MaxLength    int
	Precision    int
	Scale        int
	DefaultValue string

	// TargetType is the complex type or type definition named by Type, when there is one.
	TargetType Node
}

func (p *Property) Kind() Kind       { return KindProperty }
func (p *Property) Identity() string { return p.FullyQualifiedName }

// ComplexType returns the complex type of the property, or nil.
func (p *Property) ComplexType() *ComplexType {
	ct, _ := p.TargetType.(*ComplexType)
	return ct
}

// ReferentialConstraint pairs a property of the source type with one of the target type.
type ReferentialConstraint struct {
	SourceTypeName string
	SourceProperty string
	TargetTypeName string
	TargetProperty string
}

// NavigationProperty relates an entity type to another entity type.
type NavigationProperty struct {
	Annotated
	Name                  string
	FullyQualifiedName    string
	TargetTypeName        string
	TargetType            *EntityType
	IsCollection          bool
	Partner               string
	ContainsTarget        bool
	ReferentialConstraint []ReferentialConstraint
}

func (n *NavigationProperty) Kind() Kind       { return KindNavigationProperty }
func (n *NavigationProperty) Identity() string { return n.FullyQualifiedName }

// EntitySet is an addressable collection of entities.
type EntitySet struct {
	Annotated
	Name               string
	FullyQualifiedName string
	EntityTypeName     string
	EntityType         *EntityType
	// NavigationPropertyBinding maps navigation property paths to their bound sources.
	NavigationPropertyBinding map[string]NavigationSource

	rawBindings map[string]string
}

func (s *EntitySet) Kind() Kind                    { return KindEntitySet }
func (s *EntitySet) Identity() string              { return s.FullyQualifiedName }
func (s *EntitySet) SourceName() string            { return s.Name }
func (s *EntitySet) SourceEntityType() *EntityType { return s.EntityType }

// BindingFor returns the navigation source bound to path, or nil.
func (s *EntitySet) BindingFor(path string) NavigationSource {
	if target, ok := s.NavigationPropertyBinding[path]; ok {
		return target
	}
	return nil
}

// Singleton is a single addressable entity.
type Singleton struct {
	Annotated
	Name                      string
	FullyQualifiedName        string
	EntityTypeName            string
	EntityType                *EntityType
	Nullable                  bool
	NavigationPropertyBinding map[string]NavigationSource

	rawBindings map[string]string
}

func (s *Singleton) Kind() Kind                    { return KindSingleton }
func (s *Singleton) Identity() string              { return s.FullyQualifiedName }
func (s *Singleton) SourceName() string            { return s.Name }
func (s *Singleton) SourceEntityType() *EntityType { return s.EntityType }

// BindingFor returns the navigation source bound to path, or nil.
func (s *Singleton) BindingFor(path string) NavigationSource {
	if target, ok := s.NavigationPropertyBinding[path]; ok {
		return target
	}
	return nil
}

// EntityContainer owns the entity sets, singletons and action imports of a service.
type EntityContainer struct {
	Annotated
	Name               string
	FullyQualifiedName string
	EntitySets         []*EntitySet
	Singletons         []*Singleton
	ActionImports      []*ActionImport
}

func (c *EntityContainer) Kind() Kind       { return KindEntityContainer }
func (c *EntityContainer) Identity() string { return c.FullyQualifiedName }

// Action is one overload of an action or function.
type Action struct {
	Annotated
	Name string
	// QualifiedName is the namespace-qualified name shared by all overloads.
	QualifiedName string
	// FullyQualifiedName identifies the overload: "ns.Submit(ns.Order)" when bound.
	FullyQualifiedName string
	IsBound            bool
	IsFunction         bool
	// SourceType is the type of the binding parameter of a bound action.
	SourceType             string
	SourceTypeIsCollection bool
	ReturnType             string
	ReturnCollection       bool
	Parameters             []*ActionParameter
}

func (a *Action) Kind() Kind       { return KindAction }
func (a *Action) Identity() string { return a.FullyQualifiedName }

// Parameter returns the parameter with the given name, or nil.
func (a *Action) Parameter(name string) *ActionParameter {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ActionParameter is a parameter of an action overload.
type ActionParameter struct {
	Annotated
	Name               string
	FullyQualifiedName string
	Type               string
	IsCollection       bool
}

func (p *ActionParameter) Kind() Kind       { return KindActionParameter }
func (p *ActionParameter) Identity() string { return p.FullyQualifiedName }

// ActionImport exposes an unbound action or function in the entity container.
type ActionImport struct {
	Annotated
	Name               string
	FullyQualifiedName string
	ActionName         string
	IsFunction         bool
	Action             *Action
}

func (i *ActionImport) Kind() Kind       { return KindActionImport }
func (i *ActionImport) Identity() string { return i.FullyQualifiedName }

// TypeDefinition is a named primitive type.
type TypeDefinition struct {
	Annotated
	Name               string
	FullyQualifiedName string
	UnderlyingType     string
}

func (t *TypeDefinition) Kind() Kind       { return KindTypeDefinition }
func (t *TypeDefinition) Identity() string { return t.FullyQualifiedName }
