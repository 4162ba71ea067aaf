package metadata

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

// ConvertedMetadata is the linked object graph of one service. It is immutable
// once Convert returns and may be shared by any number of readers.
type ConvertedMetadata struct {
	Version         string
	Namespace       string
	EntityContainer *EntityContainer
	EntitySets      []*EntitySet
	Singletons      []*Singleton
	EntityTypes     []*EntityType
	ComplexTypes    []*ComplexType
	TypeDefinitions []*TypeDefinition
	Actions         []*Action
	ActionImports   []*ActionImport
	AnnotationLists []*annotations.List

	index     map[string]Node
	overloads map[string][]*Action
	listIndex map[string]*annotations.List
}

// Convert builds the graph of doc. Annotations are pruned with caps. The only
// failures come from linking: a $BaseType cycle, or a panic while linking, which
// is recovered into an error.
func Convert(doc csdl.Document, caps annotations.Capabilities) (*ConvertedMetadata, error) {
	lists := annotations.BuildLists(doc.Annotations(), caps)

	converted := &ConvertedMetadata{
		Version:         doc.Version(),
		EntitySets:      []*EntitySet{},
		Singletons:      []*Singleton{},
		EntityTypes:     []*EntityType{},
		ComplexTypes:    []*ComplexType{},
		TypeDefinitions: []*TypeDefinition{},
		Actions:         []*Action{},
		ActionImports:   []*ActionImport{},
		index:           make(map[string]Node),
		overloads:       make(map[string][]*Action),
		listIndex:       make(map[string]*annotations.List, len(lists)),
	}
	for _, l := range lists {
		converted.listIndex[l.Target] = l
	}

	containerName := doc.EntityContainerName()
	for _, name := range doc.ElementNames() {
		switch raw := doc[name].(type) {
		case map[string]any:
			converted.addElement(doc, raw, name, containerName)
		case []any:
			for _, overload := range raw {
				if obj, ok := overload.(map[string]any); ok {
					kind := csdl.Kind(obj)
					if kind == csdl.KindAction || kind == csdl.KindFunction {
						converted.Actions = append(converted.Actions, BuildAction(obj, name))
					}
				}
			}
		}
	}
	converted.Namespace = schemaNamespace(doc, containerName)

	injectDefaultAnnotations(converted.EntityTypes, converted.listIndex)
	assignFilterFacetIDs(converted.EntityTypes, converted.listIndex)

	if err := converted.link(); err != nil {
		return nil, err
	}

	converted.AnnotationLists = make([]*annotations.List, 0, len(converted.listIndex))
	for _, l := range converted.listIndex {
		converted.AnnotationLists = append(converted.AnnotationLists, l)
	}
	annotations.SortLists(converted.AnnotationLists)

	for fqn, node := range converted.index {
		if l, ok := converted.listIndex[fqn]; ok {
			node.setAnnotationList(l)
		}
	}
	return converted, nil
}

func (m *ConvertedMetadata) addElement(doc csdl.Document, raw map[string]any, name, containerName string) {
	switch csdl.Kind(raw) {
	case csdl.KindEntityType:
		m.EntityTypes = append(m.EntityTypes, BuildEntityType(doc, raw, name))
	case csdl.KindComplexType:
		m.ComplexTypes = append(m.ComplexTypes, BuildComplexType(raw, name))
	case csdl.KindTypeDefinition:
		m.TypeDefinitions = append(m.TypeDefinitions, BuildTypeDefinition(raw, name))
	case csdl.KindEntityContainer:
		if m.EntityContainer != nil && name != containerName {
			return
		}
		m.EntityContainer = BuildEntityContainer(raw, name)
		m.EntitySets = m.EntityContainer.EntitySets
		m.Singletons = m.EntityContainer.Singletons
		m.ActionImports = m.EntityContainer.ActionImports
	}
}

func schemaNamespace(doc csdl.Document, containerName string) string {
	if containerName != "" {
		return csdl.Namespace(containerName)
	}
	for _, key := range csdl.SortedKeys(doc) {
		if obj, ok := doc[key].(map[string]any); ok && csdl.Kind(obj) == csdl.KindSchema {
			return strings.TrimSuffix(key, ".")
		}
	}
	return ""
}

// link resolves the references between the built elements and fills the index.
func (m *ConvertedMetadata) link() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to link metadata: %v", r)
		}
	}()

	entityTypes := make(map[string]*EntityType, len(m.EntityTypes))
	for _, entityType := range m.EntityTypes {
		entityTypes[entityType.FullyQualifiedName] = entityType
		entityType.graph = m
	}
	complexTypes := make(map[string]*ComplexType, len(m.ComplexTypes))
	for _, complexType := range m.ComplexTypes {
		complexTypes[complexType.FullyQualifiedName] = complexType
	}
	typeDefinitions := make(map[string]*TypeDefinition, len(m.TypeDefinitions))
	for _, typeDefinition := range m.TypeDefinitions {
		typeDefinitions[typeDefinition.FullyQualifiedName] = typeDefinition
	}

	linkProperties := func(properties []*Property, navigationProperties []*NavigationProperty) {
		for _, prop := range properties {
			if ct, ok := complexTypes[prop.Type]; ok {
				prop.TargetType = ct
			} else if td, ok := typeDefinitions[prop.Type]; ok {
				prop.TargetType = td
			}
		}
		for _, nav := range navigationProperties {
			nav.TargetType = entityTypes[nav.TargetTypeName]
		}
	}

	for _, entityType := range m.EntityTypes {
		if entityType.BaseTypeName != "" {
			entityType.BaseType = entityTypes[entityType.BaseTypeName]
		}
		linkProperties(entityType.EntityProperties, entityType.NavigationProperties)
	}
	for _, complexType := range m.ComplexTypes {
		if complexType.BaseTypeName != "" {
			complexType.BaseType = complexTypes[complexType.BaseTypeName]
		}
		linkProperties(complexType.Properties, complexType.NavigationProperties)
	}
	if err := checkBaseTypeCycles(m.EntityTypes, m.ComplexTypes); err != nil {
		return err
	}

	for _, entitySet := range m.EntitySets {
		entitySet.EntityType = entityTypes[entitySet.EntityTypeName]
	}
	for _, singleton := range m.Singletons {
		singleton.EntityType = entityTypes[singleton.EntityTypeName]
	}

	// Overloads bound to a single entity take precedence over collection-bound ones.
	for _, collectionBound := range []bool{true, false} {
		for _, action := range m.Actions {
			if !action.IsBound || action.SourceTypeIsCollection != collectionBound {
				continue
			}
			if entityType, ok := entityTypes[action.SourceType]; ok {
				entityType.Actions[action.Name] = action
				entityType.Actions[action.QualifiedName] = action
			}
		}
	}

	for _, actionImport := range m.ActionImports {
		for _, action := range m.Actions {
			if !action.IsBound && action.QualifiedName == actionImport.ActionName {
				actionImport.Action = action
				break
			}
		}
	}

	m.buildIndex()
	return nil
}

func checkBaseTypeCycles(entityTypes []*EntityType, complexTypes []*ComplexType) error {
	for _, entityType := range entityTypes {
		seen := make(map[*EntityType]bool)
		for current := entityType; current != nil; current = current.BaseType {
			if seen[current] {
				return fmt.Errorf("base type cycle detected at entity type %s", current.FullyQualifiedName)
			}
			seen[current] = true
		}
	}
	for _, complexType := range complexTypes {
		seen := make(map[*ComplexType]bool)
		for current := complexType; current != nil; current = current.BaseType {
			if seen[current] {
				return fmt.Errorf("base type cycle detected at complex type %s", current.FullyQualifiedName)
			}
			seen[current] = true
		}
	}
	return nil
}

func (m *ConvertedMetadata) buildIndex() {
	add := func(node Node) {
		m.index[node.Identity()] = node
	}
	for _, entityType := range m.EntityTypes {
		add(entityType)
		for _, prop := range entityType.EntityProperties {
			add(prop)
		}
		for _, nav := range entityType.NavigationProperties {
			add(nav)
		}
	}
	for _, complexType := range m.ComplexTypes {
		add(complexType)
		for _, prop := range complexType.Properties {
			add(prop)
		}
		for _, nav := range complexType.NavigationProperties {
			add(nav)
		}
	}
	for _, typeDefinition := range m.TypeDefinitions {
		add(typeDefinition)
	}
	if m.EntityContainer != nil {
		add(m.EntityContainer)
	}
	for _, entitySet := range m.EntitySets {
		add(entitySet)
	}
	for _, singleton := range m.Singletons {
		add(singleton)
	}
	for _, actionImport := range m.ActionImports {
		add(actionImport)
	}
	// Unbound overloads, and bound ones differing only in their other parameters,
	// share a fully-qualified name. The first one in document order is indexed.
	for _, action := range m.Actions {
		fqn := action.FullyQualifiedName
		m.overloads[fqn] = append(m.overloads[fqn], action)
		if len(m.overloads[fqn]) > 1 {
			continue
		}
		add(action)
		for _, parameter := range action.Parameters {
			add(parameter)
		}
	}
}

// EntitySet returns the entity set with the given name, or nil.
func (m *ConvertedMetadata) EntitySet(name string) *EntitySet {
	for _, entitySet := range m.EntitySets {
		if entitySet.Name == name {
			return entitySet
		}
	}
	return nil
}

// Singleton returns the singleton with the given name, or nil.
func (m *ConvertedMetadata) Singleton(name string) *Singleton {
	for _, singleton := range m.Singletons {
		if singleton.Name == name {
			return singleton
		}
	}
	return nil
}

// NavigationSource returns the entity set or, failing that, the singleton with the
// given name.
func (m *ConvertedMetadata) NavigationSource(name string) NavigationSource {
	if entitySet := m.EntitySet(name); entitySet != nil {
		return entitySet
	}
	if singleton := m.Singleton(name); singleton != nil {
		return singleton
	}
	return nil
}

// EntityType returns the entity type with the given fully-qualified name, or nil.
func (m *ConvertedMetadata) EntityType(fqn string) *EntityType {
	entityType, _ := m.index[fqn].(*EntityType)
	return entityType
}

// ComplexType returns the complex type with the given fully-qualified name, or nil.
func (m *ConvertedMetadata) ComplexType(fqn string) *ComplexType {
	complexType, _ := m.index[fqn].(*ComplexType)
	return complexType
}

// Action returns the action overload with the given fully-qualified name, or nil.
// When several overloads share the name, the first one in document order is returned.
func (m *ConvertedMetadata) Action(fqn string) *Action {
	action, _ := m.index[fqn].(*Action)
	return action
}

// Overloads returns every action or function overload with the given fully-qualified
// name, in document order.
func (m *ConvertedMetadata) Overloads(fqn string) []*Action {
	return m.overloads[fqn]
}

// Lookup returns the node with the given fully-qualified name, or nil.
func (m *ConvertedMetadata) Lookup(fqn string) Node {
	return m.index[fqn]
}

// AnnotationList returns the annotation list for a target, or nil.
func (m *ConvertedMetadata) AnnotationList(target string) *annotations.List {
	return m.listIndex[target]
}
