package metadata

import (
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

// BuildEntityType converts a raw entity type. doc is consulted to inherit keys
// through the $BaseType chain.
func BuildEntityType(doc csdl.Document, raw map[string]any, fqn string) *EntityType {
	entityType := &EntityType{
		Name:               csdl.LocalName(fqn),
		FullyQualifiedName: fqn,
		BaseTypeName:       csdl.String(raw, csdl.KeyBaseType),
		Abstract:           csdl.Bool(raw, csdl.KeyAbstract, false),
		OpenType:           csdl.Bool(raw, csdl.KeyOpenType, false),
		HasStream:          csdl.Bool(raw, csdl.KeyHasStream, false),
		Keys:               []*Property{},
		Actions:            make(map[string]*Action),
	}
	entityType.EntityProperties, entityType.NavigationProperties = buildMembers(raw, fqn)

	for _, keyName := range ResolveEntityKeys(doc, raw) {
		for _, prop := range entityType.EntityProperties {
			if prop.Name == keyName {
				entityType.Keys = append(entityType.Keys, prop)
				break
			}
		}
	}
	return entityType
}

// BuildComplexType converts a raw complex type.
func BuildComplexType(raw map[string]any, fqn string) *ComplexType {
	complexType := &ComplexType{
		Name:               csdl.LocalName(fqn),
		FullyQualifiedName: fqn,
		BaseTypeName:       csdl.String(raw, csdl.KeyBaseType),
	}
	complexType.Properties, complexType.NavigationProperties = buildMembers(raw, fqn)
	return complexType
}

func buildMembers(raw map[string]any, ownerFQN string) ([]*Property, []*NavigationProperty) {
	properties := []*Property{}
	navigationProperties := []*NavigationProperty{}
	for _, name := range csdl.SortedKeys(raw) {
		member, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		switch csdl.Kind(member) {
		case csdl.KindProperty:
			properties = append(properties, BuildProperty(member, ownerFQN, name))
		case csdl.KindNavigationProperty:
			navigationProperties = append(navigationProperties, BuildNavigationProperty(member, ownerFQN, name))
		}
	}
	return properties, navigationProperties
}

// ResolveEntityKeys returns the key property names of a raw entity type. A type
// without $Key inherits the keys of its $BaseType chain; the chain ends with an
// empty result when no type declares keys or a type repeats.
func ResolveEntityKeys(doc csdl.Document, raw map[string]any) []string {
	visited := make(map[string]bool)
	current := raw
	for current != nil {
		if keys, ok := current[csdl.KeyKey].([]any); ok {
			return keyNames(keys)
		}
		baseType := csdl.String(current, csdl.KeyBaseType)
		if baseType == "" || visited[baseType] {
			return []string{}
		}
		visited[baseType] = true
		current, _ = doc.Element(baseType)
	}
	return []string{}
}

// keyNames reads $Key entries: plain names or {"alias": "path"} objects.
func keyNames(keys []any) []string {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		switch k := key.(type) {
		case string:
			names = append(names, k)
		case map[string]any:
			for _, alias := range csdl.SortedKeys(k) {
				if path, ok := k[alias].(string); ok {
					names = append(names, path)
				}
			}
		}
	}
	return names
}

// BuildProperty converts a raw structural property owned by ownerFQN.
func BuildProperty(raw map[string]any, ownerFQN, name string) *Property {
	return &Property{
		Name:               name,
		FullyQualifiedName: ownerFQN + "/" + name,
		Type:               csdl.String(raw, csdl.KeyType),
		IsCollection:       csdl.Bool(raw, csdl.KeyIsCollection, false),
		Nullable:           csdl.Bool(raw, csdl.KeyNullable, true),
		MaxLength:          csdl.Int(raw, csdl.KeyMaxLength),
		Precision:          csdl.Int(raw, csdl.KeyPrecision),
		Scale:              csdl.Int(raw, csdl.KeyScale),
		DefaultValue:       defaultValue(raw),
	}
}

func defaultValue(raw map[string]any) string {
	v, ok := raw[csdl.KeyDefaultValue]
	if !ok || v == nil {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	case bool:
		if value {
			return "true"
		}
		return "false"
	}
	return csdl.NumberString(v)
}

// BuildNavigationProperty converts a raw navigation property owned by ownerFQN.
// Referential constraints are expanded in sorted key order; annotation keys are skipped.
func BuildNavigationProperty(raw map[string]any, ownerFQN, name string) *NavigationProperty {
	nav := &NavigationProperty{
		Name:                  name,
		FullyQualifiedName:    ownerFQN + "/" + name,
		TargetTypeName:        csdl.String(raw, csdl.KeyType),
		IsCollection:          csdl.Bool(raw, csdl.KeyIsCollection, false),
		Partner:               csdl.String(raw, csdl.KeyPartner),
		ContainsTarget:        csdl.Bool(raw, csdl.KeyContainsTarget, false),
		ReferentialConstraint: []ReferentialConstraint{},
	}

	constraints := csdl.Map0(raw, csdl.KeyReferentialConstraint)
	for _, sourceProperty := range csdl.SortedKeys(constraints) {
		if strings.Contains(sourceProperty, "@") {
			continue
		}
		targetProperty, ok := constraints[sourceProperty].(string)
		if !ok {
			continue
		}
		nav.ReferentialConstraint = append(nav.ReferentialConstraint, ReferentialConstraint{
			SourceTypeName: ownerFQN,
			SourceProperty: sourceProperty,
			TargetTypeName: nav.TargetTypeName,
			TargetProperty: targetProperty,
		})
	}
	return nav
}

// BuildEntitySet converts a raw entity set of the container containerFQN.
func BuildEntitySet(raw map[string]any, containerFQN, name string) *EntitySet {
	return &EntitySet{
		Name:                      name,
		FullyQualifiedName:        containerFQN + "/" + name,
		EntityTypeName:            csdl.String(raw, csdl.KeyType),
		NavigationPropertyBinding: make(map[string]NavigationSource),
		rawBindings:               rawBindings(raw),
	}
}

// BuildSingleton converts a raw singleton of the container containerFQN.
func BuildSingleton(raw map[string]any, containerFQN, name string) *Singleton {
	return &Singleton{
		Name:                      name,
		FullyQualifiedName:        containerFQN + "/" + name,
		EntityTypeName:            csdl.String(raw, csdl.KeyType),
		Nullable:                  csdl.Bool(raw, csdl.KeyNullable, false),
		NavigationPropertyBinding: make(map[string]NavigationSource),
		rawBindings:               rawBindings(raw),
	}
}

func rawBindings(raw map[string]any) map[string]string {
	bindings := make(map[string]string)
	for path, target := range csdl.Map0(raw, csdl.KeyNavigationPropertyBinding) {
		if name, ok := target.(string); ok {
			bindings[path] = name
		}
	}
	return bindings
}

// BuildActionImport converts a raw action or function import.
func BuildActionImport(raw map[string]any, containerFQN, name string) *ActionImport {
	actionImport := &ActionImport{
		Name:               name,
		FullyQualifiedName: containerFQN + "/" + name,
		ActionName:         csdl.String(raw, csdl.KeyAction),
	}
	if csdl.Kind(raw) == csdl.KindFunctionImport {
		actionImport.IsFunction = true
		actionImport.ActionName = csdl.String(raw, csdl.KeyFunction)
	}
	return actionImport
}

// BuildAction converts one raw action or function overload. The fully-qualified
// name of a bound overload carries its binding type: "ns.Submit(ns.Order)" or
// "ns.Submit(Collection(ns.Order))". Unbound overloads keep the qualified name.
func BuildAction(raw map[string]any, qualifiedName string) *Action {
	action := &Action{
		Name:               csdl.LocalName(qualifiedName),
		QualifiedName:      qualifiedName,
		FullyQualifiedName: qualifiedName,
		IsBound:            csdl.Bool(raw, csdl.KeyIsBound, false),
		IsFunction:         csdl.Kind(raw) == csdl.KindFunction,
		Parameters:         []*ActionParameter{},
	}

	rawParameters := csdl.Slice(raw, csdl.KeyParameter)
	if action.IsBound && len(rawParameters) > 0 {
		if binding, ok := rawParameters[0].(map[string]any); ok {
			action.SourceType = csdl.String(binding, csdl.KeyType)
			action.SourceTypeIsCollection = csdl.Bool(binding, csdl.KeyIsCollection, false)
			if action.SourceTypeIsCollection {
				action.FullyQualifiedName = qualifiedName + "(Collection(" + action.SourceType + "))"
			} else {
				action.FullyQualifiedName = qualifiedName + "(" + action.SourceType + ")"
			}
		}
	}

	if returnType := csdl.Map0(raw, csdl.KeyReturnType); returnType != nil {
		action.ReturnType = csdl.String(returnType, csdl.KeyType)
		action.ReturnCollection = csdl.Bool(returnType, csdl.KeyIsCollection, false)
	}

	for _, rawParameter := range rawParameters {
		parameter, ok := rawParameter.(map[string]any)
		if !ok {
			continue
		}
		name := csdl.String(parameter, csdl.KeyName)
		action.Parameters = append(action.Parameters, &ActionParameter{
			Name:               name,
			FullyQualifiedName: action.FullyQualifiedName + "/" + name,
			Type:               csdl.String(parameter, csdl.KeyType),
			IsCollection:       csdl.Bool(parameter, csdl.KeyIsCollection, false),
		})
	}
	return action
}

// BuildTypeDefinition converts a raw type definition.
func BuildTypeDefinition(raw map[string]any, fqn string) *TypeDefinition {
	return &TypeDefinition{
		Name:               csdl.LocalName(fqn),
		FullyQualifiedName: fqn,
		UnderlyingType:     csdl.String(raw, csdl.KeyUnderlyingType),
	}
}

// BuildEntityContainer converts a raw entity container and its children, then
// resolves the navigation property bindings of every entity set and singleton
// against the sources just built. Bindings naming an unknown source are skipped.
func BuildEntityContainer(raw map[string]any, fqn string) *EntityContainer {
	container := &EntityContainer{
		Name:               csdl.LocalName(fqn),
		FullyQualifiedName: fqn,
		EntitySets:         []*EntitySet{},
		Singletons:         []*Singleton{},
		ActionImports:      []*ActionImport{},
	}

	for _, name := range csdl.SortedKeys(raw) {
		child, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		switch csdl.Kind(child) {
		case csdl.KindEntitySet:
			container.EntitySets = append(container.EntitySets, BuildEntitySet(child, fqn, name))
		case csdl.KindSingleton:
			container.Singletons = append(container.Singletons, BuildSingleton(child, fqn, name))
		case csdl.KindActionImport, csdl.KindFunctionImport:
			container.ActionImports = append(container.ActionImports, BuildActionImport(child, fqn, name))
		}
	}

	sources := make(map[string]NavigationSource, len(container.EntitySets)+len(container.Singletons))
	for _, singleton := range container.Singletons {
		sources[singleton.Name] = singleton
	}
	for _, entitySet := range container.EntitySets {
		sources[entitySet.Name] = entitySet
	}
	resolve := func(raw map[string]string, into map[string]NavigationSource) {
		for path, targetName := range raw {
			// Targets in another container are written "ns.Container/Name".
			if idx := strings.LastIndex(targetName, "/"); idx >= 0 {
				targetName = targetName[idx+1:]
			}
			if target, ok := sources[targetName]; ok {
				into[path] = target
			}
		}
	}
	for _, entitySet := range container.EntitySets {
		resolve(entitySet.rawBindings, entitySet.NavigationPropertyBinding)
	}
	for _, singleton := range container.Singletons {
		resolve(singleton.rawBindings, singleton.NavigationPropertyBinding)
	}
	return container
}
