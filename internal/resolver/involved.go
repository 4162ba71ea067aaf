package resolver

import (
	"github.com/nlstn/go-odata-metamodel/internal/metadata"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

// DataModelObjectPath describes how a target is reached from an entity set.
type DataModelObjectPath struct {
	StartingEntitySet    metadata.NavigationSource
	TargetEntitySet      metadata.NavigationSource
	TargetEntityType     *metadata.EntityType
	TargetObject         any
	NavigationProperties []*metadata.NavigationProperty
	// ContextLocation is the path the target is viewed from. It points to the
	// path itself unless an outer location was given.
	ContextLocation *DataModelObjectPath
	ConvertedTypes  *metadata.ConvertedMetadata
}

// InvolvedDataModelObjects resolves path and collects the sets, types and
// navigation properties involved. When outer starts at a different entity set it
// is rebased onto this path's starting set.
func InvolvedDataModelObjects(g *metadata.ConvertedMetadata, path string, outer *DataModelObjectPath) *DataModelObjectPath {
	res := ResolveWithTrace(g, path)
	p := &DataModelObjectPath{
		TargetObject:         res.Target,
		NavigationProperties: []*metadata.NavigationProperty{},
		ConvertedTypes:       g,
	}

	for _, object := range res.VisitedObjects {
		switch v := object.(type) {
		case metadata.NavigationSource:
			if p.StartingEntitySet == nil {
				p.StartingEntitySet = v
			}
			p.TargetEntitySet = v
			p.TargetEntityType = v.SourceEntityType()
		case *metadata.NavigationProperty:
			p.NavigationProperties = append(p.NavigationProperties, v)
			if p.TargetEntitySet != nil {
				p.TargetEntitySet = p.TargetEntitySet.BindingFor(v.Name)
			}
			if v.TargetType != nil {
				p.TargetEntityType = v.TargetType
			}
		case *metadata.EntityType:
			p.TargetEntityType = v
		}
	}

	switch {
	case outer == nil:
		p.ContextLocation = p
	case outer.StartingEntitySet != p.StartingEntitySet:
		p.ContextLocation = rebase(outer, p.StartingEntitySet, res.VisitedObjects)
	default:
		p.ContextLocation = outer
	}
	return p
}

// rebase returns a copy of outer that starts at start. The navigation properties
// visited before outer's own starting set are prepended to it. outer is returned
// unchanged when its starting set does not occur in visited.
func rebase(outer *DataModelObjectPath, start metadata.NavigationSource, visited []any) *DataModelObjectPath {
	index := -1
	for i, object := range visited {
		if source, ok := object.(metadata.NavigationSource); ok && source == outer.StartingEntitySet {
			index = i
			break
		}
	}
	if index < 0 {
		return outer
	}

	navs := make([]*metadata.NavigationProperty, 0, index+len(outer.NavigationProperties))
	for _, object := range visited[:index] {
		if nav, ok := object.(*metadata.NavigationProperty); ok {
			navs = append(navs, nav)
		}
	}
	navs = append(navs, outer.NavigationProperties...)

	rebased := *outer
	rebased.StartingEntitySet = start
	rebased.NavigationProperties = navs
	if outer.ContextLocation == outer {
		rebased.ContextLocation = &rebased
	}
	return &rebased
}

// SupportsSemanticKey reports whether the entity type targeted by path declares a
// non-empty Common.SemanticKey.
func SupportsSemanticKey(g *metadata.ConvertedMetadata, path string) bool {
	p := InvolvedDataModelObjects(g, path, nil)
	if p.TargetEntityType == nil {
		return false
	}
	for current := p.TargetEntityType; current != nil; current = current.BaseType {
		if annotation := current.Annotation(vocabulary.CommonSemanticKey, ""); annotation != nil {
			return annotation.Collection.Len() > 0
		}
	}
	return false
}
