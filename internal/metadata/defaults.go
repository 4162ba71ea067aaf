package metadata

import (
	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

// injectDefaultAnnotations gives every property of the entity types an unqualified
// UI.DataFieldDefault pointing at the property itself, unless it already has one.
// Properties without an annotation list get a new one in listIndex.
func injectDefaultAnnotations(entityTypes []*EntityType, listIndex map[string]*annotations.List) {
	for _, entityType := range entityTypes {
		for _, prop := range entityType.EntityProperties {
			list, ok := listIndex[prop.FullyQualifiedName]
			if !ok {
				list = &annotations.List{Target: prop.FullyQualifiedName}
				listIndex[prop.FullyQualifiedName] = list
			}
			if list.Find(vocabulary.UIDataFieldDefault, "") != nil {
				continue
			}
			list.Annotations = append(list.Annotations, DefaultDataField(prop.Name))
		}
	}
}

// DefaultDataField returns the UI.DataFieldDefault annotation rendering the named property.
func DefaultDataField(propertyName string) *annotations.Annotation {
	return &annotations.Annotation{
		Term: vocabulary.UIDataFieldDefault,
		Record: &expression.Record{
			Type: vocabulary.UIDataField,
			PropertyValues: []expression.NamedExpression{
				{Name: "Value", Value: expression.NewPath(propertyName)},
			},
		},
	}
}

// assignFilterFacetIDs sets the ID of every UI.FilterFacets entry of the entity
// types to the stable form of its ID, or of its Target annotation path when it has none.
func assignFilterFacetIDs(entityTypes []*EntityType, listIndex map[string]*annotations.List) {
	for _, entityType := range entityTypes {
		list, ok := listIndex[entityType.FullyQualifiedName]
		if !ok {
			continue
		}
		for _, annotation := range list.Annotations {
			if !vocabulary.SameTerm(annotation.Term, vocabulary.UIFilterFacets) || annotation.Collection == nil {
				continue
			}
			for _, item := range annotation.Collection.Items {
				if item.Record == nil {
					continue
				}
				id := ""
				if v, ok := item.Record.Property("ID"); ok && v.Type == expression.TypeString {
					id = v.String
				}
				if id == "" {
					if target, ok := item.Record.Property("Target"); ok {
						id = target.Path
					}
				}
				item.Record.SetProperty("ID", expression.NewString(StableID(id)))
			}
		}
	}
}
