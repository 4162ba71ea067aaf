package metadata

import (
	"strconv"
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
)

// ResolvePath resolves a path relative to the entity type, e.g. "Customer/Name",
// "Name@Common.Label" or "@UI.LineItem/0/Value". It returns nil when any segment
// cannot be resolved.
func (e *EntityType) ResolvePath(path string) any {
	target, _ := e.ResolvePathWithTrace(path)
	return target
}

// ResolvePathWithTrace resolves path like ResolvePath and also returns every object
// passed through, starting with the entity type and ending with the target.
func (e *EntityType) ResolvePathWithTrace(path string) (any, []any) {
	w := &typeWalker{
		graph:   e.graph,
		current: e,
		target:  e.FullyQualifiedName,
		trace:   []any{e},
	}

	for i, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		if i > 0 {
			w.enterNavigationTarget()
		}
		name, annotationKeys := splitSegment(segment)
		if name != "" && !w.step(name) {
			return nil, w.trace
		}
		for _, key := range annotationKeys {
			if !w.stepAnnotation(key) {
				return nil, w.trace
			}
		}
	}
	return w.current, w.trace
}

// splitSegment splits "Name@UI.Hidden@Core.Description" into the name and the
// annotation keys that follow it.
func splitSegment(segment string) (string, []string) {
	parts := strings.Split(segment, "@")
	return parts[0], parts[1:]
}

type typeWalker struct {
	graph   *ConvertedMetadata
	current any
	// target is the annotation target of current.
	target string
	trace  []any
}

func (w *typeWalker) move(next any, target string) {
	w.current = next
	w.target = target
	w.trace = append(w.trace, next)
}

// enterNavigationTarget moves from a navigation property (or complex property) to
// its type before the next segment is resolved.
func (w *typeWalker) enterNavigationTarget() {
	switch current := w.current.(type) {
	case *NavigationProperty:
		if current.TargetType != nil {
			w.move(current.TargetType, current.TargetType.FullyQualifiedName)
		}
	case *Property:
		if ct := current.ComplexType(); ct != nil {
			w.move(ct, ct.FullyQualifiedName)
		}
	}
}

func (w *typeWalker) step(name string) bool {
	if name == "$Type" {
		return true
	}
	switch current := w.current.(type) {
	case *EntityType:
		if prop := current.FindProperty(name); prop != nil {
			w.move(prop, prop.FullyQualifiedName)
			return true
		}
		if nav := current.FindNavigationProperty(name); nav != nil {
			w.move(nav, nav.FullyQualifiedName)
			return true
		}
	case *ComplexType:
		if prop := current.FindProperty(name); prop != nil {
			w.move(prop, prop.FullyQualifiedName)
			return true
		}
		if nav := current.FindNavigationProperty(name); nav != nil {
			w.move(nav, nav.FullyQualifiedName)
			return true
		}
	case *annotations.Annotation:
		return w.stepExpression(current.Expression(), name)
	case expression.Expression:
		return w.stepExpression(current, name)
	}
	return false
}

func (w *typeWalker) stepExpression(expr expression.Expression, name string) bool {
	switch expr.Type {
	case expression.TypeRecord:
		if value, ok := expr.Record.Property(name); ok {
			w.move(value, w.target+"/"+name)
			return true
		}
	case expression.TypeCollection:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= expr.Collection.Len() {
			return false
		}
		w.move(expr.Collection.Items[idx], w.target+"/"+name)
		return true
	}
	return false
}

func (w *typeWalker) stepAnnotation(key string) bool {
	term, qualifier, _ := strings.Cut(key, "#")
	list := w.annotationList()
	annotation := list.Find(term, qualifier)
	if annotation == nil {
		return false
	}
	w.move(annotation, w.target+"@"+annotation.Key())
	return true
}

func (w *typeWalker) annotationList() *annotations.List {
	if w.graph != nil {
		if list := w.graph.AnnotationList(w.target); list != nil {
			return list
		}
	}
	if node, ok := w.current.(Node); ok {
		return node.annotationList()
	}
	return nil
}
