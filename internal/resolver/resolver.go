// Package resolver resolves absolute metadata paths such as
// "/Orders/$NavigationPropertyBinding/Items/Quantity@Common.Label" against a
// converted graph.
package resolver

import (
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/metadata"
)

// Path markers.
const (
	NavigationPropertyBinding = "$NavigationPropertyBinding"
	Terminator                = "$"
	TypeCast                  = "$Type"
)

// Resolution is the result of resolving a path together with the objects passed
// through on the way, in order.
type Resolution struct {
	Target         any
	VisitedObjects []any
}

// Resolve returns the object a path points to, or nil.
func Resolve(g *metadata.ConvertedMetadata, path string) any {
	return ResolveWithTrace(g, path).Target
}

// ResolveWithTrace resolves path and records every navigation source, navigation
// property and type-level object passed through.
func ResolveWithTrace(g *metadata.ConvertedMetadata, path string) Resolution {
	if g == nil {
		return Resolution{}
	}
	segments := splitPath(path)
	if len(segments) > 0 && g.EntityContainer != nil &&
		(segments[0] == g.EntityContainer.Name || segments[0] == g.EntityContainer.FullyQualifiedName) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return Resolution{Target: g.EntityContainer}
	}

	root := stripKeyPredicate(segments[0])
	source := g.NavigationSource(root)
	if source == nil {
		return resolveOutsideContainer(g, root, segments[1:])
	}

	r := &walk{
		source:     source,
		entityType: source.SourceEntityType(),
		trace:      []any{source},
	}
	r.navigate(segments[1:])
	return r.finish()
}

// resolveOutsideContainer handles paths rooted at a schema element instead of a
// navigation source, e.g. "sap.fe.test.Order/Items" or a bare action name.
func resolveOutsideContainer(g *metadata.ConvertedMetadata, root string, rest []string) Resolution {
	node := g.Lookup(root)
	if node == nil {
		return Resolution{}
	}
	if len(rest) == 0 {
		return Resolution{Target: node, VisitedObjects: []any{node}}
	}
	if entityType, ok := node.(*metadata.EntityType); ok {
		r := &walk{entityType: entityType}
		r.remaining = rest
		return r.finish()
	}
	if action, ok := node.(*metadata.Action); ok && len(rest) == 1 {
		if param := findParameter(action, rest[0]); param != nil {
			return Resolution{Target: param, VisitedObjects: []any{action, param}}
		}
	}
	return Resolution{VisitedObjects: []any{node}}
}

type walk struct {
	source     metadata.NavigationSource
	entityType *metadata.EntityType
	remaining  []string
	trace      []any
}

// navigate consumes leading $NavigationPropertyBinding segments.
func (r *walk) navigate(segments []string) {
	r.remaining = segments
	for len(r.remaining) > 0 && r.remaining[0] == NavigationPropertyBinding {
		r.remaining = r.remaining[1:]
		if len(r.remaining) == 0 {
			return
		}

		navs, consumed, bound := r.findBinding(r.remaining)
		if len(navs) == 0 && bound == nil {
			r.source, r.entityType, r.remaining = nil, nil, nil
			return
		}
		for _, nav := range navs {
			r.trace = append(r.trace, nav)
			if nav.TargetType != nil {
				r.entityType = nav.TargetType
			}
		}
		r.remaining = r.remaining[consumed:]

		r.source = bound
		if bound != nil {
			r.entityType = bound.SourceEntityType()
			r.trace = append(r.trace, bound)
		}
		if len(r.remaining) > 0 && r.remaining[0] == Terminator {
			r.remaining = r.remaining[1:]
		}
	}
}

// findBinding tries increasing prefixes of segments until one names a binding on
// the current source. Without a match the first segment is taken as a single
// navigation property. It returns the navigation properties met along the
// consumed segments, how many segments were consumed and the bound source.
func (r *walk) findBinding(segments []string) ([]*metadata.NavigationProperty, int, metadata.NavigationSource) {
	var navs []*metadata.NavigationProperty
	current := entityStructure(r.entityType)

	for n := 1; n <= len(segments); n++ {
		segment := segments[n-1]
		if segment != NavigationPropertyBinding && segment != Terminator && current != nil {
			if nav := current.FindNavigationProperty(segment); nav != nil {
				navs = append(navs, nav)
				current = entityStructure(nav.TargetType)
			} else if prop := current.FindProperty(segment); prop != nil {
				current = complexStructure(prop.ComplexType())
			} else {
				current = nil
			}
		}

		if r.source == nil {
			continue
		}
		candidate := trimBindingMarkers(segments[:n])
		if candidate == "" {
			continue
		}
		if bound := r.source.BindingFor(candidate); bound != nil {
			return navs, n, bound
		}
	}

	var fallback []*metadata.NavigationProperty
	if len(navs) > 0 && navs[0].Name == segments[0] {
		fallback = navs[:1]
	}
	var bound metadata.NavigationSource
	if r.source != nil {
		bound = r.source.BindingFor(segments[0])
	}
	return fallback, 1, bound
}

// finish applies a type cast and resolves whatever path is left relative to the
// current entity type.
func (r *walk) finish() Resolution {
	relative := strings.Join(r.remaining, "/")
	if len(r.remaining) > 0 && strings.HasPrefix(r.remaining[0], TypeCast) {
		if strings.HasPrefix(relative, TypeCast+"@") {
			relative = strings.TrimPrefix(relative, TypeCast)
		} else {
			relative = ""
		}
	}

	if relative == "" {
		if r.source != nil {
			return Resolution{Target: r.source, VisitedObjects: r.trace}
		}
		if r.entityType != nil {
			return Resolution{Target: r.entityType, VisitedObjects: append(r.trace, r.entityType)}
		}
		return Resolution{VisitedObjects: r.trace}
	}
	if r.entityType == nil {
		return Resolution{VisitedObjects: r.trace}
	}

	target, typeTrace := r.entityType.ResolvePathWithTrace(relative)
	if target != nil {
		return Resolution{Target: target, VisitedObjects: append(r.trace, typeTrace...)}
	}

	if target, objects := resolveBoundAction(r.entityType, relative); target != nil {
		trace := append(r.trace, r.entityType)
		return Resolution{Target: target, VisitedObjects: append(trace, objects...)}
	}
	return Resolution{VisitedObjects: r.trace}
}

// resolveBoundAction reads relative as "action[/parameter]".
func resolveBoundAction(entityType *metadata.EntityType, relative string) (any, []any) {
	if len(entityType.Actions) == 0 {
		return nil, nil
	}
	parts := strings.Split(relative, "/")
	action, ok := entityType.Actions[parts[0]]
	if !ok {
		return nil, nil
	}
	switch len(parts) {
	case 1:
		return action, []any{action}
	case 2:
		if param := findParameter(action, parts[1]); param != nil {
			return param, []any{action, param}
		}
	}
	return nil, nil
}

// findParameter matches a parameter by the suffix of its fully-qualified name.
func findParameter(action *metadata.Action, name string) *metadata.ActionParameter {
	for _, param := range action.Parameters {
		if strings.HasSuffix(param.FullyQualifiedName, "/"+name) {
			return param
		}
	}
	return nil
}

type structuredType interface {
	FindProperty(name string) *metadata.Property
	FindNavigationProperty(name string) *metadata.NavigationProperty
}

func entityStructure(t *metadata.EntityType) structuredType {
	if t == nil {
		return nil
	}
	return t
}

func complexStructure(t *metadata.ComplexType) structuredType {
	if t == nil {
		return nil
	}
	return t
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(strings.Trim(path, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// stripKeyPredicate turns "Orders(1)" into "Orders".
func stripKeyPredicate(segment string) string {
	if i := strings.IndexByte(segment, '('); i > 0 && strings.HasSuffix(segment, ")") {
		return segment[:i]
	}
	return segment
}

// trimBindingMarkers joins segments into a binding path without the trailing
// markers, e.g. ["Address", "Country", "$NavigationPropertyBinding"] becomes
// "Address/Country".
func trimBindingMarkers(segments []string) string {
	end := len(segments)
	for end > 0 && (segments[end-1] == NavigationPropertyBinding || segments[end-1] == Terminator) {
		end--
	}
	return strings.Join(segments[:end], "/")
}
