// Package annotations builds the per-target annotation lists of a metadata document.
package annotations

import (
	"sort"
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

// Annotation is one vocabulary term applied to a target. Exactly one of Value,
// Record and Collection is set.
type Annotation struct {
	// Term is the term as spelled in the metadata, without the leading "@".
	Term         string
	Qualifier    string
	IsCollection bool

	Value      *expression.Expression
	Record     *expression.Record
	Collection *expression.Collection
}

// AliasTerm returns the term in its alias spelling ("UI.LineItem").
func (a *Annotation) AliasTerm() string {
	return vocabulary.ToAliasTerm(a.Term)
}

// FullTerm returns the term in its full spelling.
func (a *Annotation) FullTerm() string {
	return vocabulary.ToFullTerm(a.Term)
}

// Key returns the annotation key without the leading "@", qualifier included.
func (a *Annotation) Key() string {
	if a.Qualifier == "" {
		return a.Term
	}
	return a.Term + "#" + a.Qualifier
}

// Expression returns the annotation value as a single expression.
func (a *Annotation) Expression() expression.Expression {
	switch {
	case a.Record != nil:
		return expression.NewRecord(a.Record)
	case a.Collection != nil:
		return expression.Expression{Type: expression.TypeCollection, Collection: a.Collection}
	case a.Value != nil:
		return *a.Value
	}
	return expression.Expression{Type: expression.TypeNull}
}

// List holds every annotation applied to one target.
type List struct {
	Target      string
	Annotations []*Annotation
}

// Find returns the annotation for term and qualifier. term may use either spelling.
func (l *List) Find(term, qualifier string) *Annotation {
	if l == nil {
		return nil
	}
	for _, a := range l.Annotations {
		if a.Qualifier == qualifier && vocabulary.SameTerm(a.Term, term) {
			return a
		}
	}
	return nil
}

// Builder collects annotations into lists. It is the sink for annotations found
// inside records while parsing.
type Builder struct {
	caps   Capabilities
	parser *expression.Parser
	lists  map[string]*List
}

// NewBuilder returns a builder pruning with caps.
func NewBuilder(caps Capabilities) *Builder {
	b := &Builder{
		caps:  caps,
		lists: make(map[string]*List),
	}
	b.parser = expression.NewParser(b)
	return b
}

// BuildLists converts a raw annotation map (target -> "@Term#Qualifier" -> value)
// into annotation lists sorted by target length, then target.
func BuildLists(raw map[string]any, caps Capabilities) []*List {
	b := NewBuilder(caps)
	b.AddTargets(raw)
	return b.Lists()
}

// AddTargets adds every annotation of a raw annotation map. Targets and keys are
// visited in sorted order.
func (b *Builder) AddTargets(raw map[string]any) {
	for _, target := range csdl.SortedKeys(raw) {
		annotationsOfTarget, ok := raw[target].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range csdl.SortedKeys(annotationsOfTarget) {
			b.AddAnnotation(target, key, annotationsOfTarget[key])
		}
	}
}

// AddAnnotation parses one raw annotation. key has the form "@Term[#Qualifier]";
// "@A@B" records B on the target "target@A".
func (b *Builder) AddAnnotation(target, key string, raw any) {
	if !strings.HasPrefix(key, "@") {
		return
	}
	parts := strings.Split(key[1:], "@")
	termKey := parts[len(parts)-1]
	listTarget := target
	if len(parts) > 1 {
		listTarget = target + "@" + strings.Join(parts[:len(parts)-1], "@")
	}
	if termKey == "" {
		return
	}

	term, qualifier, _ := strings.Cut(termKey, "#")
	raw = prune(term, raw, b.caps)

	annotation := &Annotation{Term: term, Qualifier: qualifier}
	value := b.parser.ParseExpression(raw, listTarget+"@"+termKey)
	switch value.Type {
	case expression.TypeRecord:
		annotation.Record = value.Record
	case expression.TypeCollection:
		annotation.IsCollection = true
		annotation.Collection = value.Collection
	default:
		annotation.Value = &value
	}

	l := b.list(listTarget)
	l.Annotations = append(l.Annotations, annotation)
}

func (b *Builder) list(target string) *List {
	l, ok := b.lists[target]
	if !ok {
		l = &List{Target: target}
		b.lists[target] = l
	}
	return l
}

// Lists returns the collected lists sorted by target length, ties broken by target.
func (b *Builder) Lists() []*List {
	out := make([]*List, 0, len(b.lists))
	for _, l := range b.lists {
		out = append(out, l)
	}
	SortLists(out)
	return out
}

// SortLists orders lists by target length, ties broken by target, so that a target
// always precedes the nested targets synthesized from it.
func SortLists(lists []*List) {
	sort.Slice(lists, func(i, j int) bool {
		if len(lists[i].Target) != len(lists[j].Target) {
			return len(lists[i].Target) < len(lists[j].Target)
		}
		return lists[i].Target < lists[j].Target
	})
}
