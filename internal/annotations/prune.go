package annotations

import (
	"strings"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

// prune removes the entries of raw that belong to disabled capabilities. term is
// the annotation term without qualifier. raw is never modified; a filtered copy
// is returned instead.
func prune(term string, raw any, caps Capabilities) any {
	if len(caps) == 0 {
		return raw
	}

	noMicroChart := !caps.Enabled(MicroChart)
	noIBN := !caps.Enabled(IntentBasedNavigation)

	switch {
	case vocabulary.SameTerm(term, vocabulary.UIHeaderFacets):
		if noMicroChart {
			return filterEntries(raw, isChartReference)
		}
	case vocabulary.SameTerm(term, vocabulary.UIIdentification),
		vocabulary.SameTerm(term, vocabulary.UILineItem):
		return filterDataFields(raw, noMicroChart, noIBN)
	case vocabulary.SameTerm(term, vocabulary.UIFieldGroup):
		obj, ok := raw.(map[string]any)
		if !ok || (!noMicroChart && !noIBN) {
			return raw
		}
		data, ok := obj["Data"].([]any)
		if !ok {
			return raw
		}
		copied := make(map[string]any, len(obj))
		for k, v := range obj {
			copied[k] = v
		}
		copied["Data"] = filterDataFields(data, noMicroChart, noIBN)
		return copied
	case vocabulary.SameTerm(term, vocabulary.UIPresentationVariant):
		if caps.Enabled(Chart) {
			return raw
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return raw
		}
		visualizations, ok := obj["Visualizations"].([]any)
		if !ok {
			return raw
		}
		copied := make(map[string]any, len(obj))
		for k, v := range obj {
			copied[k] = v
		}
		copied["Visualizations"] = filterEntries(visualizations, func(entry map[string]any) bool {
			return annotationPathTargetsChart(csdl.String(entry, "$AnnotationPath"))
		})
		return copied
	}
	return raw
}

func filterDataFields(raw any, noMicroChart, noIBN bool) any {
	if !noMicroChart && !noIBN {
		return raw
	}
	return filterEntries(raw, func(entry map[string]any) bool {
		if noMicroChart && isChartReference(entry) {
			return true
		}
		return noIBN && isIntentBasedNavigation(entry)
	})
}

// filterEntries returns a copy of raw without the objects matched by drop.
// Values that are not arrays are returned unchanged.
func filterEntries(raw any, drop func(map[string]any) bool) any {
	items, ok := raw.([]any)
	if !ok {
		return raw
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(map[string]any); ok && drop(entry) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func isChartReference(entry map[string]any) bool {
	target := csdl.Map0(entry, "Target")
	return annotationPathTargetsChart(csdl.String(target, "$AnnotationPath"))
}

func isIntentBasedNavigation(entry map[string]any) bool {
	return vocabulary.SameTerm(csdl.String(entry, "$Type"), vocabulary.UIDataFieldForIntentBasedNavigation)
}

// annotationPathTargetsChart reports whether an annotation path such as
// "_Item/@UI.Chart#Sales" points at a chart annotation.
func annotationPathTargetsChart(path string) bool {
	idx := strings.LastIndex(path, "@")
	if idx < 0 {
		return false
	}
	term, _, _ := strings.Cut(path[idx+1:], "#")
	return vocabulary.SameTerm(term, vocabulary.UIChart)
}
