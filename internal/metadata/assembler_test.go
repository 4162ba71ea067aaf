package metadata

import (
	"strings"
	"testing"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/csdl"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
	"github.com/nlstn/go-odata-metamodel/internal/vocabulary"
)

func TestConvertLinksGraph(t *testing.T) {
	converted := convertOrderService(t, nil)

	if converted.Version != "4.0" || converted.Namespace != "sap.fe.test" {
		t.Fatalf("unexpected version %q or namespace %q", converted.Version, converted.Namespace)
	}
	if converted.EntityContainer == nil || converted.EntityContainer.FullyQualifiedName != "sap.fe.test.Container" {
		t.Fatalf("unexpected container %+v", converted.EntityContainer)
	}

	orders := converted.EntitySet("Orders")
	if orders == nil || orders.EntityType == nil || orders.EntityType.FullyQualifiedName != "sap.fe.test.Order" {
		t.Fatalf("expected Orders to be linked to its entity type, got %+v", orders)
	}

	order := orders.EntityType
	if order.BaseType == nil || order.BaseType.Name != "BaseDocument" {
		t.Errorf("expected base type to be linked, got %+v", order.BaseType)
	}
	if nav := order.FindNavigationProperty("Items"); nav == nil || nav.TargetType != converted.EntityType("sap.fe.test.OrderItem") {
		t.Errorf("expected Items to target OrderItem")
	}
	if address := order.FindProperty("Address"); address.ComplexType() != converted.ComplexType("sap.fe.test.Address") {
		t.Errorf("expected Address to be linked to its complex type")
	}
	if total := order.FindProperty("Total"); total.TargetType == nil || total.TargetType.Kind() != KindTypeDefinition {
		t.Errorf("expected Total to be linked to its type definition")
	}

	if converted.Singleton("Me") == nil || converted.NavigationSource("Me").SourceEntityType().Name != "Customer" {
		t.Errorf("expected singleton Me to be linked to Customer")
	}
	if converted.NavigationSource("Nowhere") != nil {
		t.Errorf("expected unknown navigation source to be nil")
	}
}

func TestConvertAttachesActions(t *testing.T) {
	converted := convertOrderService(t, nil)
	order := converted.EntityType("sap.fe.test.Order")

	submit := order.Actions["Submit"]
	if submit == nil || submit.FullyQualifiedName != "sap.fe.test.Submit(sap.fe.test.Order)" {
		t.Fatalf("expected entity-bound Submit, got %+v", submit)
	}
	if order.Actions["sap.fe.test.Submit"] != submit {
		t.Error("expected Submit under its qualified name")
	}

	comment := converted.Lookup("sap.fe.test.Submit(sap.fe.test.Order)/Comment")
	if comment == nil || comment.Kind() != KindActionParameter {
		t.Fatalf("expected action parameter in the index, got %v", comment)
	}
	if label := comment.(*ActionParameter).Annotation("Common.Label", ""); label == nil || label.Value.String != "Comment" {
		t.Errorf("expected label annotation on the parameter, got %+v", label)
	}

	resetAll := converted.EntityContainer.ActionImports[0]
	if resetAll.Action == nil || resetAll.Action.FullyQualifiedName != "sap.fe.test.ResetAll" {
		t.Errorf("expected action import to be linked, got %+v", resetAll.Action)
	}
	if converted.Action("sap.fe.test.Submit(Collection(sap.fe.test.Order))") == nil {
		t.Errorf("expected collection-bound overload in the index")
	}
}

func TestConvertAttachesAnnotationLists(t *testing.T) {
	converted := convertOrderService(t, nil)
	order := converted.EntityType("sap.fe.test.Order")

	if order.Annotations == nil || order.Annotations.Target != order.FullyQualifiedName {
		t.Fatalf("expected list attached by FQN, got %+v", order.Annotations)
	}
	if order.Annotation("UI.LineItem", "") == nil {
		t.Error("expected line item annotation")
	}
	if customer := converted.EntityType("sap.fe.test.Customer"); customer.Annotation("UI.LineItem", "") != nil {
		t.Error("expected no line item on Customer")
	}

	for i := 1; i < len(converted.AnnotationLists); i++ {
		prev, cur := converted.AnnotationLists[i-1].Target, converted.AnnotationLists[i].Target
		if len(prev) > len(cur) {
			t.Fatalf("annotation lists not sorted by target length: %q before %q", prev, cur)
		}
	}
}

func TestDefaultDataFieldBackfill(t *testing.T) {
	converted := convertOrderService(t, nil)

	for _, entityType := range converted.EntityTypes {
		for _, prop := range entityType.EntityProperties {
			annotation := prop.Annotation(vocabulary.UIDataFieldDefault, "")
			if annotation == nil || annotation.Record == nil {
				t.Fatalf("expected DataFieldDefault on %s", prop.FullyQualifiedName)
			}
			if prop.FullyQualifiedName == "sap.fe.test.Order/Status" {
				if annotation.Record.Type != "com.sap.vocabularies.UI.v1.DataFieldForAnnotation" {
					t.Errorf("expected explicit default to be kept, got %s", annotation.Record.Type)
				}
				continue
			}
			value, ok := annotation.Record.Property("Value")
			if !ok || value.Type != expression.TypePath || value.Path != prop.Name {
				t.Errorf("expected default value path %s on %s, got %+v", prop.Name, prop.FullyQualifiedName, value)
			}
		}
	}
}

func TestFilterFacetIDs(t *testing.T) {
	converted := convertOrderService(t, nil)
	facets := converted.EntityType("sap.fe.test.Order").Annotation(vocabulary.UIFilterFacets, "")
	if facets == nil || facets.Collection.Len() != 2 {
		t.Fatalf("expected 2 filter facets, got %+v", facets)
	}

	want := []string{"FieldGroup::General", "Custom::Facet"}
	for i, item := range facets.Collection.Items {
		id, ok := item.Record.Property("ID")
		if !ok || id.String != want[i] {
			t.Errorf("facet %d: expected ID %q, got %+v", i, want[i], id)
		}
	}
}

func TestConvertRejectsBaseTypeCycles(t *testing.T) {
	doc := csdl.Document{
		"ns.A": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyBaseType: "ns.B"},
		"ns.B": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyBaseType: "ns.A"},
	}

	_, err := Convert(doc, nil)
	if err == nil || !strings.Contains(err.Error(), "base type cycle") {
		t.Fatalf("expected base type cycle error, got %v", err)
	}
}

func TestLinkRecoversFromPanics(t *testing.T) {
	m := &ConvertedMetadata{
		EntityTypes: []*EntityType{nil},
		index:       make(map[string]Node),
		overloads:   make(map[string][]*Action),
	}

	err := m.link()
	if err == nil || !strings.Contains(err.Error(), "failed to link metadata") {
		t.Fatalf("expected a recovered link error, got %v", err)
	}
}

func TestConvertKeepsFunctionOverloads(t *testing.T) {
	doc, err := csdl.ParseBytes([]byte(`{
		"$Version": "4.0",
		"ns.Total": [
			{"$kind": "Function", "$Parameter": [{"$Name": "Year", "$Type": "Edm.Int32"}], "$ReturnType": {"$Type": "Edm.Decimal"}},
			{"$kind": "Function", "$Parameter": [{"$Name": "From", "$Type": "Edm.Date"}, {"$Name": "To", "$Type": "Edm.Date"}], "$ReturnType": {"$Type": "Edm.Decimal"}}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	converted, err := Convert(doc, nil)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	overloads := converted.Overloads("ns.Total")
	if len(overloads) != 2 {
		t.Fatalf("expected 2 overloads, got %d", len(overloads))
	}
	if converted.Action("ns.Total") != overloads[0] {
		t.Error("expected Action to return the first overload")
	}
	if param := converted.Lookup("ns.Total/Year"); param == nil || param.Kind() != KindActionParameter {
		t.Errorf("expected the first overload's parameter in the index, got %v", param)
	}
	if converted.Lookup("ns.Total/From") != nil {
		t.Error("expected later overload parameters to be reachable only through Overloads")
	}
	if overloads[1].Parameter("From") == nil {
		t.Error("expected the second overload to keep its parameters")
	}
}

func TestConvertToleratesMalformedMetadata(t *testing.T) {
	doc := csdl.Document{
		"ns.Order":     map[string]any{csdl.KeyKind: csdl.KindEntityType, "Broken": "not an object", csdl.KeyKey: "ID"},
		"ns.Container": map[string]any{csdl.KeyKind: csdl.KindEntityContainer, "Orders": map[string]any{csdl.KeyKind: csdl.KindEntitySet, csdl.KeyType: "ns.Missing"}},
		"ns.Action":    []any{"not an overload"},
	}

	converted, err := Convert(doc, nil)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if orders := converted.EntitySet("Orders"); orders == nil || orders.EntityType != nil {
		t.Fatalf("expected Orders with unresolved type, got %+v", orders)
	}
	if len(converted.EntityType("ns.Order").Keys) != 0 {
		t.Fatal("expected no keys for malformed $Key")
	}
}

func TestConvertPrunesWithCapabilities(t *testing.T) {
	doc := orderService(t)
	annotationsOfOrder := doc["sap.fe.test."].(map[string]any)[csdl.KeyAnnotations].(map[string]any)["sap.fe.test.Order"].(map[string]any)
	annotationsOfOrder["@com.sap.vocabularies.UI.v1.Identification"] = []any{
		map[string]any{"$Type": vocabulary.UIDataFieldForIntentBasedNavigation},
		map[string]any{"$Type": vocabulary.UIDataField, "Value": map[string]any{"$Path": "ID"}},
	}

	converted, err := Convert(doc, annotations.Capabilities{annotations.IntentBasedNavigation: false})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	identification := converted.EntityType("sap.fe.test.Order").Annotation("UI.Identification", "")
	if identification == nil || identification.Collection.Len() != 1 {
		t.Fatalf("expected pruned identification, got %+v", identification)
	}
}
