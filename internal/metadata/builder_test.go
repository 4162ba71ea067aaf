package metadata

import (
	"reflect"
	"testing"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

func TestKeysAreInheritedFromBaseType(t *testing.T) {
	doc := orderService(t)
	raw, _ := doc.Element("sap.fe.test.Order")

	entityType := BuildEntityType(doc, raw, "sap.fe.test.Order")
	if len(entityType.Keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(entityType.Keys))
	}
	if entityType.Keys[0].FullyQualifiedName != "sap.fe.test.Order/ID" {
		t.Fatalf("expected key mapped onto the derived type, got %s", entityType.Keys[0].FullyQualifiedName)
	}

	var own *Property
	for _, prop := range entityType.EntityProperties {
		if prop.Name == "ID" {
			own = prop
		}
	}
	if entityType.Keys[0] != own {
		t.Fatal("expected key to reference the derived type's own property")
	}
}

func TestResolveEntityKeys(t *testing.T) {
	doc := csdl.Document{
		"ns.A": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyBaseType: "ns.B"},
		"ns.B": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyBaseType: "ns.A"},
		"ns.C": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyBaseType: "ns.Missing"},
		"ns.D": map[string]any{csdl.KeyKind: csdl.KindEntityType, csdl.KeyKey: []any{"K", map[string]any{"Alias": "Nested/Path"}}},
	}

	tests := []struct {
		name string
		want []string
	}{
		{"ns.A", []string{}},
		{"ns.C", []string{}},
		{"ns.D", []string{"K", "Nested/Path"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := doc.Element(tt.name)
			got := ResolveEntityKeys(doc, raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ResolveEntityKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnresolvedKeysAreDropped(t *testing.T) {
	doc := orderService(t)

	customer, _ := doc.Element("sap.fe.test.Customer")
	if keys := BuildEntityType(doc, customer, "sap.fe.test.Customer").Keys; len(keys) != 1 || keys[0].Name != "ID" {
		t.Fatalf("expected only the resolvable key, got %v", keys)
	}

	item, _ := doc.Element("sap.fe.test.OrderItem")
	keys := BuildEntityType(doc, item, "sap.fe.test.OrderItem").Keys
	if len(keys) != 2 || keys[0].Name != "Order_ID" || keys[1].Name != "Position" {
		t.Fatalf("expected aliased key to resolve through its path, got %v", keys)
	}
}

func TestBuildProperty(t *testing.T) {
	doc := orderService(t)
	raw, _ := doc.Element("sap.fe.test.Order")

	prop := BuildProperty(csdl.Map0(raw, "OrderNo"), "sap.fe.test.Order", "OrderNo")
	if prop.FullyQualifiedName != "sap.fe.test.Order/OrderNo" {
		t.Errorf("unexpected FQN %s", prop.FullyQualifiedName)
	}
	if prop.MaxLength != 10 || !prop.Nullable {
		t.Errorf("unexpected facets %+v", prop)
	}

	id := BuildProperty(csdl.Map0(raw, "ID"), "sap.fe.test.Order", "ID")
	if id.Nullable {
		t.Error("expected $Nullable false to be kept")
	}
}

func TestBuildNavigationPropertyConstraints(t *testing.T) {
	doc := orderService(t)
	raw, _ := doc.Element("sap.fe.test.Order")

	nav := BuildNavigationProperty(csdl.Map0(raw, "Customer"), "sap.fe.test.Order", "Customer")
	want := []ReferentialConstraint{{
		SourceTypeName: "sap.fe.test.Order",
		SourceProperty: "CustomerID",
		TargetTypeName: "sap.fe.test.Customer",
		TargetProperty: "ID",
	}}
	if !reflect.DeepEqual(nav.ReferentialConstraint, want) {
		t.Fatalf("got %+v, want %+v", nav.ReferentialConstraint, want)
	}

	items := BuildNavigationProperty(csdl.Map0(raw, "Items"), "sap.fe.test.Order", "Items")
	if !items.IsCollection || items.Partner != "Order" || len(items.ReferentialConstraint) != 0 {
		t.Fatalf("unexpected navigation property %+v", items)
	}
}

func TestBuildActionIdentity(t *testing.T) {
	doc := orderService(t)
	overloads := doc["sap.fe.test.Submit"].([]any)

	bound := BuildAction(overloads[0].(map[string]any), "sap.fe.test.Submit")
	if bound.FullyQualifiedName != "sap.fe.test.Submit(sap.fe.test.Order)" {
		t.Errorf("unexpected FQN %s", bound.FullyQualifiedName)
	}
	if bound.ReturnType != "sap.fe.test.Order" || bound.ReturnCollection {
		t.Errorf("unexpected return type %s (collection %v)", bound.ReturnType, bound.ReturnCollection)
	}
	comment := bound.Parameter("Comment")
	if comment == nil || comment.FullyQualifiedName != "sap.fe.test.Submit(sap.fe.test.Order)/Comment" {
		t.Errorf("unexpected parameter %+v", comment)
	}

	collection := BuildAction(overloads[1].(map[string]any), "sap.fe.test.Submit")
	if collection.FullyQualifiedName != "sap.fe.test.Submit(Collection(sap.fe.test.Order))" {
		t.Errorf("unexpected FQN %s", collection.FullyQualifiedName)
	}

	unbound := BuildAction(map[string]any{csdl.KeyKind: csdl.KindAction}, "sap.fe.test.ResetAll")
	if unbound.FullyQualifiedName != "sap.fe.test.ResetAll" || unbound.IsBound {
		t.Errorf("unexpected unbound action %+v", unbound)
	}
	if unbound.Parameters == nil || len(unbound.Parameters) != 0 {
		t.Errorf("expected empty parameter list, got %v", unbound.Parameters)
	}
}

func TestBuildEntityContainerBindings(t *testing.T) {
	doc := orderService(t)
	raw, _ := doc.Element("sap.fe.test.Container")

	container := BuildEntityContainer(raw, "sap.fe.test.Container")
	if len(container.EntitySets) != 3 || len(container.Singletons) != 1 || len(container.ActionImports) != 1 {
		t.Fatalf("unexpected container contents: %d sets, %d singletons, %d imports",
			len(container.EntitySets), len(container.Singletons), len(container.ActionImports))
	}

	var orders *EntitySet
	for _, entitySet := range container.EntitySets {
		if entitySet.Name == "Orders" {
			orders = entitySet
		}
	}
	if orders == nil {
		t.Fatal("expected entity set Orders")
	}
	if orders.FullyQualifiedName != "sap.fe.test.Container/Orders" {
		t.Errorf("unexpected FQN %s", orders.FullyQualifiedName)
	}
	if len(orders.NavigationPropertyBinding) != 2 {
		t.Fatalf("expected unknown binding to be skipped, got %v", orders.NavigationPropertyBinding)
	}
	if target := orders.BindingFor("Items"); target == nil || target.SourceName() != "OrderItems" {
		t.Fatalf("expected Items to be bound to OrderItems, got %v", target)
	}
}

func TestStableID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@com.sap.vocabularies.UI.v1.FieldGroup#General", "FieldGroup::General"},
		{"@UI.FieldGroup#Other", "FieldGroup::Other"},
		{"_Items/@UI.Chart", "_Items::Chart"},
		{"Custom Facet", "Custom_Facet"},
		{"1st", "_1st"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := StableID(tt.input); got != tt.want {
				t.Fatalf("StableID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	empty := StableID("@")
	if len(empty) <= len("id_") || empty[:3] != "id_" || empty != StableID("@") {
		t.Fatalf("expected stable fallback token, got %q", empty)
	}
}
