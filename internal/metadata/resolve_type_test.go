package metadata

import (
	"testing"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/expression"
)

func TestEntityTypeResolvePath(t *testing.T) {
	converted := convertOrderService(t, nil)
	order := converted.EntityType("sap.fe.test.Order")

	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, target any)
	}{
		{
			name: "property",
			path: "OrderNo",
			check: func(t *testing.T, target any) {
				if prop, ok := target.(*Property); !ok || prop.Name != "OrderNo" {
					t.Fatalf("expected property OrderNo, got %T", target)
				}
			},
		},
		{
			name: "inherited lookup through navigation",
			path: "Customer/Name",
			check: func(t *testing.T, target any) {
				if prop, ok := target.(*Property); !ok || prop.FullyQualifiedName != "sap.fe.test.Customer/Name" {
					t.Fatalf("expected Customer/Name, got %v", target)
				}
			},
		},
		{
			name: "complex type descent",
			path: "Address/City",
			check: func(t *testing.T, target any) {
				if prop, ok := target.(*Property); !ok || prop.FullyQualifiedName != "sap.fe.test.Address/City" {
					t.Fatalf("expected Address/City, got %v", target)
				}
			},
		},
		{
			name: "annotation on entity type",
			path: "@UI.LineItem",
			check: func(t *testing.T, target any) {
				if a, ok := target.(*annotations.Annotation); !ok || a.AliasTerm() != "UI.LineItem" {
					t.Fatalf("expected line item annotation, got %T", target)
				}
			},
		},
		{
			name: "record value inside collection",
			path: "@UI.LineItem/0/Value",
			check: func(t *testing.T, target any) {
				if expr, ok := target.(expression.Expression); !ok || expr.Path != "ID" {
					t.Fatalf("expected path expression ID, got %v", target)
				}
			},
		},
		{
			name: "annotation on property",
			path: "Status@com.sap.vocabularies.UI.v1.DataFieldDefault",
			check: func(t *testing.T, target any) {
				if a, ok := target.(*annotations.Annotation); !ok || a.Record == nil {
					t.Fatalf("expected DataFieldDefault record, got %v", target)
				}
			},
		},
		{
			name: "injected default value",
			path: "ID@UI.DataFieldDefault/Value",
			check: func(t *testing.T, target any) {
				if expr, ok := target.(expression.Expression); !ok || expr.Path != "ID" {
					t.Fatalf("expected injected path ID, got %v", target)
				}
			},
		},
		{
			name: "annotation on navigation target type",
			path: "Items/@UI.LineItem",
			check: func(t *testing.T, target any) {
				if target != nil {
					t.Fatalf("expected OrderItem to have no line item, got %v", target)
				}
			},
		},
		{
			name: "type segment",
			path: "$Type",
			check: func(t *testing.T, target any) {
				if target != order {
					t.Fatalf("expected the entity type itself, got %v", target)
				}
			},
		},
		{
			name: "unknown property",
			path: "Missing",
			check: func(t *testing.T, target any) {
				if target != nil {
					t.Fatalf("expected nil, got %v", target)
				}
			},
		},
		{
			name: "index out of range",
			path: "@UI.LineItem/5",
			check: func(t *testing.T, target any) {
				if target != nil {
					t.Fatalf("expected nil, got %v", target)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, order.ResolvePath(tt.path))
		})
	}
}

func TestEntityTypeResolvePathTrace(t *testing.T) {
	converted := convertOrderService(t, nil)
	order := converted.EntityType("sap.fe.test.Order")

	target, trace := order.ResolvePathWithTrace("Customer/Name")
	if target == nil {
		t.Fatal("expected a target")
	}

	want := []string{"sap.fe.test.Order", "sap.fe.test.Order/Customer", "sap.fe.test.Customer", "sap.fe.test.Customer/Name"}
	if len(trace) != len(want) {
		t.Fatalf("expected %d visited objects, got %d", len(want), len(trace))
	}
	for i, visited := range trace {
		node, ok := visited.(Node)
		if !ok || node.Identity() != want[i] {
			t.Fatalf("trace[%d] = %v, want %s", i, visited, want[i])
		}
	}
}
