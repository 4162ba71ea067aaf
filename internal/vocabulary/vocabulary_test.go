package vocabulary

import "testing"

func TestRewriteEnumMember(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"known namespace", "com.sap.vocabularies.UI.v1.ImportanceType/High", "UI.ImportanceType/High"},
		{"odata namespace", "Org.OData.Core.V1.Permission/Read", "Core.Permission/Read"},
		{"unknown namespace", "my.own.vocabulary.ImportanceType/High", "undefined.ImportanceType/High"},
		{"annotation path part", "Order@com.sap.vocabularies.UI.v1.Criticality/Positive", "Order@UI.Criticality/Positive"},
		{"multiple members", "com.sap.vocabularies.UI.v1.ImportanceType/High Low", "UI.ImportanceType/High Low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteEnumMember(tt.input); got != tt.want {
				t.Fatalf("RewriteEnumMember(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTermSpellings(t *testing.T) {
	if got := ToAliasTerm(UILineItem); got != "UI.LineItem" {
		t.Errorf("ToAliasTerm() = %q", got)
	}
	if got := ToAliasTerm("UI.LineItem"); got != "UI.LineItem" {
		t.Errorf("ToAliasTerm() on alias = %q", got)
	}
	if got := ToFullTerm("UI.LineItem"); got != UILineItem {
		t.Errorf("ToFullTerm() = %q", got)
	}
	if got := ToFullTerm("Unknown.Term"); got != "Unknown.Term" {
		t.Errorf("ToFullTerm() on unknown alias = %q", got)
	}
	if !SameTerm("UI.Chart", UIChart) {
		t.Error("expected alias and full spelling to match")
	}
	if SameTerm("UI.Chart", UILineItem) {
		t.Error("expected different terms not to match")
	}
}

func TestAliasTableIsSymmetric(t *testing.T) {
	for namespace, alias := range namespaceToAlias {
		back, ok := Namespace(alias)
		if !ok || back != namespace {
			t.Errorf("Namespace(%q) = %q, %v; want %q", alias, back, ok, namespace)
		}
		if got, _ := Alias(namespace); got != alias {
			t.Errorf("Alias(%q) = %q, want %q", namespace, got, alias)
		}
	}
}
