package metadata

import (
	"testing"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

const orderServiceJSON = `{
	"$Version": "4.0",
	"$EntityContainer": "sap.fe.test.Container",
	"sap.fe.test.": {
		"$kind": "Schema",
		"$Annotations": {
			"sap.fe.test.Order": {
				"@com.sap.vocabularies.UI.v1.LineItem": [
					{"$Type": "com.sap.vocabularies.UI.v1.DataField", "Value": {"$Path": "ID"}}
				],
				"@com.sap.vocabularies.UI.v1.FilterFacets": [
					{"$Type": "com.sap.vocabularies.UI.v1.ReferenceFacet", "Target": {"$AnnotationPath": "@com.sap.vocabularies.UI.v1.FieldGroup#General"}},
					{"$Type": "com.sap.vocabularies.UI.v1.ReferenceFacet", "ID": "Custom/Facet", "Target": {"$AnnotationPath": "@UI.FieldGroup#Other"}}
				],
				"@com.sap.vocabularies.Common.v1.SemanticKey": [{"$PropertyPath": "OrderNo"}]
			},
			"sap.fe.test.Order/Status": {
				"@com.sap.vocabularies.UI.v1.DataFieldDefault": {
					"$Type": "com.sap.vocabularies.UI.v1.DataFieldForAnnotation",
					"Target": {"$AnnotationPath": "@UI.DataPoint"}
				}
			},
			"sap.fe.test.Submit(sap.fe.test.Order)/Comment": {
				"@com.sap.vocabularies.Common.v1.Label": "Comment"
			}
		}
	},
	"sap.fe.test.BaseDocument": {
		"$kind": "EntityType",
		"$Key": ["ID"],
		"ID": {"$kind": "Property", "$Type": "Edm.Int32", "$Nullable": false}
	},
	"sap.fe.test.Order": {
		"$kind": "EntityType",
		"$BaseType": "sap.fe.test.BaseDocument",
		"ID": {"$kind": "Property", "$Type": "Edm.Int32", "$Nullable": false},
		"OrderNo": {"$kind": "Property", "$Type": "Edm.String", "$MaxLength": 10},
		"Status": {"$kind": "Property", "$Type": "Edm.String"},
		"Total": {"$kind": "Property", "$Type": "sap.fe.test.Amount", "$Precision": 15, "$Scale": 2},
		"Address": {"$kind": "Property", "$Type": "sap.fe.test.Address"},
		"CustomerID": {"$kind": "Property", "$Type": "Edm.Int32"},
		"Items": {"$kind": "NavigationProperty", "$Type": "sap.fe.test.OrderItem", "$isCollection": true, "$Partner": "Order"},
		"Customer": {
			"$kind": "NavigationProperty",
			"$Type": "sap.fe.test.Customer",
			"$ReferentialConstraint": {"CustomerID": "ID", "CustomerID@Common.Label": "Customer"}
		}
	},
	"sap.fe.test.OrderItem": {
		"$kind": "EntityType",
		"$Key": ["Order_ID", {"Pos": "Position"}],
		"Order_ID": {"$kind": "Property", "$Type": "Edm.Int32"},
		"Position": {"$kind": "Property", "$Type": "Edm.Int32"},
		"Order": {"$kind": "NavigationProperty", "$Type": "sap.fe.test.Order"}
	},
	"sap.fe.test.Customer": {
		"$kind": "EntityType",
		"$Key": ["ID", "Missing"],
		"ID": {"$kind": "Property", "$Type": "Edm.Int32"},
		"Name": {"$kind": "Property", "$Type": "Edm.String"}
	},
	"sap.fe.test.Address": {
		"$kind": "ComplexType",
		"City": {"$kind": "Property", "$Type": "Edm.String"}
	},
	"sap.fe.test.Amount": {"$kind": "TypeDefinition", "$UnderlyingType": "Edm.Decimal"},
	"sap.fe.test.Container": {
		"$kind": "EntityContainer",
		"Orders": {
			"$kind": "EntitySet",
			"$Type": "sap.fe.test.Order",
			"$NavigationPropertyBinding": {"Items": "OrderItems", "Customer": "Customers", "Unknown": "Nowhere"}
		},
		"OrderItems": {
			"$kind": "EntitySet",
			"$Type": "sap.fe.test.OrderItem",
			"$NavigationPropertyBinding": {"Order": "Orders"}
		},
		"Customers": {"$kind": "EntitySet", "$Type": "sap.fe.test.Customer"},
		"Me": {"$kind": "Singleton", "$Type": "sap.fe.test.Customer"},
		"ResetAll": {"$kind": "ActionImport", "$Action": "sap.fe.test.ResetAll"}
	},
	"sap.fe.test.Submit": [
		{
			"$kind": "Action",
			"$IsBound": true,
			"$Parameter": [
				{"$Name": "_it", "$Type": "sap.fe.test.Order"},
				{"$Name": "Comment", "$Type": "Edm.String"}
			],
			"$ReturnType": {"$Type": "sap.fe.test.Order"}
		},
		{
			"$kind": "Action",
			"$IsBound": true,
			"$Parameter": [{"$Name": "_it", "$Type": "sap.fe.test.Order", "$isCollection": true}]
		}
	],
	"sap.fe.test.ResetAll": [{"$kind": "Action"}]
}`

func orderService(t *testing.T) csdl.Document {
	t.Helper()
	doc, err := csdl.ParseBytes([]byte(orderServiceJSON))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func convertOrderService(t *testing.T, caps annotations.Capabilities) *ConvertedMetadata {
	t.Helper()
	converted, err := Convert(orderService(t), caps)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	return converted
}
