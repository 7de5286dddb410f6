package storage

import (
	"strings"
	"testing"
)

func TestBuildProductImagePath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductImage, PathParams{
		StoreID:   "store123",
		ProductID: "prod789",
		FileName:  "front.webp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "assets/stores/store123/products/prod789/front.webp"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildSectionMediaPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeSectionMedia, PathParams{
		SectionID: "hero-banner",
		FileName:  "diwali-sale.webp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "assets/sections/hero-banner/diwali-sale.webp"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildInvoicePathUsesInvoiceNumber(t *testing.T) {
	path, err := BuildObjectPath(PurposeInvoice, PathParams{
		OrderID:       "order123",
		InvoiceNumber: "QF-2026-000042",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "assets/orders/order123/invoices/QF-2026-000042.pdf"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildObjectPathRejectsUnsafeSegments(t *testing.T) {
	cases := map[string]PathParams{
		"traversal in store id": {StoreID: "../bad", ProductID: "prod", FileName: "file.png"},
		"separator in filename": {StoreID: "store1", ProductID: "prod", FileName: "a/b.png"},
		"missing product id":    {StoreID: "store1", FileName: "file.png"},
		"blank filename":        {StoreID: "store1", ProductID: "prod", FileName: "   "},
	}
	for name, params := range cases {
		if _, err := BuildObjectPath(PurposeProductImage, params); err == nil {
			t.Fatalf("%s: expected error, got none", name)
		}
	}
}

func TestRegisterPathBuilderOverride(t *testing.T) {
	const purpose = AssetPurpose("export-report")
	RegisterPathBuilder(purpose, func(params PathParams) (string, error) {
		return "exports/" + strings.TrimSpace(params.FileName), nil
	})
	t.Cleanup(func() { RegisterPathBuilder(purpose, nil) })

	path, err := BuildObjectPath(purpose, PathParams{FileName: "settlements.csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "exports/settlements.csv" {
		t.Fatalf("expected custom builder output, got %s", path)
	}

	RegisterPathBuilder(purpose, nil)
	if _, err := BuildObjectPath(purpose, PathParams{FileName: "settlements.csv"}); err == nil {
		t.Fatalf("expected unsupported purpose after removal")
	}
}
