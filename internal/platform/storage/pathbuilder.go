package storage

import (
	"fmt"
	"strings"
	"sync"
)

// AssetPurpose captures high-level intent for storage layout decisions.
type AssetPurpose string

const (
	PurposeProductImage AssetPurpose = "product-image"
	PurposeSectionMedia AssetPurpose = "section-media"
	PurposeInvoice      AssetPurpose = "invoice"
)

// PathParams provide required identifiers to compose storage object keys.
type PathParams struct {
	StoreID       string
	ProductID     string
	SectionID     string
	OrderID       string
	InvoiceNumber string
	FileName      string
}

// PathBuilder composes the object path for a given asset purpose.
type PathBuilder func(PathParams) (string, error)

var (
	pathBuildersMu sync.RWMutex
	pathBuilders   = map[AssetPurpose]PathBuilder{
		PurposeProductImage: productImagePath,
		PurposeSectionMedia: sectionMediaPath,
		PurposeInvoice:      invoicePath,
	}
)

// RegisterPathBuilder overrides or registers a builder for a specific purpose.
// A nil builder removes the purpose.
func RegisterPathBuilder(purpose AssetPurpose, builder PathBuilder) {
	pathBuildersMu.Lock()
	defer pathBuildersMu.Unlock()
	if builder == nil {
		delete(pathBuilders, purpose)
		return
	}
	pathBuilders[purpose] = builder
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	pathBuildersMu.RLock()
	builder, ok := pathBuilders[purpose]
	pathBuildersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	return builder(params)
}

func productImagePath(params PathParams) (string, error) {
	return assetPath([]pathSegment{
		{"storeID", params.StoreID},
		{"productID", params.ProductID},
		{"fileName", params.FileName},
	}, "assets/stores/%s/products/%s/%s")
}

func sectionMediaPath(params PathParams) (string, error) {
	return assetPath([]pathSegment{
		{"sectionID", params.SectionID},
		{"fileName", params.FileName},
	}, "assets/sections/%s/%s")
}

func invoicePath(params PathParams) (string, error) {
	name := strings.TrimSpace(params.FileName)
	if name == "" && params.InvoiceNumber != "" {
		name = strings.TrimSpace(params.InvoiceNumber) + ".pdf"
	}
	return assetPath([]pathSegment{
		{"orderID", params.OrderID},
		{"fileName", name},
	}, "assets/orders/%s/invoices/%s")
}

type pathSegment struct {
	label string
	value string
}

// assetPath validates each segment and interpolates them into the layout
// pattern. Segments must not be empty or carry separators or traversal
// sequences; object keys end up in signed URLs, so a stray ".." must never
// survive to the bucket.
func assetPath(segments []pathSegment, pattern string) (string, error) {
	values := make([]any, 0, len(segments))
	for _, seg := range segments {
		value := strings.TrimSpace(seg.value)
		switch {
		case value == "":
			return "", fmt.Errorf("storage: %s is required", seg.label)
		case strings.ContainsAny(value, "/\\"):
			return "", fmt.Errorf("storage: %s contains invalid path characters", seg.label)
		case strings.Contains(value, ".."):
			return "", fmt.Errorf("storage: %s contains invalid traversal sequence", seg.label)
		}
		values = append(values, value)
	}
	return fmt.Sprintf(pattern, values...), nil
}
