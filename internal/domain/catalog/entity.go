// Package catalog defines the product-to-service mapping catalog and the
// benchmark value table.  The catalog is an immutable snapshot loaded at the
// pipeline boundary; matching strategies read it, nothing writes to it.
package catalog

import (
	"strings"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// ServiceCatalogEntry describes one sellable service.
type ServiceCatalogEntry struct {
	Name     string                `json:"name"`
	SKU      string                `json:"sku,omitempty"`
	Practice string                `json:"practice,omitempty"`
	Price    *inventory.ValueRange `json:"price,omitempty"`
}

// Validate checks the entry's identity invariant.
func (e *ServiceCatalogEntry) Validate() error {
	if e.Name == "" {
		return errors.New(errors.ErrCodeCatalogEntryInvalid, "service name cannot be empty")
	}
	if e.Price != nil {
		if err := e.Price.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrCodeCatalogEntryInvalid, "service price range invalid")
		}
	}
	return nil
}

// ExactMapping binds one product identifier to its recommended services.
// ProductName is the catalog's recorded name for the product; the exact-match
// strategy compares it to the inventory record's name to scale confidence.
type ExactMapping struct {
	ProductID   string                `json:"product_id"`
	ProductName string                `json:"product_name"`
	Services    []ServiceCatalogEntry `json:"services"`
}

// Catalog is the full mapping snapshot consumed by the tiered matcher:
// exact product mappings, category-level generic mappings, the guaranteed
// fallback set, and platform→category aliases.
type Catalog struct {
	Exact    map[string]ExactMapping          `json:"exact"`
	Category map[string][]ServiceCatalogEntry `json:"category"`
	Fallback []ServiceCatalogEntry            `json:"fallback"`

	// PlatformAliases maps loader platform strings onto catalog category
	// keys, e.g. "x86 rack server" → "compute".
	PlatformAliases map[string]string `json:"platform_aliases,omitempty"`
}

// NormalizeKey lowercases and trims a product/category key for lookup.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LookupExact returns the exact mapping for a product identifier.
func (c *Catalog) LookupExact(productID string) (ExactMapping, bool) {
	if c == nil || productID == "" {
		return ExactMapping{}, false
	}
	m, ok := c.Exact[NormalizeKey(productID)]
	return m, ok
}

// CategoryFor resolves a record's platform string to a catalog category key,
// following aliases first and falling back to the normalized platform itself.
func (c *Catalog) CategoryFor(platform string) (string, bool) {
	if c == nil {
		return "", false
	}
	key := NormalizeKey(platform)
	if key == "" {
		return "", false
	}
	if alias, ok := c.PlatformAliases[key]; ok {
		key = alias
	}
	if _, ok := c.Category[key]; !ok {
		return "", false
	}
	return key, true
}

// LookupCategory returns the generic services for a platform's category.
func (c *Catalog) LookupCategory(platform string) ([]ServiceCatalogEntry, bool) {
	key, ok := c.CategoryFor(platform)
	if !ok {
		return nil, false
	}
	return c.Category[key], true
}

// FallbackServices returns the always-available generic service set.
func (c *Catalog) FallbackServices() []ServiceCatalogEntry {
	if c == nil {
		return nil
	}
	return c.Fallback
}

// Validate checks the catalog invariants.  A catalog without a fallback set
// cannot guarantee 100% coverage and is rejected at load time.
func (c *Catalog) Validate() error {
	if c == nil || (len(c.Exact) == 0 && len(c.Category) == 0 && len(c.Fallback) == 0) {
		return errors.New(errors.ErrCodeCatalogEmpty, "catalog has no mappings")
	}
	if len(c.Fallback) == 0 {
		return errors.New(errors.ErrCodeFallbackSetMissing, "catalog fallback service set is empty")
	}
	for id, m := range c.Exact {
		for i := range m.Services {
			if err := m.Services[i].Validate(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCatalogEntryInvalid, "invalid exact mapping for "+id)
			}
		}
	}
	for key, svcs := range c.Category {
		for i := range svcs {
			if err := svcs[i].Validate(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCatalogEntryInvalid, "invalid category mapping for "+key)
			}
		}
	}
	for i := range c.Fallback {
		if err := c.Fallback[i].Validate(); err != nil {
			return errors.Wrap(err, errors.ErrCodeCatalogEntryInvalid, "invalid fallback service")
		}
	}
	return nil
}

// DefaultFallbackServices is the generic high-priority service set used when
// neither an exact nor a category mapping exists for a record.
func DefaultFallbackServices() []ServiceCatalogEntry {
	return []ServiceCatalogEntry{
		{Name: "Infrastructure Assessment", SKU: "SVC-ASSESS-01", Practice: "advisory"},
		{Name: "Lifecycle Review Workshop", SKU: "SVC-LIFECYCLE-01", Practice: "advisory"},
		{Name: "Support Contract Review", SKU: "SVC-SUPPORT-01", Practice: "support"},
	}
}
