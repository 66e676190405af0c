// Package model holds the static model catalog and the access rules the
// gateway enforces on it.
package model

import "glot-server/internal/utils/functional"

// Descriptor describes one model exposed through the gateway. Descriptors
// are immutable: the catalog is fixed at construction time.
type Descriptor struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	IsDefault      bool   `json:"isDefault"`
	IsPremium      bool   `json:"isPremium"`
	SupportsVision bool   `json:"supportsVision"`
}

// Catalog is the allow-list of models the gateway will proxy for.
type Catalog struct {
	models []Descriptor
	byID   map[string]Descriptor
}

// NewCatalog builds a catalog from the given descriptors. Order is
// preserved for listing.
func NewCatalog(models []Descriptor) *Catalog {
	byID := make(map[string]Descriptor, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Catalog{models: models, byID: byID}
}

// DefaultCatalog returns the models the gateway ships with.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Descriptor{
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", IsDefault: true, SupportsVision: true},
		{ID: "gpt-4o", DisplayName: "GPT-4o", IsPremium: true, SupportsVision: true},
		{ID: "gpt-4.1", DisplayName: "GPT-4.1", IsPremium: true},
		{ID: "gpt-4.1-mini", DisplayName: "GPT-4.1 mini"},
		{ID: "o3-mini", DisplayName: "o3 mini", IsPremium: true},
	})
}

// Lookup returns the descriptor for id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// List returns the catalog entries, restricted to non-premium models unless
// includePremium is set.
func (c *Catalog) List(includePremium bool) []Descriptor {
	if includePremium {
		out := make([]Descriptor, len(c.models))
		copy(out, c.models)
		return out
	}
	return functional.Filter(c.models, func(d Descriptor) bool {
		return !d.IsPremium
	})
}

// Default returns the catalog's default model, if one is marked.
func (c *Catalog) Default() (Descriptor, bool) {
	return functional.Find(c.models, func(d Descriptor) bool {
		return d.IsDefault
	})
}
