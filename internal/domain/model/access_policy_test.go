package model

import (
	"testing"

	"glot-server/internal/utils/apperrors"
)

func testCatalog() *Catalog {
	return NewCatalog([]Descriptor{
		{ID: "basic", DisplayName: "Basic", IsDefault: true},
		{ID: "fancy", DisplayName: "Fancy", IsPremium: true, SupportsVision: true},
	})
}

func TestCheckAccessUnknownModel(t *testing.T) {
	policy := NewAccessPolicy(testCatalog())
	err := policy.CheckAccess("nope", true)
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckAccessPremiumWithoutEntitlement(t *testing.T) {
	policy := NewAccessPolicy(testCatalog())
	err := policy.CheckAccess("fancy", false)
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestCheckAccessAllowed(t *testing.T) {
	policy := NewAccessPolicy(testCatalog())
	if err := policy.CheckAccess("basic", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := policy.CheckAccess("fancy", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCatalogListFiltersPremium(t *testing.T) {
	catalog := testCatalog()

	free := catalog.List(false)
	if len(free) != 1 || free[0].ID != "basic" {
		t.Fatalf("unexpected non-premium listing: %+v", free)
	}

	all := catalog.List(true)
	if len(all) != 2 {
		t.Fatalf("expected 2 models with premium view, got %d", len(all))
	}
}

func TestCatalogDefault(t *testing.T) {
	d, ok := testCatalog().Default()
	if !ok || d.ID != "basic" {
		t.Fatalf("unexpected default model: %+v ok=%v", d, ok)
	}
}
