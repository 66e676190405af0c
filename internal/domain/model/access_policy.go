package model

import "glot-server/internal/utils/apperrors"

// AccessPolicy enforces the allow-list and the premium entitlement on
// requested model ids. It is a pure lookup over the catalog; no state, no
// external calls.
type AccessPolicy struct {
	catalog *Catalog
}

func NewAccessPolicy(catalog *Catalog) *AccessPolicy {
	return &AccessPolicy{catalog: catalog}
}

// CheckAccess validates a requested model against the allow-list and, for
// premium models, the caller's entitlement. Unknown ids are a validation
// failure, known premium ids without entitlement a forbidden one.
func (p *AccessPolicy) CheckAccess(modelID string, premiumEntitled bool) error {
	descriptor, ok := p.catalog.Lookup(modelID)
	if !ok {
		return apperrors.New(apperrors.KindValidation, "invalid model")
	}
	if descriptor.IsPremium && !premiumEntitled {
		return apperrors.New(apperrors.KindForbidden, "premium required")
	}
	return nil
}
