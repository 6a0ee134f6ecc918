// Package gate decides what the customer portal may see. A site becomes
// visible once any of its inspections is completed and released; nothing
// about in-progress or unreleased work is exposed.
package gate

import "github.com/vbonduro/siteinspect/internal/domain"

// InspectionVisible reports whether a single inspection may be shown to the
// customer.
func InspectionVisible(i *domain.Inspection) bool {
	return i != nil && i.Status == domain.StatusCompleted && i.Released
}

// SiteVisible reports whether any of the site's inspections passes
// InspectionVisible.
func SiteVisible(inspections []*domain.Inspection) bool {
	for _, i := range inspections {
		if InspectionVisible(i) {
			return true
		}
	}
	return false
}

// Filter keeps the visible inspections, preserving order.
func Filter(inspections []*domain.Inspection) []*domain.Inspection {
	out := make([]*domain.Inspection, 0, len(inspections))
	for _, i := range inspections {
		if InspectionVisible(i) {
			out = append(out, i)
		}
	}
	return out
}
