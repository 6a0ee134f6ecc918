package domain

import "sort"

type SectionType string

const (
	SectionLayout        SectionType = "layout"
	SectionDrainPan      SectionType = "drain_pan"
	SectionHeatExchanger SectionType = "heat_exchanger"
	SectionDrainage      SectionType = "drainage"
	SectionObservations  SectionType = "observations"
)

// SectionTypes is the fixed set every inspection carries, in display order.
var SectionTypes = []SectionType{
	SectionLayout,
	SectionDrainPan,
	SectionHeatExchanger,
	SectionDrainage,
	SectionObservations,
}

var sectionLabels = map[SectionType]string{
	SectionLayout:        "Layout",
	SectionDrainPan:      "Drain pan",
	SectionHeatExchanger: "Heat exchanger",
	SectionDrainage:      "Drainage",
	SectionObservations:  "Observations",
}

// Label returns the fixed display label, or the raw type for unknown values.
func (t SectionType) Label() string {
	if l, ok := sectionLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t SectionType) Valid() bool {
	_, ok := sectionLabels[t]
	return ok
}

// DisplayRank orders section types for rendering. Unknown types sort last.
func (t SectionType) DisplayRank() int {
	for i, st := range SectionTypes {
		if st == t {
			return i
		}
	}
	return len(SectionTypes)
}

// SortSections orders sections in place by display rank, then by id.
func SortSections(sections []*Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		ri, rj := sections[i].Type.DisplayRank(), sections[j].Type.DisplayRank()
		if ri != rj {
			return ri < rj
		}
		return sections[i].ID < sections[j].ID
	})
}
