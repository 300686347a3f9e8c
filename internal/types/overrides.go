package types

// SectionOverride is a field-level patch for one outline section, addressed
// by its original index. Nil fields leave the section's value untouched.
type SectionOverride struct {
	Heading     *string           `json:"heading,omitempty"`
	Level       *string           `json:"level,omitempty" validate:"omitempty,oneof=h2 h3"`
	TargetWords *int              `json:"target_words,omitempty" validate:"omitempty,min=0"`
	Topics      []string          `json:"topics,omitempty"`
	GeoNote     *string           `json:"geo_note,omitempty"`
	Subsections []SectionOverride `json:"subsections,omitempty"`
}

// AddedSection is a user-created section not present in the machine outline.
type AddedSection struct {
	Heading     string   `json:"heading"`
	Level       string   `json:"level,omitempty" validate:"omitempty,oneof=h2 h3"`
	TargetWords int      `json:"target_words,omitempty" validate:"omitempty,min=0"`
	Topics      []string `json:"topics,omitempty"`
	GeoNote     string   `json:"geo_note,omitempty"`
}

// BriefOverrides is a user's structural edit of the brief outline, applied
// transiently before drafting. Reordered indexes refer to original section
// positions; negative indexes (-1, -2, ...) refer to AddedSections[0], [1], ...
// so a single reorder list can interleave existing and new sections.
type BriefOverrides struct {
	Sections               []SectionOverride `json:"sections,omitempty"`
	RemovedSectionIndexes  []int             `json:"removed_section_indexes,omitempty"`
	ReorderedSectionIndexes []int            `json:"reordered_section_indexes,omitempty"`
	AddedSections          []AddedSection    `json:"added_sections,omitempty"`
}

// IsZero reports whether the overrides would leave any outline unchanged.
func (o *BriefOverrides) IsZero() bool {
	if o == nil {
		return true
	}
	return len(o.Sections) == 0 && len(o.RemovedSectionIndexes) == 0 &&
		len(o.ReorderedSectionIndexes) == 0 && len(o.AddedSections) == 0
}
