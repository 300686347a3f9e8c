package pipeline

import "github.com/jonathan/content-engine/internal/types"

// defaultSectionWords is assumed for sections without an explicit target
// when recomputing the whole-piece word count.
const defaultSectionWords = 150

// MergeOverrides applies a user's outline edits to a brief: field patches by
// original section index, removals, a full reorder that may interleave added
// sections via negative indexes, and appending any added sections the reorder
// did not place. The whole-piece word target is recomputed from the merged
// sections. The input brief is not mutated.
func MergeOverrides(brief types.Brief, overrides *types.BriefOverrides) types.Brief {
	if overrides.IsZero() {
		return brief
	}

	sections := applyFieldOverrides(brief.Outline.Sections, overrides.Sections)
	added := buildAddedSections(overrides.AddedSections)
	removed := indexSet(overrides.RemovedSectionIndexes)

	// Sections are addressed by their pre-removal index: positive for the
	// machine outline, -1, -2, ... for added sections.
	byIndex := make(map[int]types.OutlineSection, len(sections)+len(added))
	for i, s := range sections {
		byIndex[i] = s
	}
	for i, s := range added {
		byIndex[-1-i] = s
	}

	kept := filterRemoved(sections, removed)
	kept = reorder(kept, byIndex, overrides.ReorderedSectionIndexes, len(sections), len(added), removed)
	kept = appendUnplaced(kept, added, overrides.ReorderedSectionIndexes)

	return retargetWordCount(brief, kept)
}

func applyFieldOverrides(sections []types.OutlineSection, patches []types.SectionOverride) []types.OutlineSection {
	out := append([]types.OutlineSection(nil), sections...)
	for i := range out {
		if i >= len(patches) {
			break
		}
		out[i] = patchSection(out[i], patches[i])
	}
	return out
}

func patchSection(s types.OutlineSection, o types.SectionOverride) types.OutlineSection {
	if o.Heading != nil {
		s.Heading = *o.Heading
	}
	if o.Level != nil {
		s.Level = *o.Level
	}
	if o.TargetWords != nil {
		s.TargetWords = *o.TargetWords
	}
	if o.Topics != nil {
		s.Topics = o.Topics
	}
	if o.GeoNote != nil {
		s.GeoNote = *o.GeoNote
	}
	if len(o.Subsections) > 0 && len(s.Subsections) > 0 {
		subs := append([]types.OutlineSection(nil), s.Subsections...)
		for j := range subs {
			if j >= len(o.Subsections) {
				break
			}
			subs[j] = patchSection(subs[j], o.Subsections[j])
		}
		s.Subsections = subs
	}
	return s
}

func buildAddedSections(added []types.AddedSection) []types.OutlineSection {
	out := make([]types.OutlineSection, 0, len(added))
	for _, a := range added {
		s := types.OutlineSection{
			Heading:     a.Heading,
			Level:       a.Level,
			Topics:      a.Topics,
			TargetWords: a.TargetWords,
			GeoNote:     a.GeoNote,
		}
		if s.Level == "" {
			s.Level = "h2"
		}
		if s.TargetWords == 0 {
			s.TargetWords = defaultSectionWords
		}
		if s.Topics == nil {
			s.Topics = []string{}
		}
		out = append(out, s)
	}
	return out
}

func indexSet(indexes []int) map[int]bool {
	if len(indexes) == 0 {
		return nil
	}
	out := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		out[i] = true
	}
	return out
}

func filterRemoved(sections []types.OutlineSection, removed map[int]bool) []types.OutlineSection {
	if len(removed) == 0 {
		return sections
	}
	out := make([]types.OutlineSection, 0, len(sections))
	for i, s := range sections {
		if !removed[i] {
			out = append(out, s)
		}
	}
	return out
}

// reorder replaces the section order with the requested one, dropping indexes
// that are out of range or removed. An order that resolves to nothing leaves
// the current sections untouched.
func reorder(current []types.OutlineSection, byIndex map[int]types.OutlineSection, order []int, originalLen, addedLen int, removed map[int]bool) []types.OutlineSection {
	if len(order) == 0 {
		return current
	}
	out := make([]types.OutlineSection, 0, len(order))
	for _, i := range order {
		valid := (i >= 0 && i < originalLen && !removed[i]) || (i < 0 && -1-i < addedLen)
		if !valid {
			continue
		}
		out = append(out, byIndex[i])
	}
	if len(out) == 0 {
		return current
	}
	return out
}

// appendUnplaced appends added sections the reorder list gave no position.
func appendUnplaced(sections, added []types.OutlineSection, order []int) []types.OutlineSection {
	placed := 0
	for _, i := range order {
		if i < 0 && -1-i < len(added) {
			placed++
		}
	}
	if placed >= len(added) {
		return sections
	}
	return append(sections, added[placed:]...)
}

func retargetWordCount(brief types.Brief, sections []types.OutlineSection) types.Brief {
	total := 0
	for _, s := range sections {
		if s.TargetWords > 0 {
			total += s.TargetWords
		} else {
			total += defaultSectionWords
		}
	}
	brief.WordCount.Target = total
	brief.Outline = types.Outline{
		Sections:           sections,
		TotalSections:      len(sections),
		EstimatedWordCount: total,
	}
	return brief
}
