package pipeline

import (
	"reflect"
	"testing"

	"github.com/jonathan/content-engine/internal/types"
)

func sectionHeadings(b types.Brief) []string {
	out := make([]string, 0, len(b.Outline.Sections))
	for _, s := range b.Outline.Sections {
		out = append(out, s.Heading)
	}
	return out
}

func TestMergeOverridesNilIsIdentity(t *testing.T) {
	brief := briefFixture()
	got := MergeOverrides(brief, nil)
	if !reflect.DeepEqual(got, brief) {
		t.Errorf("nil overrides changed the brief: %+v", got)
	}
	got = MergeOverrides(brief, &types.BriefOverrides{})
	if !reflect.DeepEqual(got, brief) {
		t.Errorf("empty overrides changed the brief: %+v", got)
	}
}

func TestMergeOverridesFieldPatch(t *testing.T) {
	heading := "Revised Heading"
	words := 500
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{
		Sections: []types.SectionOverride{{Heading: &heading, TargetWords: &words}},
	})
	if got.Outline.Sections[0].Heading != "Revised Heading" || got.Outline.Sections[0].TargetWords != 500 {
		t.Errorf("section 0 = %+v", got.Outline.Sections[0])
	}
	// Untouched fields and sections survive the patch.
	if got.Outline.Sections[0].Level != "h2" || got.Outline.Sections[1].Heading != "Second Section" {
		t.Errorf("sections = %+v", got.Outline.Sections)
	}
	if got.WordCount.Target != 900 || got.Outline.EstimatedWordCount != 900 {
		t.Errorf("word target = %d / %d", got.WordCount.Target, got.Outline.EstimatedWordCount)
	}
	if got.WordCount.Note != "competitor average plus margin" {
		t.Errorf("note = %q", got.WordCount.Note)
	}
}

func TestMergeOverridesRemove(t *testing.T) {
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{RemovedSectionIndexes: []int{0}})
	if want := []string{"Second Section"}; !reflect.DeepEqual(sectionHeadings(got), want) {
		t.Errorf("headings = %v", sectionHeadings(got))
	}
	if got.Outline.TotalSections != 1 || got.WordCount.Target != 400 {
		t.Errorf("totals = %d sections, %d words", got.Outline.TotalSections, got.WordCount.Target)
	}
}

func TestMergeOverridesReorderWithAddedSection(t *testing.T) {
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{
		AddedSections:           []types.AddedSection{{Heading: "Added Section"}},
		ReorderedSectionIndexes: []int{1, -1, 0},
	})
	want := []string{"Second Section", "Added Section", "First Section"}
	if !reflect.DeepEqual(sectionHeadings(got), want) {
		t.Errorf("headings = %v", sectionHeadings(got))
	}
	added := got.Outline.Sections[1]
	if added.Level != "h2" || added.TargetWords != defaultSectionWords {
		t.Errorf("added section defaults = %+v", added)
	}
	if got.WordCount.Target != 850 {
		t.Errorf("word target = %d", got.WordCount.Target)
	}
}

func TestMergeOverridesUnplacedAddedAppends(t *testing.T) {
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{
		AddedSections: []types.AddedSection{{Heading: "Appended Section", TargetWords: 200}},
	})
	want := []string{"First Section", "Second Section", "Appended Section"}
	if !reflect.DeepEqual(sectionHeadings(got), want) {
		t.Errorf("headings = %v", sectionHeadings(got))
	}
	if got.WordCount.Target != 900 {
		t.Errorf("word target = %d", got.WordCount.Target)
	}
}

func TestMergeOverridesReorderDropsInvalidIndexes(t *testing.T) {
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{
		ReorderedSectionIndexes: []int{0, 5, -3},
	})
	if want := []string{"First Section"}; !reflect.DeepEqual(sectionHeadings(got), want) {
		t.Errorf("headings = %v", sectionHeadings(got))
	}
}

func TestMergeOverridesRemovedIndexIgnoredInReorder(t *testing.T) {
	got := MergeOverrides(briefFixture(), &types.BriefOverrides{
		RemovedSectionIndexes:   []int{1},
		ReorderedSectionIndexes: []int{1, 0},
	})
	if want := []string{"First Section"}; !reflect.DeepEqual(sectionHeadings(got), want) {
		t.Errorf("headings = %v", sectionHeadings(got))
	}
}

func TestMergeOverridesSubsectionPatch(t *testing.T) {
	brief := briefFixture()
	brief.Outline.Sections[0].Subsections = []types.OutlineSection{
		{Heading: "Sub One", Level: "h3", TargetWords: 100},
	}
	heading := "Sub One Revised"
	got := MergeOverrides(brief, &types.BriefOverrides{
		Sections: []types.SectionOverride{{
			Subsections: []types.SectionOverride{{Heading: &heading}},
		}},
	})
	sub := got.Outline.Sections[0].Subsections[0]
	if sub.Heading != "Sub One Revised" || sub.TargetWords != 100 {
		t.Errorf("subsection = %+v", sub)
	}
	// The original brief must not be mutated.
	if brief.Outline.Sections[0].Subsections[0].Heading != "Sub One" {
		t.Error("input brief mutated")
	}
}
