// Package types defines the data model shared by all pipeline stages.
package types

// SearchIntent classifies what the reader is trying to accomplish.
type SearchIntent string

const (
	IntentInformational SearchIntent = "informational"
	IntentCommercial    SearchIntent = "commercial"
	IntentTransactional SearchIntent = "transactional"
	IntentNavigational  SearchIntent = "navigational"
)

// WordCountPreset selects the word count policy for a piece.
// "auto" derives the target from competitor content; "custom" uses WordCountCustom.
type WordCountPreset string

const (
	PresetAuto     WordCountPreset = "auto"
	PresetConcise  WordCountPreset = "concise"
	PresetStandard WordCountPreset = "standard"
	PresetInDepth  WordCountPreset = "in_depth"
	PresetCustom   WordCountPreset = "custom"
)

// PipelineInput is the original request that created a job.
type PipelineInput struct {
	PrimaryKeyword      string          `json:"primary_keyword" validate:"required,min=2"`
	SecondaryKeywords   []string        `json:"secondary_keywords,omitempty"`
	PeopleAlsoSearchFor []string        `json:"people_also_search_for,omitempty"`
	Intent              []SearchIntent  `json:"intent,omitempty" validate:"dive,oneof=informational commercial transactional navigational"`
	WordCountPreset     WordCountPreset `json:"word_count_preset,omitempty" validate:"omitempty,oneof=auto concise standard in_depth custom"`
	WordCountCustom     int             `json:"word_count_custom,omitempty" validate:"omitempty,min=500,max=6000"`
}

// WordCountOverride is an explicit target passed to brief construction
// instead of the competitor-derived estimate.
type WordCountOverride struct {
	Target int    `json:"target"`
	Note   string `json:"note"`
}

// WordCountGuidelineNote accompanies every override so the writing model
// treats the target as a guideline rather than a hard constraint.
const WordCountGuidelineNote = "Guideline only. Provide more value than competitors; length is secondary."

// ResolveWordCountOverride maps the input's preset to a concrete override,
// or nil when the competitor-derived target should be used.
func ResolveWordCountOverride(input PipelineInput) *WordCountOverride {
	switch input.WordCountPreset {
	case PresetConcise:
		return &WordCountOverride{Target: 1250, Note: WordCountGuidelineNote}
	case PresetStandard:
		return &WordCountOverride{Target: 2000, Note: WordCountGuidelineNote}
	case PresetInDepth:
		return &WordCountOverride{Target: 3200, Note: WordCountGuidelineNote}
	case PresetCustom:
		if input.WordCountCustom < 500 || input.WordCountCustom > 6000 {
			return nil
		}
		return &WordCountOverride{Target: input.WordCountCustom, Note: WordCountGuidelineNote}
	default:
		return nil
	}
}
