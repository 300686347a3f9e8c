package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("drafting.json", "writer_system")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "senior content writer")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("analysis.json", "no-such-prompt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGet_Cached(t *testing.T) {
	ClearCache()

	first, err := Get("analysis.json", "brief_system")
	require.NoError(t, err)
	second, err := Get("analysis.json", "brief_system")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("analysis.json", "no-such-prompt")
	})
}

func TestStagePromptsPresent(t *testing.T) {
	ClearCache()

	for _, tc := range []struct{ file, key string }{
		{"analysis.json", "extraction_system"},
		{"analysis.json", "brief_system"},
		{"analysis.json", "brief_best_version_hint"},
		{"drafting.json", "writer_system"},
		{"grounding.json", "current_data_template"},
	} {
		prompt, err := Get(tc.file, tc.key)
		require.NoError(t, err, "%s/%s", tc.file, tc.key)
		assert.NotEmpty(t, prompt)
	}
}
