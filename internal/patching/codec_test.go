package patching

import (
	"testing"
	"time"

	"github.com/hyperjump/binders/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeSurvivesWireRoundTrip(t *testing.T) {
	at := time.Date(2024, 4, 4, 4, 4, 4, 0, time.UTC)
	fixedClock(t, at)
	b := abc()
	edit, err := PatchEditChunk(b, models.DefaultTextModuleKey, 0, []string{"p1", "p2"}, "{\"blocks\":[]}")
	require.NoError(t, err)
	inject, err := PatchInjectChunk(b, 3, 1)
	require.NoError(t, err)
	original := MergePatches(edit, inject, MergeChunksPatch{Index: 1, MergeUp: true})

	data, err := MarshalPatch(original)
	require.NoError(t, err)
	decoded, err := UnmarshalPatch(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	want, err := Apply(b, true, original)
	require.NoError(t, err)
	got, err := Apply(b, true, decoded)
	require.NoError(t, err)
	assert.Equal(t, chunkTexts(want), chunkTexts(got))
}

func TestUnmarshalPatchErrors(t *testing.T) {
	_, err := UnmarshalPatch([]byte(`{"kind":"rewrite","data":{}}`))
	assert.ErrorContains(t, err, "unknown patch kind")

	_, err = UnmarshalPatch([]byte(`{"kind":"inject-chunk"}`))
	assert.ErrorContains(t, err, "missing data")

	_, err = UnmarshalPatch([]byte(`not json`))
	assert.Error(t, err)

	_, err = MarshalPatch(nil)
	assert.Error(t, err)
}
