package understand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTokens(t *testing.T) {
	tr := FromTokens([]Token{
		{Text: " turn", P: 0.9, Start: 0, End: 200 * time.Millisecond},
		{Text: " on", P: 0.8, Start: 200 * time.Millisecond, End: 300 * time.Millisecond},
		{Text: " li", P: 0.7, Start: 300 * time.Millisecond, End: 400 * time.Millisecond},
		{Text: "ghts", P: 0.5, Start: 400 * time.Millisecond, End: 600 * time.Millisecond},
		{Text: " ", P: 0.1},
	})

	require.Len(t, tr.Words, 3)
	assert.Equal(t, "lights", tr.Words[2].Text)
	assert.Equal(t, 0.5, tr.Words[2].Confidence)
	assert.Equal(t, 300*time.Millisecond, tr.Words[2].Start)
	assert.Equal(t, 600*time.Millisecond, tr.Words[2].End)
	assert.InDelta(t, (0.9+0.8+0.5)/3, tr.Confidence, 1e-9)
}

func TestFromTokensFirstWithoutSpace(t *testing.T) {
	tr := FromTokens([]Token{{Text: "Hi", P: 0.6}, {Text: "!", P: 0.9}})

	require.Len(t, tr.Words, 1)
	assert.Equal(t, "Hi!", tr.Words[0].Text)
	assert.Equal(t, 0.6, tr.Words[0].Confidence)
}

func TestFromTokensEmpty(t *testing.T) {
	tr := FromTokens(nil)
	assert.Empty(t, tr.Words)
	assert.Zero(t, tr.Confidence)
}
