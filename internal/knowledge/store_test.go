package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "zendaya.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("a b c", "c b a"))
	assert.Equal(t, 0.0, Similarity("", "a"))
	assert.InDelta(t, 0.5, Similarity("a b", "a b c d"), 1e-9)
}

func TestQueryDirectAndFuzzy(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	m, err := s.Query(ctx, "what can you do?")
	require.NoError(t, err)
	assert.Equal(t, "system_info", m.Category)
	assert.Equal(t, 1.0, m.Similarity)

	require.NoError(t, s.Teach(ctx, "what is the wifi password", "hunter2", "home", 1.0))
	m, err = s.Query(ctx, "what is the wifi password please")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", m.Answer)
	assert.InDelta(t, 5.0/6.0, m.Similarity, 1e-9)

	_, err = s.Query(ctx, "completely unrelated words")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a, err := s.Respond(ctx, "u", "What are you?")
	require.NoError(t, err)
	assert.Equal(t, "offline_knowledge", a.Source)
	assert.False(t, a.NeedsOnline)

	a, err = s.Respond(ctx, "u", "hey there")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Confidence)
	assert.False(t, a.NeedsOnline)

	a, err = s.Respond(ctx, "u", "explain quantum tunnelling")
	require.NoError(t, err)
	assert.Equal(t, 0.3, a.Confidence)
	assert.True(t, a.NeedsOnline)

	require.NoError(t, s.Learn(ctx, "u", "explain quantum tunnelling", "particles borrow energy"))
	a, err = s.Respond(ctx, "u", "explain quantum tunnelling")
	require.NoError(t, err)
	assert.Equal(t, "cached", a.Source)
	assert.Equal(t, "particles borrow energy", a.Text)
}

func TestLearnedExchangeOutlivesCache(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Learn(ctx, "u", "explain quantum tunnelling", "particles borrow energy"))

	m, err := s.Query(ctx, "explain quantum tunnelling")
	require.NoError(t, err)
	assert.Equal(t, "particles borrow energy", m.Answer)
	assert.Equal(t, "conversation", m.Category)

	s.now = func() time.Time { return now.Add(25 * time.Hour) }
	_, err = s.Cached(ctx, "explain quantum tunnelling")
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := s.Respond(ctx, "u", "explain quantum tunnelling")
	require.NoError(t, err)
	assert.Contains(t, a.Text, "particles borrow energy")
	assert.InDelta(t, 0.64, a.Confidence, 1e-9)
}

func TestGreetingNeedsWholeWord(t *testing.T) {
	assert.True(t, isGreeting("hi zendaya"))
	assert.True(t, isGreeting("good morning"))
	assert.False(t, isGreeting("this is it"))
}

func TestCacheExpiryAndCleanup(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	now := time.Now()
	s.now = func() time.Time { return now.AddDate(0, 0, -40) }
	require.NoError(t, s.Learn(ctx, "u", "old question", "old answer"))

	s.now = func() time.Time { return now }
	_, err := s.Cached(ctx, "old question")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Learn(ctx, "u", "new question", "new answer"))

	n, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	hist, err := s.History(ctx, "u", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "new question", hist[0].Message)
}

type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "lamp"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "router"):
		return []float32{0, 1, 0}, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestLibraryContext(t *testing.T) {
	ctx := context.Background()
	lib := openTest(t).Library(keywordEmbedder{})

	n, err := lib.Ingest(ctx, "bedroom.txt", "The lamp is in the bedroom.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = lib.Ingest(ctx, "office.txt", "The router is in the office.")
	require.NoError(t, err)

	got, err := lib.Context(ctx, "where is the lamp")
	require.NoError(t, err)
	assert.Equal(t, "[bedroom.txt] The lamp is in the bedroom.", got)

	got, err = lib.Context(ctx, "what time is it")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunk(t *testing.T) {
	chunks := Chunk("One. Two. Three.", 9)
	assert.Equal(t, []string{"One. Two.", "Three."}, chunks)

	assert.Equal(t, []string{"short."}, Chunk("short", 500))
	assert.Empty(t, Chunk("  ", 500))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, []float32{1.5, -2}, decodeVector(encodeVector([]float32{1.5, -2})))
}
