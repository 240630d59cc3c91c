package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Cats purr when they are happy.",
	"Dogs bark at strangers.",
	"The meeting is on Tuesday at noon.",
}

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Positive(t, e.Dimension())

	v, err := e.Embed(context.Background(), "when is the meeting")
	require.NoError(t, err)
	assert.Len(t, v, e.Dimension())
	assert.InDelta(t, 1.0, norm(v), 1e-9)
}

func TestEmbedder_UnknownTermsGiveZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	v, err := e.Embed(context.Background(), "zebra xylophone")
	require.NoError(t, err)
	assert.Zero(t, norm(v))
}

func TestEmbedder_NotPrepared(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotPrepared)

	_, err = NewEmbedder().MarshalState()
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestEmbedder_EmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbedder_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	want, err := e.Embed(ctx, "cats and dogs")
	require.NoError(t, err)

	state, err := e.MarshalState()
	require.NoError(t, err)

	restored := NewEmbedder()
	require.NoError(t, restored.RestoreState(state))
	got, err := restored.Embed(ctx, "cats and dogs")
	require.NoError(t, err)

	assert.Equal(t, e.Dimension(), restored.Dimension())
	assert.Equal(t, want, got)
}

func TestEmbedder_RestoreGarbage(t *testing.T) {
	assert.Error(t, NewEmbedder().RestoreState([]byte("junk")))
}

func TestEmbedder_CancelledContext(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, "cats")
	assert.ErrorIs(t, err, context.Canceled)
}
