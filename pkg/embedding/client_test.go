package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	vectors []Vector
	err     error
}

func (s *stubClient) EmbedMany(_ context.Context, _ []string) ([]Vector, error) {
	return s.vectors, s.err
}

func TestDistanceWhitespaceOnlySpan(t *testing.T) {
	dist, err := Distance(context.Background(), &stubClient{}, "   ", "real content")
	require.NoError(t, err)
	assert.Equal(t, 1.0, dist)
}

func TestDistanceProtocolError(t *testing.T) {
	client := &stubClient{vectors: []Vector{{1, 0, 0}}}
	_, err := Distance(context.Background(), client, "old span", "new span")
	assert.ErrorIs(t, err, ErrProtocolError)
}

func TestDistanceZeroVector(t *testing.T) {
	client := &stubClient{vectors: []Vector{{0, 0, 0}, {1, 0, 0}}}
	dist, err := Distance(context.Background(), client, "old span", "new span")
	require.NoError(t, err)
	assert.Equal(t, 1.0, dist)
}

func TestDistanceIdenticalVectors(t *testing.T) {
	client := &stubClient{vectors: []Vector{{1, 0, 0}, {1, 0, 0}}}
	dist, err := Distance(context.Background(), client, "old span", "new span")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dist, 1e-9)
}

func TestDistanceOrthogonalVectors(t *testing.T) {
	client := &stubClient{vectors: []Vector{{1, 0, 0}, {0, 1, 0}}}
	dist, err := Distance(context.Background(), client, "old span", "new span")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dist, 1e-9)
}

func TestHashingEmbedderDeterministic(t *testing.T) {
	embedder := NewHashingEmbedder(64)
	v1, err := embedder.EmbedMany(context.Background(), []string{"chest pain for 2 days"})
	require.NoError(t, err)
	v2, err := embedder.EmbedMany(context.Background(), []string{"chest pain for 2 days"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	embedder := NewHashingEmbedder(32)
	vectors, err := embedder.EmbedMany(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	for _, v := range vectors[0] {
		assert.Zero(t, v)
	}
}
