package gate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revpilot/gateway/pkg/embedding"
)

func longNote() string {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "sentence %d.", i)
	}
	b.WriteString("\n")
	return b.String()
}

type fixedVectorClient struct {
	vector embedding.Vector
}

func (f fixedVectorClient) EmbedMany(_ context.Context, texts []string) ([]embedding.Vector, error) {
	vectors := make([]embedding.Vector, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

func newGateWithFixedVector(vec embedding.Vector) *Gate {
	return New(DefaultConfig(), func() embedding.Client { return fixedVectorClient{vector: vec} })
}

func TestColdStartDenial(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	decision, err := g.Evaluate(context.Background(), Request{
		NoteID: "n1",
		Text:   "short note without enough detail.",
		Intent: "auto",
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonBelowThreshold, decision.ReasonCode)
	assert.Equal(t, 409, decision.StatusCode)
}

func TestBoundaryAdmit(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	decision, err := g.Evaluate(context.Background(), Request{
		NoteID: "n2",
		Text:   longNote(),
		Intent: "auto",
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "gpt-4o", decision.ModelID)
}

func TestSalienceBypass(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	_, err := g.Evaluate(context.Background(), Request{
		NoteID: "n4",
		Text:   longNote(),
		Intent: "auto",
	})
	require.NoError(t, err)

	decision, err := g.Evaluate(context.Background(), Request{
		NoteID: "n4",
		Text:   longNote() + "BP 170/110\n",
		Intent: "manual",
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "gpt-4o-mini", decision.ModelID)
	assert.True(t, decision.Detail.Salient)
}

func TestDuplicateDenial(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	note := longNote()
	_, err := g.Evaluate(context.Background(), Request{NoteID: "n5", Text: note, Intent: "auto"})
	require.NoError(t, err)

	decision, err := g.Evaluate(context.Background(), Request{NoteID: "n5", Text: note, Intent: "auto"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonDuplicateState, decision.ReasonCode)
}

func TestNotMeaningfulDenial(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	note := longNote()
	_, err := g.Evaluate(context.Background(), Request{NoteID: "n6", Text: note, Intent: "auto"})
	require.NoError(t, err)

	edited := strings.Replace(note, "sentence 10.", "sentence 10!", 1)
	decision, err := g.Evaluate(context.Background(), Request{NoteID: "n6", Text: edited, Intent: "auto"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotMeaningful, decision.ReasonCode)
}

func TestGateNoRegression(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	note := longNote()
	first, err := g.Evaluate(context.Background(), Request{NoteID: "n7", Text: note, Intent: "auto"})
	require.NoError(t, err)
	require.True(t, first.Allowed)

	second, err := g.Evaluate(context.Background(), Request{NoteID: "n7", Text: note, Intent: "auto"})
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicateState, second.ReasonCode)
}

func TestEmbeddingProtocolErrorPropagates(t *testing.T) {
	g := New(DefaultConfig(), func() embedding.Client { return tooFewVectorsClient{} })
	note := longNote()

	// The first evaluation has an empty old span, so Distance answers 1.0
	// without calling the client; the edit below gives both spans content.
	_, err := g.Evaluate(context.Background(), Request{NoteID: "n8", Text: note, Intent: "auto"})
	require.NoError(t, err)

	edited := strings.Replace(note, "sentence 10.", "sentence 10!", 1)
	_, err = g.Evaluate(context.Background(), Request{NoteID: "n8", Text: edited, Intent: "auto"})
	assert.ErrorIs(t, err, embedding.ErrProtocolError)
}

type tooFewVectorsClient struct{}

func (tooFewVectorsClient) EmbedMany(_ context.Context, texts []string) ([]embedding.Vector, error) {
	return []embedding.Vector{{1, 0, 0}}, nil
}

func TestDeriveNoteKey(t *testing.T) {
	assert.Equal(t, NoteKey("note:abc"), DeriveNoteKey("abc", "42"))
	assert.Equal(t, NoteKey("note:42"), DeriveNoteKey("", "42"))
	assert.Equal(t, NoteKey("note:unknown"), DeriveNoteKey("", ""))
}

func TestReset(t *testing.T) {
	g := newGateWithFixedVector(embedding.Vector{1, 0, 0})
	note := longNote()
	_, err := g.Evaluate(context.Background(), Request{NoteID: "n9", Text: note, Intent: "auto"})
	require.NoError(t, err)

	g.Reset()

	decision, err := g.Evaluate(context.Background(), Request{NoteID: "n9", Text: note, Intent: "auto"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "after reset, admitted state should be forgotten")
}
