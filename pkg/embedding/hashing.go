package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// HashingEmbedder is a deterministic, dependency-free embedding client. It
// tokenizes text into alphanumeric tokens, buckets each token into a
// fixed-width vector via SHA-1 hashing, and L2-normalizes the result. It
// behaves like a real embedding model for gate-admission purposes without
// requiring a network round trip, which makes it suitable for offline
// deployments and deterministic tests.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a HashingEmbedder with the given vector width.
// Panics if dimensions is not positive.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		panic("embedding.NewHashingEmbedder: dimensions must be positive")
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// EmbedMany embeds each text independently; it never fails.
func (h *HashingEmbedder) EmbedMany(_ context.Context, texts []string) ([]Vector, error) {
	vectors := make([]Vector, len(texts))
	for i, text := range texts {
		vectors[i] = h.embed(text)
	}
	return vectors, nil
}

func (h *HashingEmbedder) embed(text string) Vector {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	vector := make(Vector, h.dimensions)
	if len(tokens) == 0 {
		return vector
	}
	for _, token := range tokens {
		digest := sha1.Sum([]byte(token))
		bucket := int(binary.BigEndian.Uint32(digest[:4])) % h.dimensions
		if bucket < 0 {
			bucket += h.dimensions
		}
		vector[bucket]++
	}
	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}
