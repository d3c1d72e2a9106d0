// Package hash provides a deterministic local embedding service.
//
// Vectors are derived from a SHA-256 digest of the text: stable and
// dependency-free, but not semantic. The service exists so indexing and
// retrieval keep working offline; its model name is distinct from any
// real provider so stored vectors are never mixed with semantic spaces.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-embed-v1"
	DefaultDimensions = 384
)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Dimensions is the vector size (default: 384).
	Dimensions int
}

// EmbeddingService generates deterministic pseudo-embeddings.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a new hashing embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: cfg.Dimensions}
}

// Embed generates a pseudo-vector for the given text.
// Values fall in [-1, 1]; identical text always yields identical output.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	digest := sha256.Sum256([]byte(text))
	h := digest[:]

	out := make([]float32, 0, s.dimensions)
	i := 0
	for len(out) < s.dimensions {
		if i+4 > len(h) {
			// Churn the digest to keep filling larger dimensions.
			next := sha256.Sum256(h)
			h = next[:]
			i = 0
		}
		val := binary.LittleEndian.Uint32(h[i : i+4])
		out = append(out, float32(val%1000)/500.0-1.0)
		i += 4
	}
	return out, nil
}

// EmbedBatch generates pseudo-vectors for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the synthetic model identifier.
func (s *EmbeddingService) ModelName() string {
	return DefaultModel
}

// Ping always succeeds; there is no remote service.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
