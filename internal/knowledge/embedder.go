package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashingEmbedder is a deterministic feature-hashing embedder. It stands in
// for an external embedding model during local runs and tests; production
// deployments inject a real model behind the same single-method interface.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder builds an embedder producing vectors of the given
// dimensionality.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 64
	}
	return &HashingEmbedder{dims: dims}
}

// Embed maps text onto a fixed-length L2-normalized vector. Identical text
// always yields an identical vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]\"'")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()
		idx := int(sum) % e.dims
		if idx < 0 {
			idx += e.dims
		}
		// Sign bit keeps hash collisions from only accumulating positively.
		if sum&1 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
