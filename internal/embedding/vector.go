package embedding

import (
	"math"
	"sort"
)

// Hit is one nearest-neighbour match from TopK.
type Hit struct {
	Index int
	Score float64
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Cosine computes the cosine similarity between two vectors. Zero vectors
// score 0.
func Cosine(a, b []float64) float64 {
	normA := math.Sqrt(dot(a, a))
	normB := math.Sqrt(dot(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot(a, b) / (normA * normB)
}

// TopK returns the k vectors most similar to the query by cosine
// similarity, score-descending. Ties keep the input order.
func TopK(query []float64, vectors [][]float64, k int) []Hit {
	hits := make([]Hit, len(vectors))
	for i := range vectors {
		hits[i] = Hit{Index: i, Score: Cosine(query, vectors[i])}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	if k < 0 {
		k = 0
	}
	return hits[:k]
}
