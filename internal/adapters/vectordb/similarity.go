package vectordb

import (
	"math"
	"sort"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores chunks against the query and keeps the best topK. Equal
// scores keep document order.
func rank(query []float32, chunks []entities.Chunk, topK int) []entities.QueryResult {
	results := make([]entities.QueryResult, len(chunks))
	for i, c := range chunks {
		results[i] = entities.QueryResult{
			Chunk:     c,
			Score:     cosineSimilarity(query, c.Embedding),
			SourceDoc: c.Source,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
