package usecases

import (
	"strings"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// Score counts the keywords that occur anywhere in the lower-cased query.
// Matching is plain substring containment, so "data" matches "database".
func Score(query string, keywords entities.KeywordSet) int {
	q := strings.ToLower(query)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			score++
		}
	}
	return score
}
