package pipeline

import (
	"sort"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
)

// SortByRelevance orders papers descending by relevance score in place.
// Papers without a score sort as zero. The sort is stable so ties keep
// their arrival order.
func SortByRelevance(papers []*domain.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Score() > papers[j].Score()
	})
}
