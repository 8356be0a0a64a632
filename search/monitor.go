package search

import "github.com/poiesic/paperbase/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterRanking(matches []*core.SimilarityMatch)
	RankingFailed(err error)
	ResultJoined(result *core.RankedResult)
	Finish(results []*core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)        {}
func (n *noopMonitor) AfterRanking(_ []*core.SimilarityMatch) {}
func (n *noopMonitor) RankingFailed(_ error)                  {}
func (n *noopMonitor) ResultJoined(_ *core.RankedResult)      {}
func (n *noopMonitor) Finish(_ []*core.RankedResult)          {}
