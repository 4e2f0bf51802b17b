package search

import (
	"github.com/AvazbekNurmatov/lex-ai/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSearch(results []core.QueryResult)
	Finish(results []core.QueryResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) AfterSearch(_ []core.QueryResult) {}
func (n *noopMonitor) Finish(_ []core.QueryResult)      {}
