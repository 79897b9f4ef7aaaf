package workflow

import (
	"container/heap"

	"github.com/oattyio/oatty/registry"
)

// topoOrder implements spec.md §4.E/§4.E "Determinism": a Kahn's-algorithm
// topological sort whose ties are broken by source order in the workflow
// file, not by id or any other incidental ordering. The teacher has no
// step dependency graph (Arazzo steps run in file order, unconditionally),
// so this is adapted from the general textbook algorithm rather than
// grounded on teacher code; sourceOrder as the tie-break is this module's
// own determinism rule (spec.md §4.E).
func topoOrder(steps []*StepSpec) ([]*StepSpec, error) {
	byID := make(map[string]*StepSpec, len(steps))
	for _, s := range steps {
		if _, dup := byID[s.ID]; dup {
			return nil, &registry.ValidationError{Kind: registry.KindDuplicateStepID, Detail: s.ID}
		}
		byID[s.ID] = s
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, &registry.ValidationError{Kind: registry.KindUnknownDependsOn, Detail: dep}
			}
		}
	}

	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		indegree[s.ID] = len(s.DependsOn)
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	pq := &sourceOrderHeap{}
	heap.Init(pq)
	for _, s := range steps {
		if indegree[s.ID] == 0 {
			heap.Push(pq, s)
		}
	}

	ordered := make([]*StepSpec, 0, len(steps))
	for pq.Len() > 0 {
		s := heap.Pop(pq).(*StepSpec)
		ordered = append(ordered, s)
		for _, depID := range dependents[s.ID] {
			indegree[depID]--
			if indegree[depID] == 0 {
				heap.Push(pq, byID[depID])
			}
		}
	}

	if len(ordered) != len(steps) {
		return nil, &registry.ValidationError{Kind: registry.KindCycleDetected, Detail: "depends_on graph contains a cycle"}
	}
	return ordered, nil
}

// sourceOrderHeap is a min-heap over *StepSpec keyed by sourceOrder, giving
// Kahn's algorithm a deterministic pick among several simultaneously-ready
// steps.
type sourceOrderHeap []*StepSpec

func (h sourceOrderHeap) Len() int           { return len(h) }
func (h sourceOrderHeap) Less(i, j int) bool { return h[i].sourceOrder < h[j].sourceOrder }
func (h sourceOrderHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *sourceOrderHeap) Push(x any)        { *h = append(*h, x.(*StepSpec)) }
func (h *sourceOrderHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
