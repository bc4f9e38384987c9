package flowsheet

import (
	"fmt"
	"strings"

	"github.com/procflow/engine/internal/util"
	"github.com/procflow/engine/pkg/api"
)

// Resolve computes a total execution order over the registry such that
// every equipment appears after all of its upstream dependencies. Equipment
// with no ordering constraint between them keeps insertion order, so the
// result is deterministic for a given declaration sequence.
func Resolve(reg *Registry) ([]api.Name, error) {
	indegree := map[api.Name]int{}
	dependents := map[api.Name][]api.Name{}

	for name, eq := range reg.All() {
		seen := util.Set[api.Name]{}
		for _, up := range eq.Upstream {
			if _, err := reg.Lookup(up); err != nil {
				return nil, fmt.Errorf("%w: %q referenced by %q",
					ErrUnknownReference, up, name)
			}
			if seen.Contains(up) {
				continue
			}
			seen.Add(up)
			indegree[name]++
			dependents[up] = append(dependents[up], name)
		}
	}

	order := make([]api.Name, 0, reg.Len())
	done := util.Set[api.Name]{}

	for len(order) < reg.Len() {
		next, ok := nextReady(reg, done, indegree)
		if !ok {
			return nil, fmt.Errorf("%w: %s",
				ErrCyclicDependency, remainingNames(reg, done))
		}

		done.Add(next)
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
		}
	}

	return order, nil
}

// nextReady picks the first equipment in insertion order whose upstream
// dependencies have all been placed
func nextReady(
	reg *Registry, done util.Set[api.Name], indegree map[api.Name]int,
) (api.Name, bool) {
	for name := range reg.All() {
		if !done.Contains(name) && indegree[name] == 0 {
			return name, true
		}
	}
	return "", false
}

func remainingNames(reg *Registry, done util.Set[api.Name]) string {
	var names []string
	for name := range reg.All() {
		if !done.Contains(name) {
			names = append(names, string(name))
		}
	}
	return strings.Join(names, ", ")
}
