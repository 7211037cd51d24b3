// internal/blueprint/order.go
package blueprint

import (
	"fmt"
	"sort"
)

// TableOrder returns table names in an order that respects many_to_one
// dependencies: an entity with a many_to_one edge to a target is created
// after that target. A table reachable from itself is a fatal condition —
// a cyclic blueprint is physically unrealizable.
func TableOrder(tables []TableSpec, relationships []RelationshipSpec) ([]string, error) {
	declared := make(map[string]bool, len(tables))
	for _, t := range tables {
		declared[t.Name] = true
	}

	deps := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		deps[t.Name] = make(map[string]bool)
	}
	for _, rel := range relationships {
		if rel.Type != "many_to_one" {
			continue
		}
		if declared[rel.FromTable] && declared[rel.ToTable] {
			deps[rel.FromTable][rel.ToTable] = true
		}
	}

	ordered := make([]string, 0, len(tables))
	visited := make(map[string]bool, len(tables))
	inStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if inStack[name] {
			return fmt.Errorf("circular dependency detected involving table '%s'", name)
		}
		if visited[name] {
			return nil
		}
		inStack[name] = true
		// Deterministic traversal regardless of map iteration order.
		targets := make([]string, 0, len(deps[name]))
		for dep := range deps[name] {
			targets = append(targets, dep)
		}
		sort.Strings(targets)
		for _, dep := range targets {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(inStack, name)
		visited[name] = true
		ordered = append(ordered, name)
		return nil
	}

	for _, t := range tables {
		if err := visit(t.Name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
