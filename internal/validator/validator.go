// Package validator checks workflow documents for structural and data-flow
// soundness before any execution. A document that fails validation is never
// compiled into a runnable definition, so a whole class of "field never
// populated" bugs dies at construction time instead of at run time.
package validator

import (
	"fmt"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// Validate runs all checks against the document. It returns nil when the
// document is sound, otherwise a *domain.ConfigurationError aggregating every
// problem found.
func Validate(doc *schema.Document) error {
	v := &validation{
		doc:   doc,
		specs: make(map[string]*domain.NodeSpec, len(doc.Nodes)),
		preds: make(map[string][]string),
	}

	v.checkStructure()
	if len(v.problems) == 0 {
		v.checkTopology()
	}
	if len(v.problems) == 0 {
		v.checkDataFlow()
	}

	if len(v.problems) > 0 {
		return &domain.ConfigurationError{Definition: doc.Name, Problems: v.problems}
	}
	return nil
}

type validation struct {
	doc      *schema.Document
	specs    map[string]*domain.NodeSpec
	preds    map[string][]string
	order    []string // topological order over entry/middle/exit/after nodes
	problems []string
}

func (v *validation) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// checkStructure verifies ids, categories and successor references.
func (v *validation) checkStructure() {
	for i := range v.doc.Nodes {
		spec := &v.doc.Nodes[i]
		if spec.ID == "" {
			v.addf("node at index %d has no id", i)
			continue
		}
		if _, dup := v.specs[spec.ID]; dup {
			v.addf("duplicate node id %q", spec.ID)
			continue
		}
		if !spec.Category.Valid() {
			v.addf("node %q has unknown category %q", spec.ID, spec.Category)
		}
		v.specs[spec.ID] = spec
	}
	if len(v.problems) > 0 {
		return
	}

	for _, spec := range v.doc.Nodes {
		for _, succ := range spec.Successors {
			target, ok := v.specs[succ]
			if !ok {
				v.addf("node %q references unknown successor %q", spec.ID, succ)
				continue
			}
			v.preds[succ] = append(v.preds[succ], spec.ID)

			// Category edge rules: the main chain ends at an exit node, and
			// background work hangs strictly off exit nodes.
			switch {
			case target.Category == domain.CategoryEntry:
				v.addf("entry node %q must not have predecessors (edge from %q)", succ, spec.ID)
			case spec.Category == domain.CategoryExit && target.Category != domain.CategoryAfter:
				v.addf("exit node %q may only precede after nodes, not %q (%s)", spec.ID, succ, target.Category)
			case target.Category == domain.CategoryAfter &&
				spec.Category != domain.CategoryExit && spec.Category != domain.CategoryAfter:
				v.addf("after node %q is reachable from %s node %q; after nodes may only follow exit nodes", succ, spec.Category, spec.ID)
			case spec.Category == domain.CategoryAfter && target.Category != domain.CategoryAfter:
				v.addf("after node %q must not feed back into the main chain (edge to %q)", spec.ID, succ)
			}
		}
	}
}

// checkTopology verifies the single entry point, reachability of an exit node,
// and the absence of cycles.
func (v *validation) checkTopology() {
	var roots []*domain.NodeSpec
	for _, spec := range v.doc.Nodes {
		if len(v.preds[spec.ID]) == 0 {
			roots = append(roots, v.specs[spec.ID])
		}
	}

	switch len(roots) {
	case 0:
		v.addf("no entry point: every node has a predecessor")
		return
	case 1:
		if roots[0].Category != domain.CategoryEntry {
			v.addf("node %q has no predecessors but is tagged %q, not entry", roots[0].ID, roots[0].Category)
			return
		}
	default:
		for _, r := range roots {
			if r.Category != domain.CategoryEntry {
				v.addf("node %q is unreachable (no predecessors, not the entry)", r.ID)
			}
		}
		if len(v.problems) == 0 {
			v.addf("multiple entry nodes declared")
		}
		return
	}
	entry := roots[0]

	// Kahn's algorithm; leftovers mean a cycle.
	indegree := make(map[string]int, len(v.specs))
	for id := range v.specs {
		indegree[id] = len(v.preds[id])
	}
	queue := []string{entry.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		v.order = append(v.order, id)
		for _, succ := range v.specs[id].Successors {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}
	if len(v.order) != len(v.specs) {
		var stuck []string
		seen := make(map[string]bool, len(v.order))
		for _, id := range v.order {
			seen[id] = true
		}
		for _, spec := range v.doc.Nodes {
			if !seen[spec.ID] {
				stuck = append(stuck, spec.ID)
			}
		}
		v.addf("definition contains a cycle or unreachable nodes: %v", stuck)
		return
	}

	hasExit := false
	for _, id := range v.order {
		if v.specs[id].Category == domain.CategoryExit {
			hasExit = true
			break
		}
	}
	if !hasExit {
		v.addf("no exit node is reachable from entry node %q", entry.ID)
	}
}

// checkDataFlow performs the static def-before-use analysis: every declared
// input field of a node must be guaranteed on every path from the entry, either
// as an upstream output field or as an init param (which any upstream node can
// re-publish from the input namespace).
func (v *validation) checkDataFlow() {
	// available[n] = fields guaranteed in the cache before n runs, i.e. the
	// intersection over all predecessors of what they guarantee after running.
	available := make(map[string]map[string]bool, len(v.specs))

	for _, id := range v.order {
		spec := v.specs[id]

		var avail map[string]bool
		for i, pred := range v.preds[id] {
			after := v.afterRunning(available[pred], v.specs[pred])
			if i == 0 {
				avail = after
				continue
			}
			avail = intersect(avail, after)
		}
		if avail == nil {
			avail = make(map[string]bool)
		}
		available[id] = avail

		for _, field := range spec.InputFields {
			if !avail[field] {
				v.addf("node %q reads field %q which no upstream node is guaranteed to produce", id, field)
			}
		}
	}
}

// afterRunning returns the fields guaranteed once spec has executed: what was
// already guaranteed, plus its declared outputs, plus its init params.
func (v *validation) afterRunning(avail map[string]bool, spec *domain.NodeSpec) map[string]bool {
	out := make(map[string]bool, len(avail)+len(spec.OutputFields)+len(spec.InitParams))
	for f := range avail {
		out[f] = true
	}
	for _, f := range spec.OutputFields {
		out[f] = true
	}
	for _, f := range spec.InitParams {
		out[f] = true
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for f := range a {
		if b[f] {
			out[f] = true
		}
	}
	return out
}
