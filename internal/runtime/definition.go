package runtime

import (
	"github.com/arborworks/arbor/internal/validator"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// Definition is a validated, executable workflow: the document's node specs
// bound to behaviors, with the execution orders precomputed.
type Definition struct {
	doc         *schema.Document
	paramSchema schema.Schema

	// main holds entry, middle and exit nodes in dependency order; the run
	// loop stops at the first completed exit node. after holds after-category
	// nodes in declaration order.
	main  []*node
	after []*node
}

// Name returns the definition's name.
func (d *Definition) Name() string { return d.doc.Name }

// Document returns the underlying declarative document.
func (d *Definition) Document() *schema.Document { return d.doc }

// ParamSchema returns the compiled run-parameter schema.
func (d *Definition) ParamSchema() schema.Schema { return d.paramSchema }

// HasAfterNodes reports whether the definition declares background work.
func (d *Definition) HasAfterNodes() bool { return len(d.after) > 0 }

// compile validates the document and binds every spec to its behavior.
// Validation failures surface as *domain.ConfigurationError; a failing
// document never yields a Definition.
func (e *Engine) compile(doc *schema.Document) (*Definition, error) {
	if err := validator.Validate(doc); err != nil {
		return nil, err
	}

	paramSchema, err := doc.ParamSchema()
	if err != nil {
		return nil, &domain.ConfigurationError{Definition: doc.Name, Problems: []string{err.Error()}}
	}

	def := &Definition{doc: doc, paramSchema: paramSchema}

	var problems []string
	for _, id := range dependencyOrder(doc) {
		spec := doc.Node(id)
		b, err := e.behaviorFor(spec)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		n := newNode(spec, b, e.logger)
		if spec.Category == domain.CategoryAfter {
			def.after = append(def.after, n)
		} else {
			def.main = append(def.main, n)
		}
	}
	if len(problems) > 0 {
		return nil, &domain.ConfigurationError{Definition: doc.Name, Problems: problems}
	}

	return def, nil
}

// dependencyOrder returns all node ids in Kahn topological order, breaking
// ties by successor declaration order. The validator already rejected cycles,
// multiple roots and dangling references, so this cannot fail here.
func dependencyOrder(doc *schema.Document) []string {
	indegree := make(map[string]int, len(doc.Nodes))
	for _, spec := range doc.Nodes {
		if _, ok := indegree[spec.ID]; !ok {
			indegree[spec.ID] = 0
		}
		for _, succ := range spec.Successors {
			indegree[succ]++
		}
	}

	var queue []string
	for _, spec := range doc.Nodes {
		if indegree[spec.ID] == 0 {
			queue = append(queue, spec.ID)
		}
	}

	order := make([]string, 0, len(doc.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range doc.Node(id).Successors {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}
	return order
}
