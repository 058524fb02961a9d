package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

func doc(nodes ...domain.NodeSpec) *schema.Document {
	return &schema.Document{Name: "test", Nodes: nodes}
}

func configProblems(t *testing.T, err error) []string {
	t.Helper()
	var cfg *domain.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	return cfg.Problems
}

func TestValidate_SoundChain(t *testing.T) {
	d := doc(
		domain.NodeSpec{
			ID: "entry", Type: "prompt", Category: domain.CategoryEntry,
			Successors: []string{"enrich"},
			InitParams: []string{"user_input"}, OutputFields: []string{"user_input"},
		},
		domain.NodeSpec{
			ID: "enrich", Type: "world", Category: domain.CategoryMiddle,
			Successors:  []string{"generate"},
			InputFields: []string{"user_input"}, OutputFields: []string{"prompt"},
		},
		domain.NodeSpec{
			ID: "generate", Type: "model", Category: domain.CategoryExit,
			Successors:  []string{"memorize"},
			InputFields: []string{"prompt"}, OutputFields: []string{"reply"},
		},
		domain.NodeSpec{
			ID: "memorize", Type: "memory", Category: domain.CategoryAfter,
			InputFields: []string{"reply"},
		},
	)

	assert.NoError(t, Validate(d))
}

func TestValidate_UnknownSuccessor(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"ghost"}},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "unknown successor")
}

func TestValidate_DuplicateID(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry},
		domain.NodeSpec{ID: "a", Category: domain.CategoryExit},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "duplicate")
}

func TestValidate_EntryRules(t *testing.T) {
	// Root node not tagged entry.
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryMiddle, Successors: []string{"b"}},
		domain.NodeSpec{ID: "b", Category: domain.CategoryExit},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "not entry")

	// Two roots: the non-entry one is unreachable.
	d = doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"c"}},
		domain.NodeSpec{ID: "b", Category: domain.CategoryMiddle, Successors: []string{"c"}},
		domain.NodeSpec{ID: "c", Category: domain.CategoryExit},
	)
	problems = configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "unreachable")

	// Edge back into the entry node.
	d = doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"b"}},
		domain.NodeSpec{ID: "b", Category: domain.CategoryExit, Successors: []string{"a"}},
	)
	err := Validate(d)
	assert.Error(t, err)
}

func TestValidate_NoExit(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"b"}},
		domain.NodeSpec{ID: "b", Category: domain.CategoryMiddle},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "no exit node")
}

func TestValidate_Cycle(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"b"}},
		domain.NodeSpec{ID: "b", Category: domain.CategoryMiddle, Successors: []string{"c"}},
		domain.NodeSpec{ID: "c", Category: domain.CategoryMiddle, Successors: []string{"b", "d"}},
		domain.NodeSpec{ID: "d", Category: domain.CategoryExit},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "cycle")
}

func TestValidate_AfterOnlyFollowsExit(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"bg"}},
		domain.NodeSpec{ID: "bg", Category: domain.CategoryAfter},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "after nodes may only follow exit nodes")

	// After node feeding back into the main chain.
	d = doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"x"}},
		domain.NodeSpec{ID: "x", Category: domain.CategoryExit, Successors: []string{"bg"}},
		domain.NodeSpec{ID: "bg", Category: domain.CategoryAfter, Successors: []string{"x"}},
	)
	err := Validate(d)
	assert.Error(t, err)
}

func TestValidate_ExitPrecedesOnlyAfter(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"x"}},
		domain.NodeSpec{ID: "x", Category: domain.CategoryExit, Successors: []string{"m"}},
		domain.NodeSpec{ID: "m", Category: domain.CategoryMiddle},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], "may only precede after nodes")
}

func TestValidate_DanglingInputField(t *testing.T) {
	d := doc(
		domain.NodeSpec{
			ID: "a", Category: domain.CategoryEntry,
			Successors: []string{"b"},
			InitParams: []string{"x"}, OutputFields: []string{"x"},
		},
		domain.NodeSpec{
			ID: "b", Category: domain.CategoryExit,
			InputFields: []string{"y"}, // nobody produces y
		},
	)
	problems := configProblems(t, Validate(d))
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], `reads field "y"`)
}

func TestValidate_InitParamSatisfiesDownstream(t *testing.T) {
	// "x" is never an output field, but the entry declares it as an init param,
	// which counts as producible via the input namespace.
	d := doc(
		domain.NodeSpec{
			ID: "a", Category: domain.CategoryEntry,
			Successors: []string{"b"},
			InitParams: []string{"x"},
		},
		domain.NodeSpec{
			ID: "b", Category: domain.CategoryExit,
			InputFields: []string{"x"}, OutputFields: []string{"out"},
		},
	)
	assert.NoError(t, Validate(d))
}

func TestValidate_EveryPathMustProduce(t *testing.T) {
	// Diamond where only one branch produces "flag": not guaranteed at join.
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"l", "r"}},
		domain.NodeSpec{ID: "l", Category: domain.CategoryMiddle, Successors: []string{"j"}, OutputFields: []string{"flag"}},
		domain.NodeSpec{ID: "r", Category: domain.CategoryMiddle, Successors: []string{"j"}},
		domain.NodeSpec{ID: "j", Category: domain.CategoryExit, InputFields: []string{"flag"}},
	)
	problems := configProblems(t, Validate(d))
	assert.Contains(t, problems[0], `reads field "flag"`)

	// Same diamond with both branches producing it passes.
	d.Nodes[2].OutputFields = []string{"flag"}
	assert.NoError(t, Validate(d))
}

func TestValidate_AfterMayReadExitOutput(t *testing.T) {
	d := doc(
		domain.NodeSpec{ID: "a", Category: domain.CategoryEntry, Successors: []string{"x"}, InitParams: []string{"q"}},
		domain.NodeSpec{ID: "x", Category: domain.CategoryExit, Successors: []string{"bg"}, InputFields: []string{"q"}, OutputFields: []string{"result"}},
		domain.NodeSpec{ID: "bg", Category: domain.CategoryAfter, InputFields: []string{"result"}},
	)
	assert.NoError(t, Validate(d))
}
