package graph_test

import (
	"strings"
	"testing"

	"github.com/arborworks/arbor/internal/presentation/graph"
	"github.com/arborworks/arbor/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []domain.NodeSpec
		contains []string
	}{
		{
			name: "Entry Node Shape",
			nodes: []domain.NodeSpec{
				{ID: "seed", Type: "seed", Category: domain.CategoryEntry},
			},
			contains: []string{
				"seed((\"seed\"))",
			},
		},
		{
			name: "Exit Node Shape",
			nodes: []domain.NodeSpec{
				{ID: "reply", Type: "reply", Category: domain.CategoryExit},
			},
			contains: []string{
				"reply[[\"reply\"]]",
			},
		},
		{
			name: "After Node Shape And Dotted Edge",
			nodes: []domain.NodeSpec{
				{ID: "reply", Type: "reply", Category: domain.CategoryExit, Successors: []string{"bookkeep"}},
				{ID: "bookkeep", Type: "bookkeep", Category: domain.CategoryAfter},
			},
			contains: []string{
				"bookkeep[/\"bookkeep\"/]",
				"reply -.-> bookkeep",
			},
		},
		{
			name: "Type Annotation",
			nodes: []domain.NodeSpec{
				{ID: "assemble", Type: "prompt_builder", Category: domain.CategoryMiddle},
			},
			contains: []string{
				"assemble[\"assemble <br/> prompt_builder\"]",
			},
		},
		{
			name: "ID Sanitization",
			nodes: []domain.NodeSpec{
				{ID: "hyphen-ated", Type: "hyphen-ated", Category: domain.CategoryMiddle},
			},
			contains: []string{
				"hyphen_ated[\"hyphen-ated\"]",
			},
		},
		{
			name: "Main Chain Edge",
			nodes: []domain.NodeSpec{
				{ID: "a", Type: "a", Category: domain.CategoryEntry, Successors: []string{"b"}},
				{ID: "b", Type: "b", Category: domain.CategoryExit},
			},
			contains: []string{
				"a --> b",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.nodes, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	nodes := []domain.NodeSpec{
		{ID: "seed", Type: "seed", Category: domain.CategoryEntry, Successors: []string{"reply"}},
		{ID: "reply", Type: "reply", Category: domain.CategoryExit},
	}

	got := graph.GenerateMermaid(nodes, &graph.Overlay{
		CompletedNodes: []string{"seed", "seed"},
		FailedNodes:    []string{"reply"},
	})

	if strings.Count(got, "class seed completed;") != 1 {
		t.Errorf("expected one completed class for seed, got:\n%v", got)
	}
	if !strings.Contains(got, "class reply failed;") {
		t.Errorf("expected failed class for reply, got:\n%v", got)
	}
}
