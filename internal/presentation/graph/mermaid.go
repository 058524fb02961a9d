package graph

import (
	"fmt"
	"strings"

	"github.com/arborworks/arbor/pkg/domain"
)

// Overlay contains run state to visualize on the graph.
type Overlay struct {
	CompletedNodes []string
	FailedNodes    []string
}

// GenerateMermaid produces a Mermaid flowchart from a node list.
// It applies semantic styling by category:
// - Entry: ((Circle))
// - Exit: [[Subroutine]]
// - After: [/Parallelogram/], reached by dotted arrows
// - Middle: [Rectangle]
// It also applies overlay styles (Completed/Failed) if provided.
func GenerateMermaid(nodes []domain.NodeSpec, overlay *Overlay) string {
	categories := make(map[string]domain.Category, len(nodes))
	for _, node := range nodes {
		categories[node.ID] = node.Category
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		// Sanitize ID for Mermaid
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Category {
		case domain.CategoryEntry:
			opener, closer = "((", "))" // Circle
		case domain.CategoryExit:
			opener, closer = "[[", "]]" // Subroutine
		case domain.CategoryAfter:
			opener, closer = "[/", "/]" // Parallelogram
		}

		label := node.ID
		if node.Type != "" && node.Type != node.ID {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.Type)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, succ := range node.Successors {
			safeTo := sanitizeMermaidID(succ)

			// Edges into the background phase are dotted.
			arrow := "-->"
			if categories[succ] == domain.CategoryAfter {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.CompletedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", safeID))
			}
		}
		for _, id := range overlay.FailedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" {
				sb.WriteString(fmt.Sprintf("    class %s failed;\n", safeID))
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
