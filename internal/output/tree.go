package output

import (
	"strings"
)

// TreeNode represents a node in a tree structure for rendering
type TreeNode struct {
	ID       string
	Label    string
	Kind     string
	Note     string
	Children []TreeNode
}

// TreeRenderOptions configures tree rendering behavior
type TreeRenderOptions struct {
	MaxDepth int  // 0 = unlimited
	ShowKind bool // Whether to show the node kind
	ShowNote bool // Whether to show the note in brackets
}

// kindMark returns the indicator symbol for a rule kind
func kindMark(kind string) string {
	switch kind {
	case "show":
		return " \u25cf" // ●
	case "filter":
		return " \u29d7" // ⧗
	case "clear":
		return " \u2717" // ✗
	default:
		return ""
	}
}

// RenderTree renders a tree starting from a single root node
// Returns the complete tree as a string (without the root - just children)
func RenderTree(root TreeNode, opts TreeRenderOptions) string {
	lines := renderTreeNodes(root.Children, opts, 0, "", map[string]bool{})
	return strings.Join(lines, "\n")
}

// RenderTreeLines renders multiple root nodes and returns individual lines
func RenderTreeLines(roots []TreeNode, opts TreeRenderOptions) []string {
	return renderTreeNodes(roots, opts, 0, "", map[string]bool{})
}

// renderTreeNodes recursively renders tree nodes. A node already on the
// current path is printed once more with a cycle marker and not expanded.
func renderTreeNodes(nodes []TreeNode, opts TreeRenderOptions, depth int, prefix string, path map[string]bool) []string {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return nil
	}

	var lines []string

	for i, node := range nodes {
		isLast := i == len(nodes)-1

		connector := "\u251c\u2500\u2500 " // ├──
		if isLast {
			connector = "\u2514\u2500\u2500 " // └──
		}

		var parts []string
		if opts.ShowKind && node.Kind != "" {
			parts = append(parts, node.Kind)
		}
		parts = append(parts, node.ID)
		if node.Label != "" {
			parts = append(parts, node.Label)
		}
		if opts.ShowNote && node.Note != "" {
			parts = append(parts, "["+node.Note+"]")
		}

		cycle := node.ID != "" && path[node.ID]
		line := prefix + connector + strings.Join(parts, " ") + kindMark(node.Kind)
		if cycle {
			line += " (cycle)"
		}
		lines = append(lines, line)
		if cycle {
			continue
		}

		childPrefix := prefix
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "\u2502   " // │
		}

		path[node.ID] = true
		lines = append(lines, renderTreeNodes(node.Children, opts, depth+1, childPrefix, path)...)
		delete(path, node.ID)
	}

	return lines
}
