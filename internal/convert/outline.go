package convert

import "strings"

// OutlineNode is a section nested under the nearest earlier section with a
// shallower heading.
type OutlineNode struct {
	Index    int           `json:"index"`
	Heading  string        `json:"heading"`
	Depth    int           `json:"depth"`
	Children []OutlineNode `json:"children,omitempty"`
}

// headingDepth is the shallowest '#' count among the headings folded into h.
func headingDepth(h string) int {
	depth := 0
	for _, part := range strings.Split(h, HeadingJoiner) {
		n := len(part) - len(strings.TrimLeft(part, "#"))
		if n > 0 && (depth == 0 || n < depth) {
			depth = n
		}
	}
	if depth == 0 {
		return 1
	}
	return depth
}

// BuildOutline turns the flat section list into a tree by heading depth.
func BuildOutline(files []SectionFile) []OutlineNode {
	nodes := make([]OutlineNode, len(files))
	parent := make([]int, len(files))
	var stack []int
	for i, f := range files {
		nodes[i] = OutlineNode{Index: f.Index, Heading: f.Heading, Depth: f.Depth}
		for len(stack) > 0 && nodes[stack[len(stack)-1]].Depth >= f.Depth {
			stack = stack[:len(stack)-1]
		}
		parent[i] = -1
		if len(stack) > 0 {
			parent[i] = stack[len(stack)-1]
		}
		stack = append(stack, i)
	}

	// Children always follow their parent, so attaching from the end moves
	// complete subtrees.
	for i := len(nodes) - 1; i >= 0; i-- {
		if p := parent[i]; p >= 0 {
			nodes[p].Children = append([]OutlineNode{nodes[i]}, nodes[p].Children...)
		}
	}
	var roots []OutlineNode
	for i := range nodes {
		if parent[i] == -1 {
			roots = append(roots, nodes[i])
		}
	}
	return roots
}
