package visibility

import "github.com/dotcommander/nowpanel/internal/models"

// Node is one block reached by Flatten with the context of the block above it.
type Node struct {
	Block      *models.Block
	ParentID   string
	ParentText string
}

// Flatten walks roots depth-first in document order with an explicit stack.
// Top-level roots get parentID/parentText as their context. A block id seen
// twice (a malformed tree) is not descended into again.
func Flatten(roots []models.Block, parentID, parentText string) []Node {
	type frame struct {
		block      *models.Block
		parentID   string
		parentText string
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{block: &roots[i], parentID: parentID, parentText: parentText})
	}

	seen := make(map[string]bool)
	var out []Node
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[top.block.ID] {
			continue
		}
		seen[top.block.ID] = true
		out = append(out, Node{Block: top.block, ParentID: top.parentID, ParentText: top.parentText})

		kids := top.block.Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{block: &kids[i], parentID: top.block.ID, parentText: top.block.Text})
		}
	}
	return out
}

// CollectIDs adds every id in the given trees to set.
func CollectIDs(set models.IDSet, roots []models.Block) {
	for _, n := range Flatten(roots, "", "") {
		set.Add(n.Block.ID)
	}
}
