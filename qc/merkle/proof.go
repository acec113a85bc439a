package merkle

import (
	"github.com/paw-chain/qc/qc/types"
)

// BuildProof returns the sibling path from leaf index up to the root. Where a
// level has an odd trailing node, that node is its own sibling.
func BuildProof(leaves []Hash, index int) ([]Hash, error) {
	if index < 0 || index >= len(leaves) {
		return nil, types.ErrInvalidProof.Wrapf("leaf index %d out of range [0,%d)", index, len(leaves))
	}

	var proof []Hash
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}
		proof = append(proof, level[sibling])

		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(level[i], right))
		}
		level = next
		index /= 2
	}
	return proof, nil
}

// VerifyProof checks that leaf sits at index in a tree of leafCount leaves
// committed to by root.
func VerifyProof(root, leaf Hash, index, leafCount int, proof []Hash) bool {
	if leafCount <= 0 || index < 0 || index >= leafCount {
		return false
	}
	if len(proof) != treeDepth(leafCount) {
		return false
	}

	current := leaf
	width := leafCount
	for _, sibling := range proof {
		// The last node of an odd-width level can only pair with itself.
		if index == width-1 && width%2 == 1 && sibling != current {
			return false
		}
		if index%2 == 0 {
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
		index /= 2
		width = (width + 1) / 2
	}
	return current == root
}

func treeDepth(leafCount int) int {
	depth := 0
	for width := leafCount; width > 1; width = (width + 1) / 2 {
		depth++
	}
	return depth
}
