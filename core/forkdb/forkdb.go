// Package forkdb implements the bounded in-memory tree of reversible block
// headers described in spec.md §4.3.
package forkdb

import (
	"chainforge/core/types"
)

// Node is one block in the fork tree.
type Node struct {
	ID       types.BlockID
	Height   uint64
	Block    *types.Block
	Parent   *Node
	Children []*Node
}

// DB is the bounded fork tree (§4.3's size bound). Prune drops blocks at or
// below the last irreversible height except the head's own ancestors, which
// stay in the tree with their parent links cut.
type DB struct {
	byID  map[types.BlockID]*Node
	roots []*Node // nodes whose parent has already been pruned/irreversible
	head  *Node
}

// New constructs an empty fork database.
func New() *DB {
	return &DB{byID: make(map[types.BlockID]*Node)}
}

// Reset clears the tree and seeds it with a single root representing the
// current irreversible head (so newly pushed blocks can find their
// parent).
func (db *DB) Reset(head types.BlockID, height uint64) {
	db.byID = make(map[types.BlockID]*Node)
	root := &Node{ID: head, Height: height}
	db.byID[head] = root
	db.roots = []*Node{root}
	db.head = root
}

// Head returns the current best (highest) node.
func (db *DB) Head() *Node { return db.head }

// Get looks up a node by id.
func (db *DB) Get(id types.BlockID) (*Node, bool) {
	n, ok := db.byID[id]
	return n, ok
}

// Push inserts block (with computed id) as a child of its previous_id.
// Returns the new node and the resulting head (which may differ from the
// prior head only if the new node's height strictly exceeds it — fork
// switch ties go to the existing head, per spec.md §4.4's tie-break
// policy).
func (db *DB) Push(id types.BlockID, height uint64, block *types.Block) (*Node, *Node, error) {
	parent, ok := db.byID[block.Header.PreviousID]
	if !ok {
		return nil, db.head, errUnlinkable
	}
	node := &Node{ID: id, Height: height, Block: block, Parent: parent}
	parent.Children = append(parent.Children, node)
	db.byID[id] = node

	newHead := db.head
	if db.head == nil || height > db.head.Height {
		newHead = node
	}
	db.head = newHead
	return node, newHead, nil
}

// FetchBranchFrom returns the two disjoint branches (ordered root-to-tip,
// exclusive of the common ancestor) connecting the common ancestor of a
// and b to each of them respectively.
func FetchBranchFrom(db *DB, a, b types.BlockID) (branchA, branchB []*Node, common *Node, err error) {
	na, ok := db.byID[a]
	if !ok {
		return nil, nil, nil, errUnknownBlock
	}
	nb, ok := db.byID[b]
	if !ok {
		return nil, nil, nil, errUnknownBlock
	}
	seen := map[types.BlockID]int{}
	for n, i := na, 0; n != nil; n, i = n.Parent, i+1 {
		seen[n.ID] = i
	}
	var ancestor *Node
	var depthB int
	for n, i := nb, 0; n != nil; n, i = n.Parent, i+1 {
		if _, ok := seen[n.ID]; ok {
			ancestor = n
			depthB = i
			break
		}
	}
	if ancestor == nil {
		return nil, nil, nil, errNoCommonAncestor
	}
	for n := nb; n != ancestor; n = n.Parent {
		branchB = append([]*Node{n}, branchB...)
	}
	for n := na; n != ancestor; n = n.Parent {
		branchA = append([]*Node{n}, branchA...)
	}
	_ = depthB
	return branchA, branchB, ancestor, nil
}

// Prune discards every node at or below height that is not an ancestor of
// the current head, matching the "head - last_irreversible + 1" size bound.
func (db *DB) Prune(belowOrEqual uint64) {
	keepAncestors := map[types.BlockID]bool{}
	for n := db.head; n != nil; n = n.Parent {
		keepAncestors[n.ID] = true
	}
	for id, n := range db.byID {
		if n.Height <= belowOrEqual && !keepAncestors[id] {
			delete(db.byID, id)
		}
	}
	for id, n := range db.byID {
		if n.Height <= belowOrEqual {
			n.Parent = nil
			db.roots = []*Node{n}
			_ = id
		}
	}
}
