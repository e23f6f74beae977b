package forkdb

import "errors"

var (
	errUnlinkable       = errors.New("forkdb: block's previous_id is not in the tree")
	errUnknownBlock     = errors.New("forkdb: unknown block id")
	errNoCommonAncestor = errors.New("forkdb: no common ancestor")
)
