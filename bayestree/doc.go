// Package bayestree implements the rooted clique forest (typically a single
// tree) produced by sequential variable elimination: detaching the subtree
// above a set of marked variables, reattaching freshly eliminated cliques
// and surviving orphan subtrees, and root-first traversal for the wildfire
// solver and relinearization policy.
package bayestree
