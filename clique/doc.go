// Package clique implements the Bayes tree node: a multifrontal clique
// aggregating a maximal chain of single-variable Gaussian conditionals
// produced by the elimination engine, its cached residual factor, and its
// gradient contribution for the dog-leg step. A clique tree's parent/child
// reference is inherently cyclic (a parent owns its children, a child
// needs to find its parent), which this package resolves with an
// arena-indexed representation rather than owning pointers: cliques are
// identified by ID and stored in an Arena, with Parent/Children held as
// IDs (a non-owning weak reference and an index-based ownership list,
// respectively).
package clique
