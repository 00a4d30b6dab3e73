// Package elimination implements the elimination engine: building an
// elimination tree over a local variable ordering,
// eliminating variables child-first via linear.EliminatePivot, and
// aggregating maximal chains of single-child conditionals into multifrontal
// cliques per the standard Bayes-tree construction. It hands back cliques
// as plain trees (BuiltClique) — attaching them into a bayestree.BayesTree,
// including where orphan subtrees reattach, is the incremental updater's
// job, since that decision depends on state elimination does not see.
package elimination
