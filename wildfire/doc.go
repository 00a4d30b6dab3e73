// Package wildfire implements the threshold-gated back-substitution pass: a
// root-first traversal of the Bayes tree that refreshes the linear delta,
// short-circuiting subtrees whose frontal values haven't moved enough to
// matter and that carry no stale (replacedMask) slots.
package wildfire
