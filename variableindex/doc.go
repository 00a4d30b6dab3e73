// Package variableindex tracks, for every variable known to the solver, the
// set of factor indices that mention it, plus the variable's tangent-space
// dimension. The incremental updater consults it to find which nonlinear
// factors touch a given set of variables without scanning the whole factor
// graph.
package variableindex
