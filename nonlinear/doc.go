// Package nonlinear provides the concrete nonlinear factor graph layer:
// manifold-valued variables and factors that linearize to the
// linear.Jacobian factors the elimination engine consumes. The variable
// manifold and factor library are deliberately pluggable; this package
// supplies the minimum needed to exercise the incremental solver end to
// end: a 2D pose manifold and the two factor types a typical pose-graph
// problem needs.
package nonlinear
