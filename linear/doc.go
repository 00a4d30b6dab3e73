// Package linear implements the linear-algebra layer the elimination engine
// builds on: whitened Jacobian and augmented-information Hessian factors,
// their combination, and the two elimination kernels (block Householder QR,
// block Cholesky/LDL) that reduce a joint factor on a pivot variable plus
// its separator into a Gaussian conditional and a residual factor on the
// separator alone.
//
// Storage is gonum's mat.Dense/mat.VecDense; the elimination kernels
// generalize textbook Householder QR to a block form — one reflection per
// pivot column, explicit stage comments, no hidden allocation in the inner
// loops — adapted from eliminating one scalar variable at a time to
// eliminating one (possibly multi-dimensional) variable block at a time.
package linear
