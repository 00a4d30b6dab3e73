// Package stepcontrol implements two step controller variants: Gauss-Newton
// (the wildfire delta is the step, unconditionally) and Powell's dog-leg (a
// trust-region blend of the Gauss-Newton and steepest-descent steps, adapted
// by a gain-ratio test). The two are distinct concrete types rather than
// branches hidden behind one polymorphic implementation, and there is no
// shared interface: ISAM2 switches on its OptimizationParams.Kind
// discriminant to decide which one to call.
package stepcontrol
