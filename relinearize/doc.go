// Package relinearize implements the fluid relinearization policy: deciding
// which variables have moved far enough from their last linearization point
// to need it recomputed, retracting them into theta, and refreshing the
// affected nonlinear factors' cached Jacobians.
package relinearize
