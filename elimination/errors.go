package elimination

import (
	"errors"
	"fmt"

	"github.com/tjpotts/isam2/linear"
)

// ErrIndefiniteLinearSystem is the elimination engine's surfaced form of
// linear.ErrIndefinite: LDL elimination hit a non-positive pivot. The
// caller (the incremental updater) must retry the same local factor set
// under QR, which never raises this error.
var ErrIndefiniteLinearSystem = errors.New("elimination: indefinite linear system under LDL")

// wrapIndefinite translates linear.ErrIndefinite into
// ErrIndefiniteLinearSystem, preserving other errors unchanged.
func wrapIndefinite(err error) error {
	if errors.Is(err, linear.ErrIndefinite) {
		return fmt.Errorf("%w: %v", ErrIndefiniteLinearSystem, err)
	}
	return err
}
