package sm2curve

import (
	"math/big"
	"sync"
)

// scalarPool hands out the *big.Int scratch values the affine helpers
// (add/sub/mul/inv in curve.go, used by IsOnCurve, Add and Double) compute
// into. Those helpers return the borrowed value to their caller and nothing
// in curve.go passes it to releaseScalar, so the pool only recycles values
// that a caller releases explicitly. ScalarMult and ScalarBaseMult work on
// the limb-based field type and do not use the pool.
var scalarPool = sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

// acquireScalar borrows a *big.Int from the pool. Its value is undefined
// until the caller sets it.
func acquireScalar() *big.Int {
	return scalarPool.Get().(*big.Int)
}

// releaseScalar zeroes x and returns it to the pool. A nil x is a no-op,
// since a caller may hold a nil scalar on an error path.
func releaseScalar(x *big.Int) {
	if x != nil {
		x.SetInt64(0)
		scalarPool.Put(x)
	}
}

// releaseScalars releases each of xs, skipping any nil entries.
func releaseScalars(xs ...*big.Int) {
	for _, x := range xs {
		releaseScalar(x)
	}
}
