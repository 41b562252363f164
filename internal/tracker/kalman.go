package tracker

import "gonum.org/v1/gonum/mat"

// PointFilter is a 4D constant-velocity Kalman filter tracking a single
// 2D center: state [x, y, vx, vy], measurement [x, y].
//
// Per-frame protocol:
//  1. Predict unconditionally, so a position estimate stays available
//     while the blob is hidden.
//  2. Correct only when a measurement exists this frame.
//
// The first measurement initializes the state directly (zero velocity,
// identity covariance) instead of correcting from a meaningless prior.
type PointFilter struct {
	state *mat.VecDense // [x, y, vx, vy]
	cov   *mat.Dense    // P, 4x4

	trans   *mat.Dense // F, 4x4 constant-velocity transition
	measure *mat.Dense // H, 2x4 position extraction
	procQ   *mat.Dense // Q, 4x4 process noise
	measR   *mat.Dense // R, 2x2 measurement noise

	initialized bool
}

// NewPointFilter builds a filter with fixed noise parameters. dt is the
// frame interval in whatever unit velocity is expressed in (1.0 means
// velocity is pixels per frame). q and r scale the process and
// measurement noise covariances.
func NewPointFilter(dt, q, r float64) *PointFilter {
	return &PointFilter{
		state: mat.NewVecDense(4, nil),
		cov:   eye(4, 1),
		trans: mat.NewDense(4, 4, []float64{
			1, 0, dt, 0,
			0, 1, 0, dt,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}),
		measure: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		procQ: eye(4, q),
		measR: eye(2, r),
	}
}

// Initialized reports whether the state vector is meaningful yet.
func (k *PointFilter) Initialized() bool {
	return k.initialized
}

// Init seeds the state with the first measured center: zero velocity and
// identity error covariance.
func (k *PointFilter) Init(x, y float64) {
	k.state.SetVec(0, x)
	k.state.SetVec(1, y)
	k.state.SetVec(2, 0)
	k.state.SetVec(3, 0)
	k.cov.Copy(eye(4, 1))
	k.initialized = true
}

// Predict advances the state one frame and returns the predicted center.
func (k *PointFilter) Predict() (x, y float64) {
	// x = F x
	var next mat.VecDense
	next.MulVec(k.trans, k.state)
	k.state.CopyVec(&next)

	// P = F P Fᵀ + Q
	var fp, fpft mat.Dense
	fp.Mul(k.trans, k.cov)
	fpft.Mul(&fp, k.trans.T())
	k.cov.Add(&fpft, k.procQ)

	return k.state.AtVec(0), k.state.AtVec(1)
}

// Correct folds a measured center into the state estimate.
func (k *PointFilter) Correct(mx, my float64) {
	z := mat.NewVecDense(2, []float64{mx, my})

	// innovation y = z - H x
	var hx, innov mat.VecDense
	hx.MulVec(k.measure, k.state)
	innov.SubVec(z, &hx)

	// S = H P Hᵀ + R
	var hp, s mat.Dense
	hp.Mul(k.measure, k.cov)
	s.Mul(&hp, k.measure.T())
	s.Add(&s, k.measR)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// Singular innovation covariance; skip the correction rather
		// than corrupt the state.
		return
	}

	// K = P Hᵀ S⁻¹
	var pht, gain mat.Dense
	pht.Mul(k.cov, k.measure.T())
	gain.Mul(&pht, &sInv)

	// x = x + K y
	var ky mat.VecDense
	ky.MulVec(&gain, &innov)
	k.state.AddVec(k.state, &ky)

	// P = (I - K H) P
	var kh mat.Dense
	kh.Mul(&gain, k.measure)
	ikh := eye(4, 1)
	ikh.Sub(ikh, &kh)
	var newCov mat.Dense
	newCov.Mul(ikh, k.cov)
	k.cov.Copy(&newCov)
}

// State returns the current [x, y, vx, vy] estimate.
func (k *PointFilter) State() (x, y, vx, vy float64) {
	return k.state.AtVec(0), k.state.AtVec(1), k.state.AtVec(2), k.state.AtVec(3)
}

func eye(n int, scale float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}
