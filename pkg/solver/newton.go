// Package solver provides the damped Newton-Raphson root finder and the
// staged continuation ("shooting") primitive that every chart update and
// contour trace is built on.
package solver

import (
	"math"
	"math/cmplx"

	errorsmod "cosmossdk.io/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

// ErrNoConvergence is returned by callers that surface solver failures as
// errors rather than booleans.
var ErrNoConvergence = errorsmod.Register("solver", 2, "newton iteration did not converge")

// Func is a complex function together with its derivative.
type Func interface {
	F(z complex128) complex128
	DF(z complex128) complex128
}

// ParamCurve is a one-parameter family of complex values, used as the
// moving target of a staged continuation.
type ParamCurve interface {
	At(t float64) complex128
}

// FuncAdapter lifts a pair of closures into a Func.
type FuncAdapter struct {
	Fn  func(complex128) complex128
	DFn func(complex128) complex128
}

func (fa FuncAdapter) F(z complex128) complex128  { return fa.Fn(z) }
func (fa FuncAdapter) DF(z complex128) complex128 { return fa.DFn(z) }

// maxStepSize bounds a single Newton step; a wild derivative near a branch
// point would otherwise throw the iterate onto a different sheet.
const maxStepSize = 0.5

// FindRoot runs a damped Newton-Raphson iteration for f(z) = 0 starting
// from guess. It reports failure both when the iteration does not settle
// within maxIter steps and when it settles on a spurious root, i.e. a fixed
// point whose residual is not actually below the tolerance.
func FindRoot(f func(complex128) complex128, df func(complex128) complex128,
	guess complex128, tolerance float64, maxIter int) (complex128, bool) {
	z := guess
	for i := 0; i < maxIter; i++ {
		fz := f(z)
		if cmplx.Abs(fz) < tolerance {
			return z, true
		}
		d := df(z)
		if d == 0 || cmplx.IsNaN(d) || cmplx.IsInf(d) {
			return z, false
		}
		step := fz / d
		if s := cmplx.Abs(step); s > maxStepSize {
			step *= complex(maxStepSize/s, 0)
		}
		next := z - step
		if cmplx.IsNaN(next) || cmplx.IsInf(next) {
			return z, false
		}
		// A stalled iterate with a residual above tolerance is a
		// spurious root, not convergence.
		if scalar.EqualWithinAbs(real(next), real(z), tolerance*1e-3) &&
			scalar.EqualWithinAbs(imag(next), imag(z), tolerance*1e-3) {
			z = next
			break
		}
		z = next
	}
	if cmplx.Abs(f(z)) < tolerance {
		return z, true
	}
	return z, false
}

// Shoot advances the solution of f.F(z) = curve.At(t) from t0 to t1,
// re-solving at each stage from the previous solution. The stage length
// starts at maxStep and halves when the root finder loses the target,
// so a single call can pass close to a singular point without derailing.
// It returns the visited (t, z) pairs including the start.
func Shoot(f Func, curve ParamCurve, t0, t1 float64, start complex128, maxStep float64) []ShotPoint {
	pts := []ShotPoint{{T: t0, Z: start}}

	t := t0
	z := start
	step := maxStep
	const minStep = 1.0 / 16384.0

	for t != t1 {
		dt := t1 - t
		if math.Abs(dt) > step {
			dt = math.Copysign(step, dt)
		}
		target := curve.At(t + dt)
		next, ok := FindRoot(
			func(w complex128) complex128 { return f.F(w) - target },
			f.DF,
			z, 1e-6, 50,
		)
		if !ok {
			if step <= minStep {
				// Leave the trace where it is; the caller decides
				// whether a partial trace is usable.
				break
			}
			step /= 2.0
			continue
		}
		t += dt
		z = next
		pts = append(pts, ShotPoint{T: t, Z: z})
		if step < maxStep {
			step *= 2.0
		}
	}
	return pts
}

// ShotPoint is one stage of a continuation: the parameter value and the
// solution found there.
type ShotPoint struct {
	T float64
	Z complex128
}

// ShootTwoSided continues outward from an interior starting parameter tm
// toward both ends of [t0, t1] and returns the stages ordered by t.
func ShootTwoSided(f Func, curve ParamCurve, t0, tm, t1 float64, start complex128, maxStep float64) []ShotPoint {
	left := Shoot(f, curve, tm, t0, start, maxStep)
	right := Shoot(f, curve, tm, t1, start, maxStep)

	pts := make([]ShotPoint, 0, len(left)+len(right)-1)
	for i := len(left) - 1; i > 0; i-- {
		pts = append(pts, left[i])
	}
	pts = append(pts, right...)
	return pts
}
