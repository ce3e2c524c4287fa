// Package interpolate provides the staged root-finding helpers that move a
// momentum along the spectral curve: the momentum interpolator used to set
// up initial configurations, the adaptive tracer for x(p, m) curves, and
// the energy branch-curve tracer.
package interpolate

import (
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/solver"
)

// xpFunc is the forward map x⁺(z, 1) whose preimage every interpolation
// tracks.
type xpFunc struct {
	consts kinematics.CouplingConstants
}

func (f xpFunc) F(z complex128) complex128 {
	return kinematics.Xp(z, 1.0, f.consts)
}

func (f xpFunc) DF(z complex128) complex128 {
	return kinematics.DXpDp(z, 1.0, f.consts)
}

// xpAlong interpolates the target x⁺(p(t), m(t)) between two parameter
// pairs; xmAlong does the same on the x⁻ side.
type xpAlong struct {
	p0, m0, p1, m1 float64
	consts         kinematics.CouplingConstants
}

func (c xpAlong) At(t float64) complex128 {
	p := c.p0 + t*(c.p1-c.p0)
	m := c.m0 + t*(c.m1-c.m0)
	return kinematics.Xp(complex(p, 0), m, c.consts)
}

type xmAlong struct {
	p0, m0, p1, m1 float64
	consts         kinematics.CouplingConstants
}

func (c xmAlong) At(t float64) complex128 {
	p := c.p0 + t*(c.p1-c.p0)
	m := c.m0 + t*(c.m1-c.m0)
	return kinematics.Xm(complex(p, 0), m, c.consts)
}

type fixedRe struct{ re float64 }

func (c fixedRe) At(im float64) complex128 { return complex(c.re, im) }

type fixedIm struct{ im float64 }

func (c fixedIm) At(re float64) complex128 { return complex(re, c.im) }

// targetKind records which family of targets the interpolator is currently
// following.
type targetKind int

const (
	targetXp targetKind = iota
	targetXm
	targetPlain
)

// PInterpolator drives a complex momentum z so that x⁺(z, 1) follows a
// staged target: a point on an x⁺/x⁻ curve of given mode number m, or a
// horizontal/vertical line in the x plane. It records the p-plane contour
// traced by the most recent sequence of moves.
//
// The interpolator is a best-effort device used only during construction:
// when a stage fails to converge the move stops early, a warning is
// logged, and the interpolator keeps the last reachable position.
type PInterpolator struct {
	consts kinematics.CouplingConstants

	kind    targetKind
	pParam  float64
	m       float64
	value   complex128
	z       complex128
	contour []complex128
}

// NewXp starts an interpolator at real momentum p0 on the x⁺ curve of mode
// number 1.
func NewXp(p0 float64, consts kinematics.CouplingConstants) *PInterpolator {
	z := complex(p0, 0)
	return &PInterpolator{
		consts:  consts,
		kind:    targetXp,
		pParam:  p0,
		m:       1.0,
		value:   kinematics.Xp(z, 1.0, consts),
		z:       z,
		contour: []complex128{z},
	}
}

// P returns the current complex momentum.
func (pi *PInterpolator) P() complex128 { return pi.z }

// Value returns the current target-chart value.
func (pi *PInterpolator) Value() complex128 { return pi.value }

// Contour returns a copy of the p-plane polyline traced by the most recent
// move. Positioning moves before the final one do not leak into the trace.
func (pi *PInterpolator) Contour() []complex128 {
	out := make([]complex128, len(pi.contour))
	copy(out, pi.contour)
	return out
}

func (pi *PInterpolator) shoot(curve solver.ParamCurve, t0, t1, maxStep float64) {
	f := xpFunc{pi.consts}

	pi.contour = []complex128{pi.z}
	pts := solver.Shoot(f, curve, t0, t1, pi.z, maxStep)
	for _, pt := range pts[1:] {
		pi.contour = append(pi.contour, pt.Z)
	}
	last := pts[len(pts)-1]

	// The adaptive tracer stalls where dx/dp passes through zero along the
	// curve, typically at a turning point at strong coupling. Hop over the
	// turning point by solving for a point further along directly and resume
	// tracing from there.
	const maxHops = 8
	for hops := 0; last.T != t1 && hops < maxHops; hops++ {
		hopped := false
		for _, frac := range []float64{1.0, 0.5, 0.25, 0.125} {
			tTry := last.T + frac*(t1-last.T)
			target := curve.At(tTry)
			z, ok := solver.FindRoot(
				func(z complex128) complex128 { return f.F(z) - target },
				f.DF, last.Z, 1.0e-9, 50,
			)
			if !ok {
				continue
			}
			pi.contour = append(pi.contour, z)
			last = solver.ShotPoint{T: tTry, Z: z}
			hopped = true
			break
		}
		if !hopped {
			break
		}
		if last.T == t1 {
			break
		}
		pts = solver.Shoot(f, curve, last.T, t1, last.Z, maxStep)
		for _, pt := range pts[1:] {
			pi.contour = append(pi.contour, pt.Z)
		}
		last = pts[len(pts)-1]
	}
	if last.T != t1 {
		slog.Warn("interpolation stopped before target",
			"reached", last.T, "target", t1,
			"h", pi.consts.H, "k", pi.consts.K())
	}

	pi.z = last.Z
	pi.value = curve.At(last.T)
}

// GotoXp moves the target to the point of the x⁺ curve with parameters
// (p, m), interpolating both parameters together.
func (pi *PInterpolator) GotoXp(p, m float64) *PInterpolator {
	curve := xpAlong{p0: pi.pParam, m0: pi.m, p1: p, m1: m, consts: pi.consts}
	pi.shoot(curve, 0.0, 1.0, 1.0/8.0)
	pi.kind = targetXp
	pi.pParam, pi.m = p, m
	return pi
}

// GotoXm moves the target to the point of the x⁻ curve with parameters
// (p, m).
func (pi *PInterpolator) GotoXm(p, m float64) *PInterpolator {
	curve := xmAlong{p0: pi.pParam, m0: pi.m, p1: p, m1: m, consts: pi.consts}
	pi.shoot(curve, 0.0, 1.0, 1.0/8.0)
	pi.kind = targetXm
	pi.pParam, pi.m = p, m
	return pi
}

// GotoM changes the mode number keeping the curve parameter fixed.
func (pi *PInterpolator) GotoM(m float64) *PInterpolator {
	if pi.kind == targetXm {
		return pi.GotoXm(pi.pParam, m)
	}
	return pi.GotoXp(pi.pParam, m)
}

// GotoP changes the curve parameter keeping the mode number fixed.
func (pi *PInterpolator) GotoP(p float64) *PInterpolator {
	if pi.kind == targetXm {
		return pi.GotoXm(p, pi.m)
	}
	return pi.GotoXp(p, pi.m)
}

// GotoRe slides the target value horizontally in the x plane until its real
// part reaches re.
func (pi *PInterpolator) GotoRe(re float64) *PInterpolator {
	curve := fixedIm{im: imag(pi.value)}
	step := math.Abs(re-real(pi.value)) / 4.0
	if step == 0 {
		pi.contour = []complex128{pi.z}
		return pi
	}
	pi.shoot(curve, real(pi.value), re, step)
	pi.kind = targetPlain
	return pi
}

// GotoIm slides the target value vertically in the x plane until its
// imaginary part reaches im.
func (pi *PInterpolator) GotoIm(im float64) *PInterpolator {
	curve := fixedRe{re: real(pi.value)}
	step := math.Abs(im-imag(pi.value)) / 4.0
	if step == 0 {
		pi.contour = []complex128{pi.z}
		return pi
	}
	pi.shoot(curve, imag(pi.value), im, step)
	pi.kind = targetPlain
	return pi
}

// endpointInset keeps the adaptive tracers away from the zeros of sin(πp)
// at integer momentum, where x(p, m) is singular.
const endpointInset = 1.0e-4

// refineTolerance is the polyline resolution criterion: a segment is split
// while its midpoint deviates from the chord by more than this.
const refineTolerance = 1.0e-3

const maxRefineDepth = 12

func adaptiveTrace(f func(float64) complex128, t0, t1 float64) []complex128 {
	const initial = 16

	type span struct {
		t0, t1 float64
		z0, z1 complex128
		depth  int
	}

	out := []complex128{f(t0)}

	var refine func(s span)
	refine = func(s span) {
		tm := (s.t0 + s.t1) / 2.0
		zm := f(tm)
		chord := (s.z0 + s.z1) / 2.0
		if s.depth < maxRefineDepth && cmplx.Abs(zm-chord) > refineTolerance {
			refine(span{s.t0, tm, s.z0, zm, s.depth + 1})
			refine(span{tm, s.t1, zm, s.z1, s.depth + 1})
			return
		}
		out = append(out, zm, s.z1)
	}

	prevT := t0
	prevZ := out[0]
	for i := 1; i <= initial; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(initial)
		z := f(t)
		refine(span{prevT, t, prevZ, z, 0})
		prevT, prevZ = t, z
	}
	return out
}

// GenerateXp traces the x⁺(p, m) curve for real p from pStart to pEnd as an
// adaptively refined polyline.
func GenerateXp(pStart, pEnd, m float64, consts kinematics.CouplingConstants) []complex128 {
	f := func(p float64) complex128 { return kinematics.Xp(complex(p, 0), m, consts) }
	return adaptiveTrace(f, clampInset(pStart, pEnd), clampInset(pEnd, pStart))
}

// GenerateXm traces the x⁻(p, m) curve for real p from pStart to pEnd.
func GenerateXm(pStart, pEnd, m float64, consts kinematics.CouplingConstants) []complex128 {
	f := func(p float64) complex128 { return kinematics.Xm(complex(p, 0), m, consts) }
	return adaptiveTrace(f, clampInset(pStart, pEnd), clampInset(pEnd, pStart))
}

// GenerateXpFull traces x⁺(p, m) over the whole period (pRange, pRange+1).
func GenerateXpFull(pRange int, m float64, consts kinematics.CouplingConstants) []complex128 {
	return GenerateXp(float64(pRange), float64(pRange)+1.0, m, consts)
}

// clampInset moves an endpoint sitting on an integer momentum a small step
// into the traced interval, toward the other endpoint.
func clampInset(p, toward float64) float64 {
	if r := math.Round(p); math.Abs(p-r) < endpointInset {
		if toward >= p {
			return r + endpointInset
		}
		return r - endpointInset
	}
	return p
}

// EInterpolator traces the energy branch curve, the locus where E²(p, 1) is
// real and non-positive, starting at the branch point E² = 0 in the upper
// half plane of one periodicity range. Its Cut* accessors return the traced
// curve mapped into each chart; the conjugate image is the caller's
// responsibility.
type EInterpolator struct {
	consts      kinematics.CouplingConstants
	pRange      int
	branchPoint complex128
	path        []complex128
	ok          bool
}

type en2Func struct {
	consts kinematics.CouplingConstants
}

func (f en2Func) F(z complex128) complex128 {
	return kinematics.En2(z, 1.0, f.consts)
}

func (f en2Func) DF(z complex128) complex128 {
	return kinematics.DEn2Dp(z, 1.0, f.consts)
}

// negParabola parameterizes the target E² = −s²·scale so that the trace
// spends its stages near the branch point where the curve bends fastest.
type negParabola struct{ scale float64 }

func (c negParabola) At(s float64) complex128 { return complex(-s*s*c.scale, 0) }

// NewEInterpolator locates the branch point for the given range and traces
// the branch curve. A failed branch-point search leaves the interpolator
// empty; the contour builder skips the corresponding cuts.
func NewEInterpolator(pRange int, consts kinematics.CouplingConstants) *EInterpolator {
	e := &EInterpolator{consts: consts, pRange: pRange}

	// E² factors as (m_eff + 2ih·sin πp)(m_eff − 2ih·sin πp); the branch
	// point in the upper half plane is a simple zero of one factor.
	k := float64(consts.K())
	f := func(p complex128) complex128 {
		return 1.0 + complex(k, 0)*p - complex(0, 2.0*consts.H)*cmplx.Sin(complex(math.Pi, 0)*p)
	}
	df := func(p complex128) complex128 {
		return complex(k, 0) - complex(0, 2.0*consts.H*math.Pi)*cmplx.Cos(complex(math.Pi, 0)*p)
	}

	found := false
	var bp complex128
	for _, guess := range []complex128{
		complex(float64(pRange)+0.5, 0.5),
		complex(float64(pRange)+0.25, 0.25),
		complex(float64(pRange)+0.75, 1.0),
	} {
		if z, ok := solver.FindRoot(f, df, guess, 1e-9, 50); ok {
			bp, found = z, true
			break
		}
	}
	if !found {
		slog.Warn("could not find energy branch point",
			"p_range", pRange, "h", consts.H, "k", consts.K())
		return e
	}
	if imag(bp) < 0 {
		bp = cmplx.Conj(bp)
	}
	e.branchPoint = bp

	scale := 4.0 * (1.0 + 4.0*math.Abs(k) + 2.0*consts.H) * (1.0 + 4.0*math.Abs(k) + 2.0*consts.H)
	pts := solver.Shoot(en2Func{consts}, negParabola{scale}, 0.0, 1.0, bp, 1.0/64.0)
	e.path = make([]complex128, 0, len(pts))
	for _, pt := range pts {
		e.path = append(e.path, pt.Z)
	}
	e.ok = len(e.path) > 1
	return e
}

// OK reports whether the branch curve was traced.
func (e *EInterpolator) OK() bool { return e.ok }

// CutP returns the branch point and curve in the momentum chart.
func (e *EInterpolator) CutP() (complex128, []complex128) {
	return e.branchPoint, e.path
}

// CutXp returns the curve mapped through x⁺.
func (e *EInterpolator) CutXp() (complex128, []complex128) {
	return e.mapped(func(p complex128) complex128 {
		return kinematics.Xp(p, 1.0, e.consts)
	})
}

// CutXm returns the curve mapped through x⁻.
func (e *EInterpolator) CutXm() (complex128, []complex128) {
	return e.mapped(func(p complex128) complex128 {
		return kinematics.Xm(p, 1.0, e.consts)
	})
}

// CutU returns the curve mapped through u on the principal sheet.
func (e *EInterpolator) CutU() (complex128, []complex128) {
	sd := kinematics.SheetData{EBranch: 1}
	return e.mapped(func(p complex128) complex128 {
		return kinematics.U(p, e.consts, sd)
	})
}

func (e *EInterpolator) mapped(f func(complex128) complex128) (complex128, []complex128) {
	if !e.ok {
		return 0, nil
	}
	out := make([]complex128, len(e.path))
	for i, p := range e.path {
		out[i] = f(p)
	}
	return f(e.branchPoint), out
}
