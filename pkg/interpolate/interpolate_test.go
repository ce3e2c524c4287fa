package interpolate

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
)

func testConsts() kinematics.CouplingConstants {
	return kinematics.NewCouplingConstants(2.0, 5)
}

func TestNewXpStart(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.25, consts)

	assert.Equal(t, complex(0.25, 0), pi.P())
	assert.InDelta(t, 0.0,
		cmplx.Abs(pi.Value()-kinematics.Xp(0.25, 1.0, consts)), 1e-12)
}

func TestGotoPStaysOnCurve(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.1, consts)

	pi.GotoP(0.4)

	// The momentum stays real and the value sits on the m = 1 curve.
	p := pi.P()
	assert.InDelta(t, 0.4, real(p), 1e-5)
	assert.InDelta(t, 0.0, imag(p), 1e-5)
	assert.InDelta(t, 0.0,
		cmplx.Abs(pi.Value()-kinematics.Xp(p, 1.0, consts)), 1e-5)
}

func TestGotoMChangesMode(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.1, consts)

	pi.GotoM(3.0)

	// x⁺(z, 1) at the new momentum must match the m = 3 target.
	got := kinematics.Xp(pi.P(), 1.0, consts)
	want := kinematics.Xp(0.1, 3.0, consts)
	assert.InDelta(t, 0.0, cmplx.Abs(got-want), 1e-5)
}

func TestGotoMPassesTurningPoint(t *testing.T) {
	// At strong coupling p(x) has a turning point between m = 1 and m = 0
	// where the continuation step collapses; the move must hop over it and
	// still land on the m = 0 curve.
	consts := kinematics.NewCouplingConstants(7.0, 3)
	pi := NewXp(1.0/8.0, consts)

	pi.GotoM(0.0)

	got := kinematics.Xp(pi.P(), 1.0, consts)
	want := kinematics.Xp(1.0/8.0, 0.0, consts)
	assert.InDelta(t, 0.0, cmplx.Abs(got-want), 1e-5)
	require.Greater(t, len(pi.Contour()), 1)
}

func TestContourTracksLastMoveOnly(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.1, consts)

	pi.GotoM(2.0)
	firstLen := len(pi.Contour())
	require.Greater(t, firstLen, 1)

	pi.GotoP(0.3)
	contour := pi.Contour()
	require.Greater(t, len(contour), 1)

	// The trace starts where the previous move ended, not at p = 0.1.
	assert.InDelta(t, 0.0, cmplx.Abs(contour[len(contour)-1]-pi.P()), 1e-12)
	assert.NotEqual(t, complex(0.1, 0), contour[0])
}

func TestGotoReMovesValue(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.25, consts)

	im := imag(pi.Value())
	target := real(pi.Value()) + 0.5
	pi.GotoRe(target)

	assert.InDelta(t, target, real(pi.Value()), 1e-5)
	assert.InDelta(t, im, imag(pi.Value()), 1e-5)
	assert.InDelta(t, 0.0,
		cmplx.Abs(kinematics.Xp(pi.P(), 1.0, consts)-pi.Value()), 1e-5)
}

func TestGotoReNoOpKeepsPosition(t *testing.T) {
	consts := testConsts()
	pi := NewXp(0.25, consts)
	z := pi.P()

	pi.GotoRe(real(pi.Value()))

	assert.Equal(t, z, pi.P())
	assert.Equal(t, []complex128{z}, pi.Contour())
}

func TestGenerateXpResolution(t *testing.T) {
	consts := testConsts()
	pts := GenerateXp(0.0, 1.0, 1.0, consts)
	require.Greater(t, len(pts), 16)

	// Endpoints are inset into the interval, away from the singular
	// integer momenta.
	first := kinematics.Xp(complex(1e-4, 0), 1.0, consts)
	assert.InDelta(t, 0.0, cmplx.Abs(pts[0]-first), 1e-9)
	last := kinematics.Xp(complex(1.0-1e-4, 0), 1.0, consts)
	assert.InDelta(t, 0.0, cmplx.Abs(pts[len(pts)-1]-last), 1e-9)

	// Away from the endpoint singularities the refined polyline is dense.
	inner := GenerateXp(0.1, 0.9, 1.0, consts)
	require.Greater(t, len(inner), 16)
	for i := 1; i < len(inner); i++ {
		assert.Less(t, cmplx.Abs(inner[i]-inner[i-1]), 0.5, "segment %d too long", i)
	}
}

func TestGenerateXmMirrorsXp(t *testing.T) {
	consts := testConsts()
	xp := GenerateXp(0.1, 0.9, 1.0, consts)
	xm := GenerateXm(0.1, 0.9, 1.0, consts)

	// For real p the two curves are complex conjugates.
	require.Equal(t, len(xp), len(xm))
	for i := range xp {
		assert.InDelta(t, 0.0, cmplx.Abs(xm[i]-cmplx.Conj(xp[i])), 1e-9)
	}
}

func TestEInterpolator(t *testing.T) {
	consts := testConsts()
	e := NewEInterpolator(0, consts)
	require.True(t, e.OK())

	bp, path := e.CutP()
	require.Greater(t, len(path), 1)

	// The curve starts at the branch point, which is a zero of E².
	assert.InDelta(t, 0.0, cmplx.Abs(path[0]-bp), 1e-9)
	assert.InDelta(t, 0.0, cmplx.Abs(kinematics.En2(bp, 1.0, consts)), 1e-6)
	assert.Greater(t, imag(bp), 0.0)

	// Along the curve E² stays real and non-positive.
	for _, p := range path {
		en2 := kinematics.En2(p, 1.0, consts)
		assert.InDelta(t, 0.0, imag(en2), 1e-4)
		assert.LessOrEqual(t, real(en2), 1e-6)
	}

	// The mapped cuts share the curve's length.
	_, xpPath := e.CutXp()
	assert.Equal(t, len(path), len(xpPath))
	_, uPath := e.CutU()
	assert.Equal(t, len(path), len(uPath))
}
