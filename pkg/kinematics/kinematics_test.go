package kinematics

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouplingConstants(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)

	assert.Equal(t, 5, c.K())
	assert.InDelta(t, 5.0/Tau, c.Kslash, 1e-15)
	require.NoError(t, c.Validate())

	// s satisfies s - 1/s = 2k̄/h by construction.
	s := c.S()
	assert.InDelta(t, 2.0*c.Kslash/c.H, s-1.0/s, 1e-12)
}

func TestCouplingConstantsValidate(t *testing.T) {
	bad := CouplingConstants{H: -1.0, Kslash: 0.0}
	assert.Error(t, bad.Validate())

	notInt := CouplingConstants{H: 2.0, Kslash: 0.3}
	assert.Error(t, notInt.Validate())
}

func TestGetSetRoundTrip(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)

	k := 7.0
	got := c.GetSetK(&k)
	assert.InDelta(t, 7.0, got, 1e-12)
	assert.Equal(t, 7, c.K())

	s := 3.0
	got = c.GetSetS(&s)
	assert.InDelta(t, 3.0, got, 1e-12)
	// Setting s moves h, not k.
	assert.Equal(t, 7, c.K())
}

func TestEnergySquared(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)

	for _, p := range []complex128{
		0.1, 0.45, complex(0.25, 0.1), complex(-0.3, -0.05), complex(1.2, 0.02),
	} {
		en := En(p, 1.0, c)
		en2 := En2(p, 1.0, c)
		assert.InDelta(t, 0.0, cmplx.Abs(en*en-en2), 1e-10, "p=%v", p)
	}
}

func TestZhukovskyPhase(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)

	// x⁺ and x⁻ differ only by the phase e^(±iπp).
	for _, p := range []complex128{0.1, 0.3, complex(0.2, 0.15)} {
		ratio := Xp(p, 1.0, c) / Xm(p, 1.0, c)
		expected := cmplx.Exp(2i * complex(math.Pi, 0) * p)
		assert.InDelta(t, 0.0, cmplx.Abs(ratio-expected), 1e-10, "p=%v", p)
	}
}

func TestDispersionRelation(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)

	// x⁺ - 1/x⁺ - x⁻ + 1/x⁻ = 2i·E/h
	for _, p := range []complex128{0.1, 0.4, complex(0.25, 0.1)} {
		xp := Xp(p, 1.0, c)
		xm := Xm(p, 1.0, c)
		lhs := xp - 1.0/xp - xm + 1.0/xm
		rhs := 2i * En(p, 1.0, c) / complex(c.H, 0)
		assert.InDelta(t, 0.0, cmplx.Abs(lhs-rhs), 1e-10, "p=%v", p)
	}
}

func numericalDerivative(f func(complex128) complex128, p complex128) complex128 {
	const h = 1e-6
	return (f(p+complex(h, 0)) - f(p-complex(h, 0))) / complex(2*h, 0)
}

func TestDerivatives(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)
	p := complex(0.3, 0.07)

	cases := []struct {
		name string
		f    func(complex128) complex128
		df   func(complex128) complex128
	}{
		{"DEnDp", func(z complex128) complex128 { return En(z, 1.0, c) },
			func(z complex128) complex128 { return DEnDp(z, 1.0, c) }},
		{"DXpDp", func(z complex128) complex128 { return Xp(z, 1.0, c) },
			func(z complex128) complex128 { return DXpDp(z, 1.0, c) }},
		{"DXmDp", func(z complex128) complex128 { return Xm(z, 1.0, c) },
			func(z complex128) complex128 { return DXmDp(z, 1.0, c) }},
		{"DEn2Dp", func(z complex128) complex128 { return En2(z, 1.0, c) },
			func(z complex128) complex128 { return DEn2Dp(z, 1.0, c) }},
		{"DXpCrossedDp", func(z complex128) complex128 { return XpCrossed(z, 1.0, c) },
			func(z complex128) complex128 { return DXpCrossedDp(z, 1.0, c) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := numericalDerivative(tc.f, p)
			got := tc.df(p)
			assert.InDelta(t, 0.0, cmplx.Abs(got-want), 1e-4)
		})
	}
}

func TestUDerivative(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)
	sd := SheetData{EBranch: 1}
	p := complex(0.3, 0.07)

	want := numericalDerivative(func(z complex128) complex128 { return U(z, c, sd) }, p)
	got := DUDp(p, c, sd)
	assert.InDelta(t, 0.0, cmplx.Abs(got-want), 1e-4)
}

func TestOnSheetPrincipal(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)
	sd := SheetData{EBranch: 1, UBranch: [2]UBranch{UBranchOutside, UBranchOutside}}
	p := complex(0.25, 0.05)

	assert.Equal(t, Xp(p, 1.0, c), XpOnSheet(p, 1.0, c, sd))
	assert.Equal(t, Xm(p, 1.0, c), XmOnSheet(p, 1.0, c, sd))
	assert.Equal(t, U(p, c, sd), UOnSheet(p, c, sd))
}

func TestOnSheetCrossed(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)
	sd := SheetData{EBranch: -1}
	p := complex(0.25, 0.05)

	assert.Equal(t, XpCrossed(p, 1.0, c), XpOnSheet(p, 1.0, c, sd))
	assert.Equal(t, XmCrossed(p, 1.0, c), XmOnSheet(p, 1.0, c, sd))
}

func TestUBranchCrossings(t *testing.T) {
	assert.Equal(t, UBranchBetween, UBranchOutside.CrossScallion())
	assert.Equal(t, UBranchOutside, UBranchBetween.CrossScallion())
	assert.Equal(t, UBranchInside, UBranchBetween.CrossKidney())
	assert.Equal(t, UBranchBetween, UBranchInside.CrossKidney())

	// Crossing the kidney from outside or the scallion from inside is
	// impossible; the branch must not change.
	assert.Equal(t, UBranchOutside, UBranchOutside.CrossKidney())
	assert.Equal(t, UBranchInside, UBranchInside.CrossScallion())
}

func TestSheetDataConjInvolution(t *testing.T) {
	sd := SheetData{
		LogBranchP: 2,
		LogBranchM: -1,
		EBranch:    -1,
		UBranch:    [2]UBranch{UBranchBetween, UBranchInside},
	}
	assert.Equal(t, sd, sd.Conj().Conj())

	// Conjugation swaps the x⁺ and x⁻ sides.
	conj := sd.Conj()
	assert.Equal(t, sd.UBranch[0], conj.UBranch[1])
	assert.Equal(t, sd.UBranch[1], conj.UBranch[0])
}

func TestSheetDataIsSame(t *testing.T) {
	base := SheetData{EBranch: 1, UBranch: [2]UBranch{UBranchOutside, UBranchOutside}}

	assert.True(t, base.IsSame(base, ComponentP))
	assert.True(t, base.IsSame(base, ComponentU))

	flipped := base
	flipped.EBranch = -1
	assert.False(t, base.IsSame(flipped, ComponentP))

	// The x⁻ chart keys on the x⁺ side's continuation and vice versa.
	other := base
	other.UBranch[1] = UBranchInside
	assert.False(t, base.IsSame(other, ComponentXp))
	assert.True(t, base.IsSame(other, ComponentXm))

	// A shared Between continuation makes the sheets coincide.
	a := base
	b := base
	a.UBranch[1] = UBranchBetween
	b.UBranch[1] = UBranchBetween
	b.UBranch[0] = UBranchInside
	assert.True(t, a.IsSame(b, ComponentXp))
}

func TestLogBranchShiftsU(t *testing.T) {
	c := NewCouplingConstants(2.0, 5)
	p := complex(0.3, 0.1)

	base := SheetData{EBranch: 1}
	shifted := SheetData{EBranch: 1, LogBranchP: 1}

	du := U(p, c, shifted) - U(p, c, base)
	want := complex(0, -2.0*float64(c.K())/c.H)
	assert.InDelta(t, 0.0, cmplx.Abs(du-want), 1e-10)
}

func TestComponentConj(t *testing.T) {
	assert.Equal(t, ComponentXm, ComponentXp.Conj())
	assert.Equal(t, ComponentXp, ComponentXm.Conj())
	assert.Equal(t, ComponentP, ComponentP.Conj())
	assert.Equal(t, ComponentU, ComponentU.Conj())
}
