package contours

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
)

func TestComputeBranchPoint(t *testing.T) {
	consts := kinematics.NewCouplingConstants(2.0, 5)

	bp, ok := ComputeBranchPoint(0, XpPositiveAxisImXmNegative, consts)
	require.True(t, ok)
	assert.Equal(t, 2.0, bp.M)
	assert.Greater(t, bp.P, 0.0)
	assert.Less(t, bp.P, 1.0)
}

func TestComputeBranchPointMasses(t *testing.T) {
	consts := kinematics.NewCouplingConstants(2.0, 5)
	k := float64(consts.K())

	cases := []struct {
		typ  BranchPointType
		want float64
	}{
		{XpPositiveAxisImXmNegative, 2.0},
		{XpPositiveAxisImXmPositive, -2.0},
		{XpNegativeAxisFromAboveWithImXmNegative, k + 2.0},
		{XpNegativeAxisFromBelowWithImXmNegative, -k + 2.0},
	}
	for _, tc := range cases {
		if bp, ok := ComputeBranchPoint(0, tc.typ, consts); ok {
			assert.Equal(t, tc.want, bp.M, "type %v", tc.typ)
		}
	}
}

func TestUpdateBuildsIncrementally(t *testing.T) {
	consts := kinematics.NewCouplingConstants(2.0, 5)
	c := New()

	finished := c.Update(0, consts)
	done, total := c.Progress()
	assert.Greater(t, total, 1)
	assert.LessOrEqual(t, done, total)

	steps := 1
	for !finished {
		finished = c.Update(0, consts)
		steps++
		require.Less(t, steps, 100000, "build does not terminate")
	}

	done, total = c.Progress()
	assert.Equal(t, total, done)
	assert.NotEmpty(t, c.Cuts())
}

func TestUpdateRestartsOnNewConstants(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))
	_, total := c.Progress()

	// Different constants discard the finished build.
	finished := c.Update(0, kinematics.NewCouplingConstants(1.5, 3))
	assert.False(t, finished)
	done, newTotal := c.Progress()
	assert.Greater(t, newTotal, 1)
	assert.Less(t, done, newTotal)
	_ = total
}

func TestGeneratedCutFamilies(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))

	kinds := map[CutTypeKind]bool{}
	components := map[kinematics.Component]bool{}
	for _, cut := range c.Cuts() {
		kinds[cut.Type.Kind] = true
		components[cut.Component] = true
	}

	for _, kind := range []CutTypeKind{
		KindE, KindLog, KindULongPositive, KindULongNegative,
		KindUShortScallion, KindUShortKidney,
	} {
		assert.True(t, kinds[kind], "missing cut kind %d", kind)
	}
	for _, comp := range []kinematics.Component{
		kinematics.ComponentP, kinematics.ComponentXp,
		kinematics.ComponentXm, kinematics.ComponentU,
	} {
		assert.True(t, components[comp], "missing cuts in chart %v", comp)
	}
}

func TestGeneratedCutsComeInConjugatePairs(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))

	// Cuts are pushed together with their conjugate image, so per chart the
	// count of x⁺-side cuts matches the count of x⁻-side cuts.
	perSide := map[kinematics.Component]int{}
	for _, cut := range c.Cuts() {
		if cut.Type.Kind == KindLog {
			perSide[cut.Type.Component]++
		}
	}
	assert.Equal(t, perSide[kinematics.ComponentXp], perSide[kinematics.ComponentXm])
}

func TestUChartCutsPeriodic(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))

	for _, cut := range c.Cuts() {
		if cut.Component == kinematics.ComponentU {
			assert.True(t, cut.Periodic, "u-chart cut %v not periodic", cut.Type)
		} else {
			assert.False(t, cut.Periodic, "%v-chart cut %v periodic", cut.Component, cut.Type)
		}
	}
}

func TestGetVisibleCutsFiltersChart(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))
	pt := principalStub()

	visible := c.GetVisibleCuts(pt, kinematics.ComponentXp)
	require.NotEmpty(t, visible)
	for _, cut := range visible {
		assert.Equal(t, kinematics.ComponentXp, cut.Component)
		assert.True(t, cut.IsVisible(pt))
	}
}

func TestScallionPassesThroughS(t *testing.T) {
	consts := kinematics.NewCouplingConstants(2.0, 5)
	c := Generate(consts)
	s := consts.S()

	// The scallion in the x⁺ chart is the image of the real line p ∈ (0, 1)
	// at m = 0; it meets the real axis at x = s.
	best := math.Inf(1)
	for _, cut := range c.Cuts() {
		if cut.Component != kinematics.ComponentXp ||
			cut.Type != UShortScallionTyp(kinematics.ComponentXp) {
			continue
		}
		for _, z := range cut.Path {
			if d := cmplx.Abs(z - complex(s, 0)); d < best {
				best = d
			}
		}
	}
	assert.Less(t, best, 0.05)
}

func TestEnergyCutSplitByScallionImage(t *testing.T) {
	c := Generate(kinematics.NewCouplingConstants(2.0, 5))
	pt := principalStub()

	// The x⁺-chart energy cut at range 0 is split where the x⁻-side scallion
	// image crosses it: the near piece is active inside the scallion, the far
	// piece outside. A principal-sheet point must see exactly the far piece,
	// otherwise it could never reach the crossed energy branch.
	visible := 0
	for _, cut := range c.Cuts() {
		if cut.Component != kinematics.ComponentXp || cut.Type.Kind != KindE {
			continue
		}
		if cut.IsVisible(pt) {
			require.Equal(t, 0, cut.PRange)
			visible++
		}
	}
	assert.Equal(t, 1, visible)
}

func TestCutPathsNondegenerate(t *testing.T) {
	for _, consts := range []kinematics.CouplingConstants{
		kinematics.NewCouplingConstants(2.0, 5),
		kinematics.NewCouplingConstants(7.0, 3),
	} {
		c := Generate(consts)
		require.NotEmpty(t, c.Cuts(), "h=%g k=%d", consts.H, consts.K())
		for _, cut := range c.Cuts() {
			assert.GreaterOrEqual(t, len(cut.Path), 2,
				"h=%g k=%d chart=%v type=%v range=%d",
				consts.H, consts.K(), cut.Component, cut.Type, cut.PRange)
		}
	}
}

func TestPChartShortCutsAtStrongCoupling(t *testing.T) {
	// At strong coupling the momentum interpolation has to pass a turning
	// point of p(x) on its way to mode number zero; the short cuts of the
	// momentum chart must still come out whole.
	c := Generate(kinematics.NewCouplingConstants(7.0, 3))

	found := map[CutType]bool{}
	for _, cut := range c.Cuts() {
		if cut.Component == kinematics.ComponentP && cut.PRange == 0 {
			found[cut.Type] = true
		}
	}
	for _, typ := range []CutType{
		UShortScallionTyp(kinematics.ComponentXp),
		UShortScallionTyp(kinematics.ComponentXm),
		UShortKidneyTyp(kinematics.ComponentXp),
		UShortKidneyTyp(kinematics.ComponentXm),
	} {
		assert.True(t, found[typ], "missing %v", typ)
	}
}

func TestGetCrossedCutsOrdering(t *testing.T) {
	consts := kinematics.NewCouplingConstants(2.0, 5)
	c := Generate(consts)

	// A principal point at p = 0.25 sits outside the scallion; driving its
	// x⁺ deep toward the origin must cross it.
	pt := stubPoint{
		values: map[kinematics.Component]complex128{
			kinematics.ComponentXp: kinematics.Xp(0.25, 1.0, consts),
			kinematics.ComponentXm: kinematics.Xm(0.25, 1.0, consts),
		},
		sheet: kinematics.SheetData{
			EBranch: 1,
			UBranch: [2]kinematics.UBranch{kinematics.UBranchOutside, kinematics.UBranchOutside},
		},
	}
	crossings := c.GetCrossedCuts(pt, kinematics.ComponentXp, complex(0.01, 0.005), consts)
	require.NotEmpty(t, crossings)

	for i := 1; i < len(crossings); i++ {
		assert.Greater(t, crossings[i].T, crossings[i-1].T)
		assert.NotEmpty(t, crossings[i].Cuts)
	}

	// The move starts outside the scallion and ends near the origin, so a
	// scallion crossing must be among the hits.
	found := false
	for _, crossing := range crossings {
		for _, cut := range crossing.Cuts {
			if cut.Type == UShortScallionTyp(kinematics.ComponentXp) {
				found = true
			}
		}
	}
	assert.True(t, found)
}
