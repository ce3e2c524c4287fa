package surface

import (
	"log/slog"
	"math"

	"github.com/spectralab/zhukovsky/pkg/contours"
	"github.com/spectralab/zhukovsky/pkg/interpolate"
	"github.com/spectralab/zhukovsky/pkg/kinematics"
)

// State is an ordered chain of points forming a bound configuration: each
// point's x⁺ coincides with the previous point's x⁻. Unlocked suspends the
// chain constraint so individual points can be moved freely.
type State struct {
	Points   []Point `json:"points"`
	Unlocked bool    `json:"unlocked"`
}

// uSeedTolerance is how close the seed point's Re u must come to the
// target before the chain is built around it.
const uSeedTolerance = 0.01

// NewState builds an n-point bound configuration. The first point is
// placed by interpolating to mode number n and then walking its u value to
// uₛ + 3 in bounded steps; the remaining points are chained one by one by
// driving each new point's x⁺ onto the previous point's x⁻. Construction
// is best effort: a failed stage logs a warning and keeps the closest
// reachable configuration.
func NewState(n int, consts kinematics.CouplingConstants) *State {
	pInt := interpolate.NewXp(0.025, consts)
	pInt.GotoM(float64(n)).GotoP(0.025 + 0.022*float64(n-1))
	pt := NewPoint(pInt.P(), consts)

	s := consts.S()
	us := s + 1.0/s - (s-1.0/s)*math.Log(s)

	u0 := us + 3.0
	const stepSize = 1.0 / 4.0
	maxSteps := 2 * int(math.Abs(u0-real(pt.U))/stepSize)
	for i := 0; i < maxSteps; i++ {
		du := u0 - real(pt.U)
		step := math.Min(math.Abs(du), stepSize)
		u := real(pt.U) + math.Copysign(step, du)
		pt.Update(kinematics.ComponentU, complex(u, imag(pt.U)), nil, consts)
		if math.Abs(u0-real(pt.U)) < uSeedTolerance {
			break
		}
	}
	if math.Abs(u0-real(pt.U)) >= uSeedTolerance {
		slog.Warn("could not reach seed u value",
			"h", consts.H, "k", consts.K(), "du", u0-real(pt.U))
	}

	points := make([]Point, 0, n)
	points = append(points, *pt)

	for i := 1; i < n; i++ {
		next := points[i-1]
		xm := next.Xm
		for j := 0; j < 4; j++ {
			next.Update(kinematics.ComponentXp, xm, nil, consts)
		}
		points = append(points, next)
	}

	return &State{Points: points}
}

// updatePointIterationLimit bounds the crossing-resolution loop; a move
// that keeps producing crossings without reaching its target is stuck.
const updatePointIterationLimit = 100

// updatePointMinFrac bounds how far the step shrinks when the Newton
// continuation fails to follow a sub-move.
const updatePointMinFrac = 1.0 / 64.0

// updatePoint drives one point's chart value to finalValue, resolving cut
// crossings one at a time. When more than one crossing lies ahead, the
// move is shortened to the midpoint between the first two so the
// transitions are applied in order. A sub-move the continuation cannot
// follow, which happens near a branch point where the Jacobian degenerates,
// is retried at a shrinking fraction of its length.
func updatePoint(pt *Point, component kinematics.Component, finalValue complex128,
	cts *contours.Contours, consts kinematics.CouplingConstants) bool {
	frac := 1.0
	for i := 0; i < updatePointIterationLimit; i++ {
		currentValue := pt.Get(component)

		nextValue := finalValue
		if frac < 1.0 {
			nextValue = currentValue + complex(frac, 0)*(finalValue-currentValue)
		}

		crossings := cts.GetCrossedCuts(pt, component, nextValue, consts)
		if len(crossings) > 1 {
			t := (crossings[0].T + crossings[1].T) / 2.0
			nextValue = currentValue + complex(t, 0)*(nextValue-currentValue)
		}

		var crossed []*contours.Cut
		if len(crossings) > 0 {
			crossed = crossings[0].Cuts
		}

		if !pt.Update(component, nextValue, crossed, consts) {
			frac /= 2.0
			if frac < updatePointMinFrac {
				return false
			}
			continue
		}
		frac = 1.0

		if nextValue == finalValue {
			return true
		}
	}
	slog.Debug("crossing resolution did not terminate", "component", component.String())
	return false
}

// Update drives the active point's chart value to newValue and then, if
// the chain is locked, propagates outward: every point above the active
// one follows its predecessor's x⁻ and every point below follows its
// successor's x⁺. The result is the AND of all sub-updates; there is no
// rollback, so a false result leaves a partially updated chain.
func (st *State) Update(activePoint int, component kinematics.Component,
	newValue complex128, cts *contours.Contours, consts kinematics.CouplingConstants) bool {
	result := updatePoint(&st.Points[activePoint], component, newValue, cts, consts)

	if st.Unlocked {
		return result
	}

	for i := activePoint + 1; i < len(st.Points); i++ {
		prev := &st.Points[i-1]
		target := kinematics.XmOnSheet(prev.P, 1.0, consts, prev.SheetData)
		result = updatePoint(&st.Points[i], kinematics.ComponentXp, target, cts, consts) && result
	}

	for i := activePoint - 1; i >= 0; i-- {
		next := &st.Points[i+1]
		target := kinematics.XpOnSheet(next.P, 1.0, consts, next.SheetData)
		result = updatePoint(&st.Points[i], kinematics.ComponentXm, target, cts, consts) && result
	}

	return result
}

// P is the total momentum.
func (st *State) P() complex128 {
	var sum complex128
	for i := range st.Points {
		sum += st.Points[i].P
	}
	return sum
}

// En is the total energy.
func (st *State) En(consts kinematics.CouplingConstants) complex128 {
	var sum complex128
	for i := range st.Points {
		sum += st.Points[i].Energy(consts)
	}
	return sum
}
