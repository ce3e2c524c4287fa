// Package surface tracks points on the spectral surface as they move
// across charts and branch cuts, both singly and chained into bound
// states.
package surface

import (
	"encoding/json"
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/spectralab/zhukovsky/pkg/contours"
	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/solver"
)

// Point is a single excitation: its complex momentum, the cached chart
// values, and the sheet data saying which branch of each multivalued map
// the cached values were computed on.
type Point struct {
	P         complex128
	Xp        complex128
	Xm        complex128
	U         complex128
	SheetData kinematics.SheetData
}

// NewPoint places a point at momentum p on the sheet reached by moving
// along the real axis from the principal range: the log branch on the x⁻
// side and the u branches are seeded from floor(Re p).
func NewPoint(p complex128, consts kinematics.CouplingConstants) *Point {
	logBranchM := int(math.Floor(real(p)))

	var uBranch [2]kinematics.UBranch
	switch {
	case logBranchM >= 0:
		uBranch = [2]kinematics.UBranch{kinematics.UBranchOutside, kinematics.UBranchOutside}
	case logBranchM == -1:
		uBranch = [2]kinematics.UBranch{kinematics.UBranchBetween, kinematics.UBranchBetween}
	default:
		uBranch = [2]kinematics.UBranch{kinematics.UBranchInside, kinematics.UBranchInside}
	}

	sd := kinematics.SheetData{
		LogBranchP: 0,
		LogBranchM: logBranchM,
		EBranch:    1,
		UBranch:    uBranch,
	}

	return &Point{
		P:         p,
		Xp:        kinematics.Xp(p, 1.0, consts),
		Xm:        kinematics.Xm(p, 1.0, consts),
		U:         kinematics.U(p, consts, sd),
		SheetData: sd,
	}
}

// Get returns the point's value in the given chart.
func (pt *Point) Get(component kinematics.Component) complex128 {
	switch component {
	case kinematics.ComponentP:
		return pt.P
	case kinematics.ComponentXp:
		return pt.Xp
	case kinematics.ComponentXm:
		return pt.Xm
	default:
		return pt.U
	}
}

// Sheet returns the point's sheet data.
func (pt *Point) Sheet() kinematics.SheetData { return pt.SheetData }

// Energy is the single-particle energy −i·h/2·(x⁺ − 1/x⁺ − x⁻ + 1/x⁻).
func (pt *Point) Energy(consts kinematics.CouplingConstants) complex128 {
	return complex(0, -consts.H/2.0) * (pt.Xp - 1.0/pt.Xp - pt.Xm + 1.0/pt.Xm)
}

// SameSheet reports whether both points live on the same sheet of the
// given chart.
func (pt *Point) SameSheet(other *Point, component kinematics.Component) bool {
	return pt.SheetData.IsSame(other.SheetData, component)
}

// transition applies the sheet-data changes of one crossed cut. Log-cut
// direction is keyed on which side of the cut the point approaches from.
func (pt *Point) transition(sd *kinematics.SheetData, cut *contours.Cut) {
	typ := cut.Type
	switch typ.Kind {
	case contours.KindE:
		sd.EBranch = -sd.EBranch
	case contours.KindUShortScallion:
		if typ.Component == kinematics.ComponentXp {
			sd.UBranch[0] = sd.UBranch[0].CrossScallion()
		} else {
			sd.UBranch[1] = sd.UBranch[1].CrossScallion()
		}
	case contours.KindUShortKidney:
		if typ.Component == kinematics.ComponentXp {
			sd.UBranch[0] = sd.UBranch[0].CrossKidney()
		} else {
			sd.UBranch[1] = sd.UBranch[1].CrossKidney()
		}
	case contours.KindLog:
		if typ.Component == kinematics.ComponentXp {
			if imag(pt.Xp) >= 0 {
				sd.LogBranchP++
			} else {
				sd.LogBranchP--
			}
		} else {
			if imag(pt.Xm) <= 0 {
				sd.LogBranchM++
			} else {
				sd.LogBranchM--
			}
		}
	}
}

func (pt *Point) shiftChart(component kinematics.Component, newValue complex128,
	sd kinematics.SheetData, guess complex128, consts kinematics.CouplingConstants) (complex128, bool) {
	switch component {
	case kinematics.ComponentXp:
		return solver.FindRoot(
			func(p complex128) complex128 {
				return kinematics.XpOnSheet(p, 1.0, consts, sd) - newValue
			},
			func(p complex128) complex128 {
				return kinematics.DXpDpOnSheet(p, 1.0, consts, sd)
			},
			guess, 1.0e-6, 50,
		)
	case kinematics.ComponentXm:
		return solver.FindRoot(
			func(p complex128) complex128 {
				return kinematics.XmOnSheet(p, 1.0, consts, sd) - newValue
			},
			func(p complex128) complex128 {
				return kinematics.DXmDpOnSheet(p, 1.0, consts, sd)
			},
			guess, 1.0e-6, 50,
		)
	default:
		return solver.FindRoot(
			func(p complex128) complex128 {
				return kinematics.UOnSheet(p, consts, sd) - newValue
			},
			func(p complex128) complex128 {
				return kinematics.DUDpOnSheet(p, consts, sd)
			},
			guess, 1.0e-6, 50,
		)
	}
}

// shifted validates a candidate momentum on the target sheet and builds
// the resulting point. Large jumps in p and candidates too close to an
// integer momentum are rejected; chart-value jumps are only logged since
// a legitimate cut crossing can move x⁺ or x⁻ far.
func (pt *Point) shifted(p complex128, sd kinematics.SheetData,
	consts kinematics.CouplingConstants) (*Point, bool) {
	dp := pt.P - p
	if math.Abs(real(dp)) > 0.125 || math.Abs(imag(dp)) > 0.25 {
		slog.Debug("p jump too large", "dp_re", real(dp), "dp_im", imag(dp))
		return nil, false
	}

	if cmplx.Abs(p-complex(math.Round(real(p)), 0)) < 0.005 {
		slog.Debug("too close to integer momentum")
		return nil, false
	}

	newXp := kinematics.XpOnSheet(p, 1.0, consts, sd)
	newXm := kinematics.XmOnSheet(p, 1.0, consts, sd)
	newU := kinematics.UOnSheet(p, consts, sd)

	limit := 16.0 / (consts.H * consts.H)
	if d := pt.Xp - newXp; real(d)*real(d)+imag(d)*imag(d) > limit {
		slog.Debug("xp jump large", "d2", real(d)*real(d)+imag(d)*imag(d))
	}
	if d := pt.Xm - newXm; real(d)*real(d)+imag(d)*imag(d) > limit {
		slog.Debug("xm jump large", "d2", real(d)*real(d)+imag(d)*imag(d))
	}

	return &Point{
		P:         p,
		Xp:        newXp,
		Xm:        newXm,
		U:         newU,
		SheetData: sd,
	}, true
}

// Update moves the point so that its value in the driven chart becomes
// newValue, applying the sheet transitions of the supplied crossed cuts
// first. The momentum is re-solved from a ladder of guesses around the
// current position and the candidate with the smallest Zhukovsky jump
// wins. On failure the point is left unchanged and false is returned.
func (pt *Point) Update(component kinematics.Component, newValue complex128,
	crossedCuts []*contours.Cut, consts kinematics.CouplingConstants) bool {
	sd := pt.SheetData
	for _, cut := range crossedCuts {
		pt.transition(&sd, cut)
		slog.Debug("crossed cut", "type", cut.Type.String(), "sheet", sd)
	}

	guesses := []complex128{
		pt.P,
		pt.P - 0.01, pt.P + 0.01,
		pt.P - 0.05, pt.P + 0.05,
		pt.P - 0.1, pt.P + 0.1,
	}

	var best *Point
	bestJump := math.Inf(1)
	for _, guess := range guesses {
		var p complex128
		if component == kinematics.ComponentP {
			p = newValue
		} else {
			var ok bool
			p, ok = pt.shiftChart(component, newValue, sd, guess, consts)
			if !ok {
				continue
			}
		}

		candidate, ok := pt.shifted(p, sd, consts)
		if !ok {
			continue
		}

		dxp := candidate.Xp - pt.Xp
		dxm := candidate.Xm - pt.Xm
		jump := real(dxp)*real(dxp) + imag(dxp)*imag(dxp) +
			real(dxm)*real(dxm) + imag(dxm)*imag(dxm)
		if jump < bestJump {
			best, bestJump = candidate, jump
		}
	}

	if best == nil {
		return false
	}
	*pt = *best
	return true
}

type complexJSON struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func toJSON(z complex128) complexJSON   { return complexJSON{Re: real(z), Im: imag(z)} }
func fromJSON(c complexJSON) complex128 { return complex(c.Re, c.Im) }

type pointJSON struct {
	P         complexJSON         `json:"p"`
	Xp        complexJSON         `json:"xp"`
	Xm        complexJSON         `json:"xm"`
	U         complexJSON         `json:"u"`
	SheetData kinematics.SheetData `json:"sheet_data"`
}

// MarshalJSON encodes complex values as {re, im} pairs.
func (pt Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{
		P:         toJSON(pt.P),
		Xp:        toJSON(pt.Xp),
		Xm:        toJSON(pt.Xm),
		U:         toJSON(pt.U),
		SheetData: pt.SheetData,
	})
}

func (pt *Point) UnmarshalJSON(data []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pt.P = fromJSON(raw.P)
	pt.Xp = fromJSON(raw.Xp)
	pt.Xm = fromJSON(raw.Xm)
	pt.U = fromJSON(raw.U)
	pt.SheetData = raw.SheetData
	return nil
}
