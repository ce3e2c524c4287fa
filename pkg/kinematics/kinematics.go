// Package kinematics implements the coupling-constant kinematics of the
// spectral curve: the energy map, the two Zhukovsky variables x⁺/x⁻, the
// logarithmic u variable, and their derivatives, together with the discrete
// sheet data that distinguishes points on different Riemann sheets.
//
// All maps are total over complex momentum p away from the true branch
// points; callers are responsible for not evaluating derivatives exactly at
// a singularity.
package kinematics

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Tau is the full circle constant 2π.
const Tau = 2 * math.Pi

// CouplingConstants is the immutable pair (h, k̄) parameterizing the model.
// k̄ = k/2π for an integer Chern-Simons level k. Passed by value everywhere.
type CouplingConstants struct {
	H      float64 `json:"h"`
	Kslash float64 `json:"kslash"`
}

// NewCouplingConstants builds the pair from h and the integer level k.
func NewCouplingConstants(h float64, k int) CouplingConstants {
	return CouplingConstants{H: h, Kslash: float64(k) / Tau}
}

// K returns the integer level k = round(2π·k̄).
func (c CouplingConstants) K() int {
	return int(math.Round(Tau * c.Kslash))
}

// S returns the derived scalar s = (√(k̄²+h²) + k̄)/h.
func (c CouplingConstants) S() float64 {
	return (math.Sqrt(c.Kslash*c.Kslash+c.H*c.H) + c.Kslash) / c.H
}

// GetSetK optionally sets the level from a float k and returns the current
// integer level as a float.
func (c *CouplingConstants) GetSetK(k *float64) float64 {
	if k != nil {
		c.Kslash = *k / Tau
	}
	return float64(c.K())
}

// GetSetS optionally moves h so that S() matches the requested s, using
// h = 2·k̄·s/(s²−1), and returns the current s.
func (c *CouplingConstants) GetSetS(s *float64) float64 {
	if s != nil && *s > 1.0 {
		c.H = 2.0 * c.Kslash * *s / (*s**s - 1.0)
	}
	return c.S()
}

// Validate checks the invariant that k is representable as an integer.
// A violation can only come from a corrupted snapshot.
func (c CouplingConstants) Validate() error {
	if c.H <= 0 {
		return fmt.Errorf("coupling constant h must be positive, got %v", c.H)
	}
	if d := math.Abs(Tau*c.Kslash - float64(c.K())); d > 1e-6 {
		return fmt.Errorf("level k = 2π·k̄ = %v is not an integer", Tau*c.Kslash)
	}
	return nil
}

// Component identifies one of the point's coordinate charts.
type Component int

const (
	ComponentP Component = iota
	ComponentXp
	ComponentXm
	ComponentU
)

// Conj returns the chart of the complex-conjugated point: the p → p̄
// symmetry of the model swaps x⁺ and x⁻.
func (c Component) Conj() Component {
	switch c {
	case ComponentXp:
		return ComponentXm
	case ComponentXm:
		return ComponentXp
	default:
		return c
	}
}

func (c Component) String() string {
	switch c {
	case ComponentP:
		return "p"
	case ComponentXp:
		return "xp"
	case ComponentXm:
		return "xm"
	case ComponentU:
		return "u"
	default:
		return fmt.Sprintf("Component(%d)", int(c))
	}
}

// UBranch selects one of the admissible analytic continuations of the
// u variable on one Zhukovsky side. The scallion curve separates Outside
// from Between, the kidney curve separates Between from Inside.
type UBranch int

const (
	UBranchOutside UBranch = iota
	UBranchBetween
	UBranchInside
)

func (b UBranch) String() string {
	switch b {
	case UBranchOutside:
		return "outside"
	case UBranchBetween:
		return "between"
	case UBranchInside:
		return "inside"
	default:
		return fmt.Sprintf("UBranch(%d)", int(b))
	}
}

// CrossScallion is the branch transition for crossing the scallion curve.
func (b UBranch) CrossScallion() UBranch {
	switch b {
	case UBranchOutside:
		return UBranchBetween
	case UBranchBetween:
		return UBranchOutside
	default:
		return b
	}
}

// CrossKidney is the branch transition for crossing the kidney curve.
func (b UBranch) CrossKidney() UBranch {
	switch b {
	case UBranchBetween:
		return UBranchInside
	case UBranchInside:
		return UBranchBetween
	default:
		return b
	}
}

// SheetData is the discrete state identifying which Riemann sheet a point
// occupies: the logarithm branch on each Zhukovsky side, the sign of the
// energy square root, and the u continuation chosen on each side.
type SheetData struct {
	LogBranchP int        `json:"log_branch_p"`
	LogBranchM int        `json:"log_branch_m"`
	EBranch    int        `json:"e_branch"`
	UBranch    [2]UBranch `json:"u_branch"`
}

// Conj returns the sheet data of the conjugated point: the p/m sides swap
// while the energy branch is invariant under p → p̄.
func (sd SheetData) Conj() SheetData {
	return SheetData{
		LogBranchP: sd.LogBranchM,
		LogBranchM: sd.LogBranchP,
		EBranch:    sd.EBranch,
		UBranch:    [2]UBranch{sd.UBranch[1], sd.UBranch[0]},
	}
}

// IsSame reports whether two sheet data describe the same sheet of the
// given chart. Charts do not see every branch index: p only depends on the
// energy branch, while the x and u charts compare log branches except when
// a Between continuation makes the sheets coincide.
func (sd SheetData) IsSame(other SheetData, component Component) bool {
	switch component {
	case ComponentP:
		return sd.EBranch == other.EBranch
	case ComponentU:
		if sd.UBranch == other.UBranch &&
			(sd.UBranch[0] == UBranchBetween || sd.UBranch[1] == UBranchBetween) {
			return true
		}
		if sd.LogBranchP+sd.LogBranchM != other.LogBranchP+other.LogBranchM ||
			sd.LogBranchP-sd.LogBranchM != other.LogBranchP-other.LogBranchM {
			return false
		}
		return sd.UBranch == other.UBranch
	case ComponentXp:
		if sd.UBranch[1] == UBranchBetween && other.UBranch[1] == UBranchBetween {
			return true
		}
		if sd.UBranch[1] == other.UBranch[1] &&
			(sd.UBranch[0] == UBranchBetween || other.UBranch[0] == UBranchBetween) {
			return sd.LogBranchP == other.LogBranchP
		}
		if sd.LogBranchP+sd.LogBranchM != other.LogBranchP+other.LogBranchM {
			return false
		}
		return sd.UBranch[1] == other.UBranch[1]
	case ComponentXm:
		if sd.UBranch[0] == UBranchBetween && other.UBranch[0] == UBranchBetween {
			return true
		}
		if sd.UBranch[0] == other.UBranch[0] &&
			(sd.UBranch[1] == UBranchBetween || other.UBranch[1] == UBranchBetween) {
			return sd.LogBranchM == other.LogBranchM
		}
		if sd.LogBranchP+sd.LogBranchM != other.LogBranchP+other.LogBranchM {
			return false
		}
		return sd.UBranch[0] == other.UBranch[0]
	default:
		return false
	}
}

func meff(p complex128, m float64, c CouplingConstants) complex128 {
	return complex(m, 0) + complex(float64(c.K()), 0)*p
}

func sinPi(p complex128) complex128 { return cmplx.Sin(complex(math.Pi, 0) * p) }
func cosPi(p complex128) complex128 { return cmplx.Cos(complex(math.Pi, 0) * p) }

// En is the dispersion relation E(p, m) = √(m_eff² + 4h²·sin²(πp)) with
// m_eff = m + k·p. The branch of the square root is the principal one; the
// physically selected branch is controlled externally through the sheet
// data's EBranch, not here.
func En(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	me := meff(p, m, c)
	return cmplx.Sqrt(me*me + complex(4.0*c.H*c.H, 0)*sin*sin)
}

// DEnDp is ∂E/∂p.
func DEnDp(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	cos := cosPi(p)
	me := meff(p, m, c)
	return complex(Tau, 0) * (complex(c.Kslash, 0)*me + complex(2.0*c.H*c.H, 0)*sin*cos) / En(p, m, c)
}

// DEnDm is ∂E/∂m.
func DEnDm(p complex128, m float64, c CouplingConstants) complex128 {
	return meff(p, m, c) / En(p, m, c)
}

// En2 is E², the radicand of the dispersion relation. The energy cut is the
// locus where En2 is real and non-positive.
func En2(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	me := meff(p, m, c)
	return me*me + complex(4.0*c.H*c.H, 0)*sin*sin
}

// DEn2Dp is ∂E²/∂p.
func DEn2Dp(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	cos := cosPi(p)
	me := meff(p, m, c)
	return complex(Tau, 0) * (complex(2.0*c.Kslash, 0)*me + complex(4.0*c.H*c.H, 0)*sin*cos)
}

func x(p complex128, m float64, c CouplingConstants) complex128 {
	return (meff(p, m, c) + En(p, m, c)) / (complex(2.0*c.H, 0) * sinPi(p))
}

func dxDp(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	cos := cosPi(p)
	term1 := -x(p, m, c) * (cos / sin) / 2.0
	term2 := complex(c.Kslash, 0) / (complex(2.0*c.H, 0) * sin)
	term3 := (complex(c.Kslash, 0)*meff(p, m, c) + complex(2.0*c.H*c.H, 0)*sin*cos) /
		(En(p, m, c) * complex(2.0*c.H, 0) * sin)
	return complex(Tau, 0) * (term1 + term2 + term3)
}

func dxDm(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	return (1.0 + DEnDm(p, m, c)) / (complex(2.0*c.H, 0) * sin)
}

func xCrossed(p complex128, m float64, c CouplingConstants) complex128 {
	return (meff(p, m, c) - En(p, m, c)) / (complex(2.0*c.H, 0) * sinPi(p))
}

func dxCrossedDp(p complex128, m float64, c CouplingConstants) complex128 {
	sin := sinPi(p)
	cos := cosPi(p)
	term1 := -xCrossed(p, m, c) * (cos / sin) / 2.0
	term2 := complex(c.Kslash, 0) / (complex(2.0*c.H, 0) * sin)
	term3 := (complex(c.Kslash, 0)*meff(p, m, c) + complex(2.0*c.H*c.H, 0)*sin*cos) /
		(En(p, m, c) * complex(2.0*c.H, 0) * sin)
	return complex(Tau, 0) * (term1 + term2 - term3)
}

func expIPiP(p complex128) complex128 { return cmplx.Exp(1i * complex(math.Pi, 0) * p) }

// Xp is the Zhukovsky variable x⁺(p, m) = x(p, m)·exp(iπp).
func Xp(p complex128, m float64, c CouplingConstants) complex128 {
	return x(p, m, c) * expIPiP(p)
}

// Xm is the Zhukovsky variable x⁻(p, m) = x(p, m)·exp(−iπp).
func Xm(p complex128, m float64, c CouplingConstants) complex128 {
	return x(p, m, c) * expIPiP(-p)
}

// DXpDp is ∂x⁺/∂p.
func DXpDp(p complex128, m float64, c CouplingConstants) complex128 {
	exp := expIPiP(p)
	return dxDp(p, m, c)*exp + 1i*complex(math.Pi, 0)*x(p, m, c)*exp
}

// DXmDp is ∂x⁻/∂p.
func DXmDp(p complex128, m float64, c CouplingConstants) complex128 {
	exp := expIPiP(-p)
	return dxDp(p, m, c)*exp - 1i*complex(math.Pi, 0)*x(p, m, c)*exp
}

// DXpDm is ∂x⁺/∂m.
func DXpDm(p complex128, m float64, c CouplingConstants) complex128 {
	return dxDm(p, m, c) * expIPiP(p)
}

// DXmDm is ∂x⁻/∂m.
func DXmDm(p complex128, m float64, c CouplingConstants) complex128 {
	return dxDm(p, m, c) * expIPiP(-p)
}

// XpCrossed is the value of x⁺ seen just after crossing an energy cut,
// i.e. with the opposite sign of the energy term.
func XpCrossed(p complex128, m float64, c CouplingConstants) complex128 {
	return xCrossed(p, m, c) * expIPiP(p)
}

// XmCrossed is the crossed variant of x⁻.
func XmCrossed(p complex128, m float64, c CouplingConstants) complex128 {
	return xCrossed(p, m, c) * expIPiP(-p)
}

// DXpCrossedDp is ∂x⁺_crossed/∂p.
func DXpCrossedDp(p complex128, m float64, c CouplingConstants) complex128 {
	exp := expIPiP(p)
	return dxCrossedDp(p, m, c)*exp + 1i*complex(math.Pi, 0)*xCrossed(p, m, c)*exp
}

// DXmCrossedDp is ∂x⁻_crossed/∂p.
func DXmCrossedDp(p complex128, m float64, c CouplingConstants) complex128 {
	exp := expIPiP(-p)
	return dxCrossedDp(p, m, c)*exp - 1i*complex(math.Pi, 0)*xCrossed(p, m, c)*exp
}

func uOfXp(xp complex128, c CouplingConstants, sd SheetData) complex128 {
	up := xp + 1.0/xp - complex(2.0*c.Kslash/c.H, 0)*cmplx.Log(xp)
	branchShift := complex(0, 2.0*float64(sd.LogBranchP*c.K())/c.H)
	return up - complex(0, 1.0/c.H) - branchShift
}

// U is the logarithmic variable u(p) built from x⁺ at m = 1. The log-branch
// index of the sheet data selects the branch of the multivalued logarithm
// through an integer multiple of 2i·k/h.
func U(p complex128, c CouplingConstants, sd SheetData) complex128 {
	return uOfXp(Xp(p, 1.0, c), c, sd)
}

// DUDp is ∂u/∂p on the uncrossed sheet.
func DUDp(p complex128, c CouplingConstants, sd SheetData) complex128 {
	sin := sinPi(p)
	cot := cosPi(p) / sin
	term1 := DEnDp(p, 1.0, c) * cot
	term2 := -complex(Tau, 0) * En(p, 1.0, c) / (2.0 * sin * sin)
	term3 := -complex(2.0*c.Kslash, 0) * dxDp(p, 1.0, c) / x(p, 1.0, c)
	return (term1 + term2 + term3) / complex(c.H, 0)
}

// UCrossed is the u variable built from the crossed x⁺.
func UCrossed(p complex128, c CouplingConstants, sd SheetData) complex128 {
	return uOfXp(XpCrossed(p, 1.0, c), c, sd)
}

// DUCrossedDp is ∂u/∂p on the crossed sheet.
func DUCrossedDp(p complex128, c CouplingConstants, sd SheetData) complex128 {
	sin := sinPi(p)
	cot := cosPi(p) / sin
	term1 := -DEnDp(p, 1.0, c) * cot
	term2 := complex(Tau, 0) * En(p, 1.0, c) / (2.0 * sin * sin)
	term3 := -complex(2.0*c.Kslash, 0) * dxCrossedDp(p, 1.0, c) / xCrossed(p, 1.0, c)
	return (term1 + term2 + term3) / complex(c.H, 0)
}

// XpOnSheet evaluates x⁺ on the sheet selected by the energy branch.
func XpOnSheet(p complex128, m float64, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return Xp(p, m, c)
	}
	return XpCrossed(p, m, c)
}

// XmOnSheet evaluates x⁻ on the sheet selected by the energy branch.
func XmOnSheet(p complex128, m float64, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return Xm(p, m, c)
	}
	return XmCrossed(p, m, c)
}

// UOnSheet evaluates u on the sheet selected by the energy branch.
func UOnSheet(p complex128, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return U(p, c, sd)
	}
	return UCrossed(p, c, sd)
}

// DXpDpOnSheet is the sheet-aware ∂x⁺/∂p.
func DXpDpOnSheet(p complex128, m float64, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return DXpDp(p, m, c)
	}
	return DXpCrossedDp(p, m, c)
}

// DXmDpOnSheet is the sheet-aware ∂x⁻/∂p.
func DXmDpOnSheet(p complex128, m float64, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return DXmDp(p, m, c)
	}
	return DXmCrossedDp(p, m, c)
}

// DUDpOnSheet is the sheet-aware ∂u/∂p.
func DUDpOnSheet(p complex128, c CouplingConstants, sd SheetData) complex128 {
	if sd.EBranch > 0 {
		return DUDp(p, c, sd)
	}
	return DUCrossedDp(p, c, sd)
}
