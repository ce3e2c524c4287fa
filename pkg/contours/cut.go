// Package contours builds and queries the branch-cut geometry of the
// spectral surface. A Contours value is constructed incrementally through a
// command queue and, once complete, is immutable and safe to share between
// goroutines.
package contours

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
)

// CutPoint is the view of a surface point that cut queries need: its chart
// values and its discrete sheet data.
type CutPoint interface {
	Get(component kinematics.Component) complex128
	Sheet() kinematics.SheetData
}

// CutTypeKind enumerates the cut families.
type CutTypeKind int

const (
	KindE CutTypeKind = iota
	KindDebugPath
	KindLog
	KindULongPositive
	KindULongNegative
	KindUShortScallion
	KindUShortKidney
)

// CutType identifies a cut family together with the Zhukovsky side it is
// attached to. The E and DebugPath families carry no side.
type CutType struct {
	Kind      CutTypeKind
	Component kinematics.Component
}

func ETyp() CutType              { return CutType{Kind: KindE} }
func DebugPathTyp() CutType      { return CutType{Kind: KindDebugPath} }
func LogTyp(c kinematics.Component) CutType { return CutType{Kind: KindLog, Component: c} }

func ULongPositiveTyp(c kinematics.Component) CutType {
	return CutType{Kind: KindULongPositive, Component: c}
}

func ULongNegativeTyp(c kinematics.Component) CutType {
	return CutType{Kind: KindULongNegative, Component: c}
}

func UShortScallionTyp(c kinematics.Component) CutType {
	return CutType{Kind: KindUShortScallion, Component: c}
}

func UShortKidneyTyp(c kinematics.Component) CutType {
	return CutType{Kind: KindUShortKidney, Component: c}
}

// Conj maps the cut type under p → p̄, which swaps the Zhukovsky sides.
func (t CutType) Conj() CutType {
	switch t.Kind {
	case KindE, KindDebugPath:
		return t
	default:
		return CutType{Kind: t.Kind, Component: t.Component.Conj()}
	}
}

func (t CutType) String() string {
	switch t.Kind {
	case KindE:
		return "E"
	case KindDebugPath:
		return "debug"
	case KindLog:
		return fmt.Sprintf("log(%v)", t.Component)
	case KindULongPositive:
		return fmt.Sprintf("u-long-positive(%v)", t.Component)
	case KindULongNegative:
		return fmt.Sprintf("u-long-negative(%v)", t.Component)
	case KindUShortScallion:
		return fmt.Sprintf("scallion(%v)", t.Component)
	case KindUShortKidney:
		return fmt.Sprintf("kidney(%v)", t.Component)
	default:
		return fmt.Sprintf("CutType(%d)", int(t.Kind))
	}
}

type visKind int

const (
	visImXp visKind = iota
	visImXm
	visLogBranch
	visEBranch
	visUpBranch
	visUmBranch
)

// VisibilityCondition is one conjunct of a cut's visibility: the cut is
// active only for points whose live values and sheet data satisfy every
// condition.
type VisibilityCondition struct {
	kind    visKind
	sign    int
	branch  int
	uBranch kinematics.UBranch
}

// ImXp requires sign(Im x⁺) to match the given sign.
func ImXp(sign int) VisibilityCondition { return VisibilityCondition{kind: visImXp, sign: sign} }

// ImXm requires sign(Im x⁻) to match the given sign.
func ImXm(sign int) VisibilityCondition { return VisibilityCondition{kind: visImXm, sign: sign} }

// LogBranchSum requires logBranchP + logBranchM to equal n.
func LogBranchSum(n int) VisibilityCondition {
	return VisibilityCondition{kind: visLogBranch, branch: n}
}

// EBranchIs requires the energy branch to equal n.
func EBranchIs(n int) VisibilityCondition {
	return VisibilityCondition{kind: visEBranch, branch: n}
}

// UpBranchIs requires the u branch on the x⁺ side to equal b.
func UpBranchIs(b kinematics.UBranch) VisibilityCondition {
	return VisibilityCondition{kind: visUpBranch, uBranch: b}
}

// UmBranchIs requires the u branch on the x⁻ side to equal b.
func UmBranchIs(b kinematics.UBranch) VisibilityCondition {
	return VisibilityCondition{kind: visUmBranch, uBranch: b}
}

func signOf(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

// Check evaluates the condition against a point.
func (v VisibilityCondition) Check(pt CutPoint) bool {
	sd := pt.Sheet()
	switch v.kind {
	case visImXp:
		return signOf(imag(pt.Get(kinematics.ComponentXp))) == signOf(float64(v.sign))
	case visImXm:
		return signOf(imag(pt.Get(kinematics.ComponentXm))) == signOf(float64(v.sign))
	case visLogBranch:
		return v.branch == sd.LogBranchP+sd.LogBranchM
	case visEBranch:
		return v.branch == sd.EBranch
	case visUpBranch:
		return v.uBranch == sd.UBranch[0]
	case visUmBranch:
		return v.uBranch == sd.UBranch[1]
	default:
		return false
	}
}

// Conj maps the condition under p → p̄: the Im signs flip with the
// orientation and the two Zhukovsky sides swap.
func (v VisibilityCondition) Conj() VisibilityCondition {
	switch v.kind {
	case visImXp:
		return VisibilityCondition{kind: visImXm, sign: -v.sign}
	case visImXm:
		return VisibilityCondition{kind: visImXp, sign: -v.sign}
	case visUpBranch:
		return VisibilityCondition{kind: visUmBranch, uBranch: v.uBranch}
	case visUmBranch:
		return VisibilityCondition{kind: visUpBranch, uBranch: v.uBranch}
	default:
		return v
	}
}

// Cut is a branch cut drawn in one chart: a polyline, an optional branch
// point, the cut family, and the visibility conditions under which a moving
// point can cross it.
type Cut struct {
	Component   kinematics.Component
	Path        []complex128
	BranchPoint *complex128
	Type        CutType
	PRange      int
	Periodic    bool

	visibility []VisibilityCondition
}

// NewCut assembles a cut. The path slice is owned by the cut afterwards.
func NewCut(component kinematics.Component, path []complex128, branchPoint *complex128,
	typ CutType, pRange int, periodic bool, visibility []VisibilityCondition) *Cut {
	return &Cut{
		Component:   component,
		Path:        path,
		BranchPoint: branchPoint,
		Type:        typ,
		PRange:      pRange,
		Periodic:    periodic,
		visibility:  visibility,
	}
}

func clonePoint(z *complex128) *complex128 {
	if z == nil {
		return nil
	}
	w := *z
	return &w
}

// Conj returns the image of the cut under p → p̄: the path is conjugated
// and reversed, the chart and the cut type swap sides.
func (c *Cut) Conj() *Cut {
	path := make([]complex128, len(c.Path))
	for i, z := range c.Path {
		path[len(c.Path)-1-i] = cmplx.Conj(z)
	}
	vis := make([]VisibilityCondition, len(c.visibility))
	for i, v := range c.visibility {
		vis[i] = v.Conj()
	}
	bp := clonePoint(c.BranchPoint)
	if bp != nil {
		*bp = cmplx.Conj(*bp)
	}
	return &Cut{
		Component:   c.Component.Conj(),
		Path:        path,
		BranchPoint: bp,
		Type:        c.Type.Conj(),
		PRange:      c.PRange,
		Periodic:    c.Periodic,
		visibility:  vis,
	}
}

// Shift returns the cut translated by dz.
func (c *Cut) Shift(dz complex128) *Cut {
	path := make([]complex128, len(c.Path))
	for i, z := range c.Path {
		path[i] = z + dz
	}
	bp := clonePoint(c.BranchPoint)
	if bp != nil {
		*bp += dz
	}
	out := *c
	out.Path = path
	out.BranchPoint = bp
	return &out
}

// ShiftConj conjugates the cut about the horizontal line through dz,
// mapping each z to conj(z − dz) + dz. Used for conjugate images living on
// a shifted copy of the u plane.
func (c *Cut) ShiftConj(dz complex128) *Cut {
	path := make([]complex128, len(c.Path))
	for i, z := range c.Path {
		path[i] = cmplx.Conj(z-dz) + dz
	}
	vis := make([]VisibilityCondition, len(c.visibility))
	for i, v := range c.visibility {
		vis[i] = v.Conj()
	}
	bp := clonePoint(c.BranchPoint)
	if bp != nil {
		*bp = cmplx.Conj(*bp-dz) + dz
	}
	return &Cut{
		Component:   c.Component.Conj(),
		Path:        path,
		BranchPoint: bp,
		Type:        c.Type.Conj(),
		PRange:      c.PRange,
		Periodic:    c.Periodic,
		visibility:  vis,
	}
}

// IsVisible reports whether the cut is active for the given point.
func (c *Cut) IsVisible(pt CutPoint) bool {
	for _, v := range c.visibility {
		if !v.Check(pt) {
			return false
		}
	}
	return true
}

// Intersection tests the straight move z1 → z2 against the cut and returns
// the earliest crossing as the move parameter t ∈ [0, 1] and the crossing
// location. Periodic cuts are also tested against the move shifted by
// n·2i·k/h for n ∈ [−5, 5].
func (c *Cut) Intersection(z1, z2 complex128, consts kinematics.CouplingConstants) (float64, complex128, bool) {
	if !c.Periodic {
		return c.findIntersection(z1, z2)
	}

	period := complex(0, 2.0*float64(consts.K())/consts.H)
	bestT := math.Inf(1)
	var bestZ complex128
	found := false
	for n := -5; n <= 5; n++ {
		shift := complex(float64(n), 0) * period
		if t, z, ok := c.findIntersection(z1+shift, z2+shift); ok && t < bestT {
			bestT, bestZ, found = t, z-shift, true
		}
	}
	if !found {
		return 0, 0, false
	}
	return bestT, bestZ, true
}

func crossProduct(v, w complex128) float64 {
	return real(v)*imag(w) - imag(v)*real(w)
}

// splitPolyline finds the first place where path crosses the split curve
// and returns the index of the crossed path segment together with the
// crossing point.
func splitPolyline(path, split []complex128) (int, complex128, bool) {
	for w := 0; w+1 < len(split); w++ {
		z1 := split[w]
		r := split[w+1] - z1
		for j := 0; j+1 < len(path); j++ {
			q := path[j]
			s := path[j+1] - q

			denom := crossProduct(r, s)
			if denom == 0 {
				continue
			}
			t := crossProduct(q-z1, s) / denom
			u := crossProduct(q-z1, r) / denom
			if t >= 0 && t <= 1 && u >= 0 && u <= 1 {
				return j, z1 + complex(t, 0)*r, true
			}
		}
	}
	return 0, 0, false
}

func (c *Cut) findIntersection(z1, z2 complex128) (float64, complex128, bool) {
	r := z2 - z1

	bestT := math.Inf(1)
	var bestZ complex128
	found := false
	for j := 0; j+1 < len(c.Path); j++ {
		q := c.Path[j]
		s := c.Path[j+1] - q

		denom := crossProduct(r, s)
		if denom == 0 {
			continue
		}
		t := crossProduct(q-z1, s) / denom
		u := crossProduct(q-z1, r) / denom
		if t >= 0 && t <= 1 && u >= 0 && u <= 1 && t < bestT {
			bestT = t
			bestZ = z1 + complex(t, 0)*r
			found = true
		}
	}
	if !found {
		return 0, 0, false
	}
	return bestT, bestZ, true
}
