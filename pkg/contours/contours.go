package contours

import (
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"sort"

	"github.com/spectralab/zhukovsky/pkg/interpolate"
	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/solver"
)

const (
	pRangeMin = -3
	pRangeMax = 3

	// Cut paths extend to "infinity"; anything past this is irrelevant for
	// intersection tests at the scales the charts are used at.
	infinity = 100.0
)

// BranchPointType identifies which branch point of the Zhukovsky plane a
// cut ends on: the positive-axis point or one of the four negative-axis
// points, distinguished by the side of approach and the sign of Im x⁻.
type BranchPointType int

const (
	XpPositiveAxisImXmNegative BranchPointType = iota
	XpPositiveAxisImXmPositive
	XpNegativeAxisFromAboveWithImXmNegative
	XpNegativeAxisFromBelowWithImXmNegative
	XpNegativeAxisFromAboveWithImXmPositive
	XpNegativeAxisFromBelowWithImXmPositive
)

// BranchPointData is a located branch point: the momentum parameter where
// the x-curve of mass m turns around.
type BranchPointData struct {
	P   float64
	M   float64
	Typ BranchPointType
}

func branchPointMass(pStart, k float64, typ BranchPointType) float64 {
	switch typ {
	case XpPositiveAxisImXmNegative:
		return 2.0*pStart*k + 2.0
	case XpPositiveAxisImXmPositive:
		return -(2.0*pStart*k + 2.0)
	case XpNegativeAxisFromAboveWithImXmNegative:
		return (2.0*pStart+1.0)*k + 2.0
	case XpNegativeAxisFromBelowWithImXmNegative:
		return (2.0*pStart-1.0)*k + 2.0
	case XpNegativeAxisFromAboveWithImXmPositive:
		return -((2.0*pStart+1.0)*k + 2.0)
	default:
		return -((2.0*pStart-1.0)*k + 2.0)
	}
}

// ComputeBranchPoint finds the branch point of the given type for one
// periodicity range by solving the u-plane closure u(x) = ±u(s) + i·m/h
// with Newton's method.
func ComputeBranchPoint(pRange int, typ BranchPointType, consts kinematics.CouplingConstants) (BranchPointData, bool) {
	pStart := float64(pRange)
	k := float64(consts.K())
	s := consts.S()

	uOfX := func(x complex128) complex128 {
		return x + 1.0/x - complex(s-1.0/s, 0)*cmplx.Log(x)
	}
	duDx := func(x complex128) complex128 {
		return (x - complex(s, 0)) * (x + complex(1.0/s, 0)) / (x * x)
	}

	uOfS := uOfX(complex(s, 0))
	switch typ {
	case XpPositiveAxisImXmNegative, XpPositiveAxisImXmPositive:
	default:
		uOfS = -uOfS
	}

	m := branchPointMass(pStart, k, typ)
	guess := kinematics.Xp(complex(0.5, 0), m, consts)

	x, ok := solver.FindRoot(
		func(x complex128) complex128 {
			return uOfX(x) - uOfS - complex(0, m/consts.H)
		},
		duDx,
		guess, 1.0e-3, 10,
	)
	if !ok {
		slog.Info("could not find branch point", "p_range", pRange, "m", m)
		return BranchPointData{}, false
	}

	return BranchPointData{
		P:   math.Abs(cmplx.Phase(x)) / math.Pi,
		M:   m,
		Typ: typ,
	}, true
}

type cutDirection int

const (
	cutDirectionPositive cutDirection = iota
	cutDirectionNegative
)

type xCut int

const (
	xCutScallion xCut = iota
	xCutKidney
)

type genCommand func(*Contours)

type runtimeContext struct {
	pInt        *interpolate.PInterpolator
	eInt        *interpolate.EInterpolator
	branchPoint *BranchPointData

	path           []complex128
	cutBranchPoint *complex128

	// Index into cuts where the most recent push batch started; splitCut
	// re-opens that batch.
	lastPushStart int
}

// buildContext accumulates the component, type and visibility of the cut
// being assembled at command-generation time. A visibility slot may hold
// alternatives (a point strictly between the scallion and the kidney
// satisfies "not outside" through either Between or Inside); pushing the
// cut expands the slots into one cut per combination.
type buildContext struct {
	active     bool
	component  kinematics.Component
	cutType    CutType
	visibility [][]VisibilityCondition
}

func (b *buildContext) clear() {
	b.active = false
	b.visibility = nil
}

// Contours holds the full cut geometry for one value of the coupling
// constants. It is built incrementally: call Update until it reports true,
// polling Progress for completion. A completed value is never mutated by
// the query methods and can be shared freely.
type Contours struct {
	cuts []*Cut

	consts    kinematics.CouplingConstants
	hasConsts bool

	commands []genCommand
	executed int

	rctx runtimeContext
	bctx buildContext
}

// New returns an empty, unbuilt Contours.
func New() *Contours {
	return &Contours{}
}

// Generate builds the full contour set synchronously.
func Generate(consts kinematics.CouplingConstants) *Contours {
	c := New()
	for !c.Update(0, consts) {
	}
	return c
}

// Update executes one bounded construction increment and reports whether
// the build is complete. Passing different coupling constants than the
// previous call discards all work and restarts; pRange centers the build
// order on the range the caller is working in.
func (c *Contours) Update(pRange int, consts kinematics.CouplingConstants) bool {
	if c.hasConsts && c.consts != consts {
		c.hasConsts = false
	}

	if !c.hasConsts {
		c.clear()
		c.consts = consts
		c.hasConsts = true
		c.generateCommands(pRange)
		slog.Debug("generated contour commands", "count", len(c.commands))
	}

	if c.executed < len(c.commands) {
		c.commands[c.executed](c)
		c.executed++
	}

	return c.executed >= len(c.commands)
}

// Progress returns the executed and total command counts.
func (c *Contours) Progress() (int, int) {
	if len(c.commands) == 0 {
		return 0, 1
	}
	return c.executed, len(c.commands)
}

// Cuts returns the built cuts. The slice is shared; callers must not
// modify it.
func (c *Contours) Cuts() []*Cut {
	return c.cuts
}

func (c *Contours) clear() {
	c.cuts = nil
	c.commands = nil
	c.executed = 0
	c.rctx = runtimeContext{}
	c.bctx = buildContext{}
}

// GetVisibleCuts returns the cuts of one chart that are active for the
// given point.
func (c *Contours) GetVisibleCuts(pt CutPoint, component kinematics.Component) []*Cut {
	var out []*Cut
	for _, cut := range c.cuts {
		if cut.Component == component && cut.IsVisible(pt) {
			out = append(out, cut)
		}
	}
	return out
}

// Crossing is a group of cuts crossed at the same parameter along a move.
// A cut and its periodic or conjugate images arrive together.
type Crossing struct {
	T    float64
	Z    complex128
	Cuts []*Cut
}

// crossingGroupTolerance decides when two crossings count as simultaneous.
const crossingGroupTolerance = 1e-9

// GetCrossedCuts returns the visible cuts of one chart crossed by the
// straight move from the point's current value to newValue, ordered by the
// move parameter. In the u chart the comparison happens on the principal
// log sheet, so both endpoints are unshifted by the point's branch offset.
func (c *Contours) GetCrossedCuts(pt CutPoint, component kinematics.Component,
	newValue complex128, consts kinematics.CouplingConstants) []Crossing {
	current := pt.Get(component)
	if component == kinematics.ComponentU {
		sd := pt.Sheet()
		shift := complex(0, 2.0*float64(sd.LogBranchP*consts.K())/consts.H)
		current += shift
		newValue += shift
	}

	type hit struct {
		t   float64
		z   complex128
		cut *Cut
	}
	var hits []hit
	for _, cut := range c.cuts {
		if cut.Component != component || !cut.IsVisible(pt) {
			continue
		}
		if t, z, ok := cut.Intersection(current, newValue, consts); ok {
			hits = append(hits, hit{t, z, cut})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })

	var out []Crossing
	for _, h := range hits {
		if n := len(out); n > 0 && h.t-out[n-1].T < crossingGroupTolerance {
			out[n-1].Cuts = append(out[n-1].Cuts, h.cut)
			continue
		}
		out = append(out, Crossing{T: h.t, Z: h.z, Cuts: []*Cut{h.cut}})
	}
	return out
}

func (c *Contours) generateCommands(pRange int) {
	center := pRange
	if center < pRangeMin {
		center = pRangeMin
	}
	if center > pRangeMax {
		center = pRangeMax
	}

	c.generateCuts(center)
	for i := 1; i <= pRangeMax-pRangeMin; i++ {
		if center-i >= pRangeMin {
			c.generateCuts(center - i)
		}
		if center+i <= pRangeMax {
			c.generateCuts(center + i)
		}
	}
}

func (c *Contours) add(cmd genCommand) *Contours {
	c.commands = append(c.commands, cmd)
	return c
}

func (c *Contours) clearCut() *Contours {
	return c.add(func(c *Contours) {
		c.rctx.path = nil
		c.rctx.cutBranchPoint = nil
	})
}

func (c *Contours) setCutPath(path []complex128, branchPoint *complex128) *Contours {
	return c.add(func(c *Contours) {
		c.rctx.path = path
		c.rctx.cutBranchPoint = clonePoint(branchPoint)
	})
}

func (c *Contours) computeBranchPoint(pRange int, typ BranchPointType) *Contours {
	return c.add(func(c *Contours) {
		if data, ok := ComputeBranchPoint(pRange, typ, c.consts); ok {
			c.rctx.branchPoint = &data
		} else {
			c.rctx.branchPoint = nil
		}
	})
}

func (c *Contours) computeCutX(dir cutDirection) *Contours {
	return c.add(func(c *Contours) {
		c.rctx.path = nil
		c.rctx.cutBranchPoint = nil

		bp := c.rctx.branchPoint
		if bp == nil {
			slog.Warn("no branch point set for cut")
			return
		}

		pStart, pEnd := 0.0, bp.P
		if dir == cutDirectionNegative {
			pStart, pEnd = bp.P, 1.0
		}

		var path []complex128
		switch bp.Typ {
		case XpPositiveAxisImXmNegative,
			XpNegativeAxisFromAboveWithImXmNegative,
			XpNegativeAxisFromBelowWithImXmNegative:
			path = interpolate.GenerateXm(pStart, pEnd, bp.M, c.consts)
		default:
			path = interpolate.GenerateXp(pStart, pEnd, bp.M, c.consts)
		}
		if len(path) == 0 {
			return
		}

		branchPoint := path[len(path)-1]
		if dir == cutDirectionNegative {
			branchPoint = path[0]
		}

		c.rctx.path = path
		c.rctx.cutBranchPoint = &branchPoint
	})
}

func (c *Contours) computeCutXFull(cut xCut) *Contours {
	return c.add(func(c *Contours) {
		c.rctx.path = nil
		c.rctx.cutBranchPoint = nil

		m := 0.0
		bp := complex(c.consts.S(), 0)
		if cut == xCutKidney {
			m = -float64(c.consts.K())
			bp = complex(-1.0/c.consts.S(), 0)
		}

		half := interpolate.GenerateXpFull(0, m, c.consts)
		path := make([]complex128, 0, 2*len(half))
		path = append(path, half...)
		for i := len(half) - 1; i >= 0; i-- {
			path = append(path, cmplx.Conj(half[i]))
		}

		c.rctx.path = path
		c.rctx.cutBranchPoint = &bp
	})
}

// computeCutP appends the momentum interpolator's latest trace to the path
// being assembled; the two-sided p-plane cuts are built from two traces
// meeting at the branch point.
func (c *Contours) computeCutP(reverse bool) *Contours {
	return c.add(func(c *Contours) {
		pInt := c.rctx.pInt
		if pInt == nil {
			return
		}
		trace := pInt.Contour()
		if reverse {
			for i, j := 0, len(trace)-1; i < j; i, j = i+1, j-1 {
				trace[i], trace[j] = trace[j], trace[i]
			}
		}
		c.rctx.path = append(c.rctx.path, trace...)
	})
}

func (c *Contours) eStart(pRange int) *Contours {
	return c.add(func(c *Contours) {
		c.rctx.eInt = interpolate.NewEInterpolator(pRange, c.consts)
	})
}

func (c *Contours) setFromE(get func(*interpolate.EInterpolator) (complex128, []complex128)) {
	c.rctx.path = nil
	c.rctx.cutBranchPoint = nil
	eInt := c.rctx.eInt
	if eInt == nil || !eInt.OK() {
		return
	}
	bp, path := get(eInt)
	c.rctx.path = path
	c.rctx.cutBranchPoint = &bp
}

func (c *Contours) computeCutEP() *Contours {
	return c.add(func(c *Contours) { c.setFromE((*interpolate.EInterpolator).CutP) })
}

func (c *Contours) computeCutEXp() *Contours {
	return c.add(func(c *Contours) { c.setFromE((*interpolate.EInterpolator).CutXp) })
}

func (c *Contours) computeCutEXm() *Contours {
	return c.add(func(c *Contours) { c.setFromE((*interpolate.EInterpolator).CutXm) })
}

func (c *Contours) computeCutEU() *Contours {
	return c.add(func(c *Contours) { c.setFromE((*interpolate.EInterpolator).CutU) })
}

func (c *Contours) pStartXp(p float64) *Contours {
	return c.add(func(c *Contours) {
		c.rctx.pInt = interpolate.NewXp(p, c.consts)
	})
}

func (c *Contours) gotoXp(p, m float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoXp(p, m)
		}
	})
}

func (c *Contours) gotoXm(p, m float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoXm(p, m)
		}
	})
}

func (c *Contours) gotoP(p float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoP(p)
		}
	})
}

func (c *Contours) gotoM(m float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoM(m)
		}
	})
}

func (c *Contours) gotoRe(re float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoRe(re)
		}
	})
}

func (c *Contours) gotoIm(im float64) *Contours {
	return c.add(func(c *Contours) {
		if c.rctx.pInt != nil {
			c.rctx.pInt.GotoIm(im)
		}
	})
}

func (c *Contours) createCut(component kinematics.Component, typ CutType) *Contours {
	if c.bctx.active {
		slog.Warn("new cut created before previous cut was pushed")
	}
	c.bctx.active = true
	c.bctx.component = component
	c.bctx.cutType = typ
	return c
}

func (c *Contours) vis(alternatives ...VisibilityCondition) *Contours {
	c.bctx.visibility = append(c.bctx.visibility, alternatives)
	return c
}

func (c *Contours) logBranch(pRange int) *Contours { return c.vis(LogBranchSum(pRange)) }
func (c *Contours) eBranch(branch int) *Contours   { return c.vis(EBranchIs(branch)) }
func (c *Contours) imXpPositive() *Contours        { return c.vis(ImXp(1)) }
func (c *Contours) imXpNegative() *Contours        { return c.vis(ImXp(-1)) }

func (c *Contours) xpOutside() *Contours { return c.vis(UpBranchIs(kinematics.UBranchOutside)) }
func (c *Contours) xmOutside() *Contours { return c.vis(UmBranchIs(kinematics.UBranchOutside)) }

// A point is inside a curve when its branch index is Between or Inside;
// the slot expands into one cut per alternative.
func (c *Contours) xpInside() *Contours {
	return c.vis(UpBranchIs(kinematics.UBranchBetween), UpBranchIs(kinematics.UBranchInside))
}

func (c *Contours) xmInside() *Contours {
	return c.vis(UmBranchIs(kinematics.UBranchBetween), UmBranchIs(kinematics.UBranchInside))
}

func expandVisibility(slots [][]VisibilityCondition) [][]VisibilityCondition {
	out := [][]VisibilityCondition{nil}
	for _, slot := range slots {
		var next [][]VisibilityCondition
		for _, prefix := range out {
			for _, alt := range slot {
				combo := make([]VisibilityCondition, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, alt))
			}
		}
		out = next
	}
	return out
}

func (c *Contours) pushCut(pRange int) *Contours {
	if !c.bctx.active {
		slog.Warn("cannot push cut that was never created")
		c.bctx.clear()
		return c
	}
	component := c.bctx.component
	typ := c.bctx.cutType
	combos := expandVisibility(c.bctx.visibility)

	c.add(func(c *Contours) {
		c.rctx.lastPushStart = len(c.cuts)
		for _, visibility := range combos {
			c.execPushCut(pRange, component, typ, visibility)
		}
	})
	c.bctx.clear()
	return c
}

func (c *Contours) execPushCut(pRange int, component kinematics.Component,
	typ CutType, visibility []VisibilityCondition) {
	// A one-point path means the interpolation never left its start; such a
	// cut has no crossable geometry.
	if len(c.rctx.path) < 2 {
		slog.Warn("no usable path for cut", "type", typ.String(),
			"p_range", pRange, "points", len(c.rctx.path))
		return
	}

	var shift complex128
	if component == kinematics.ComponentU {
		shift = complex(0, float64(pRange*c.consts.K())/c.consts.H)
	}

	path := make([]complex128, len(c.rctx.path))
	copy(path, c.rctx.path)

	periodic := component == kinematics.ComponentU
	cut := NewCut(component, path, clonePoint(c.rctx.cutBranchPoint), typ, pRange, periodic, visibility)

	c.cuts = append(c.cuts, cut.Conj().Shift(shift), cut.Shift(shift))
}

// splitCut splits the cuts of the most recent push batch at their first
// intersection with the path currently being assembled. The piece beyond
// the intersection flips its u-branch visibility on the given Zhukovsky
// side, so for any sheet exactly one of the two pieces is active. Without
// the split a point whose u branch disagrees with the near piece could
// never cross the cut at all.
func (c *Contours) splitCut(pRange int, component kinematics.Component) *Contours {
	return c.add(func(c *Contours) {
		start := c.rctx.lastPushStart
		if len(c.rctx.path) < 2 || start+1 >= len(c.cuts) {
			return
		}
		batch := c.cuts[start:]
		c.cuts = c.cuts[:start]

		var shift complex128
		if batch[1].Component == kinematics.ComponentU {
			shift = complex(0, float64(pRange*c.consts.K())/c.consts.H)
		}

		splitter := make([]complex128, len(c.rctx.path))
		for i, z := range c.rctx.path {
			if component == kinematics.ComponentXp {
				splitter[i] = z + shift
			} else {
				splitter[i] = cmplx.Conj(z) + shift
			}
		}

		// The direct cuts of the batch share one geometry, so the split
		// point is computed once; the conjugate images are rebuilt from the
		// pieces.
		j, x, ok := splitPolyline(batch[1].Path, splitter)
		if !ok {
			slog.Debug("no intersection found for split",
				"p_range", pRange, "type", batch[1].Type.String())
			c.cuts = append(c.cuts, batch...)
			return
		}

		flipKind := visUmBranch
		if component == kinematics.ComponentXp {
			flipKind = visUpBranch
		}

		type flipGroup struct {
			rest []VisibilityCondition
			seen map[kinematics.UBranch]bool
		}
		groups := map[string]*flipGroup{}
		var order []string

		for i := 1; i < len(batch); i += 2 {
			cut := batch[i]

			near := make([]complex128, 0, j+2)
			near = append(near, cut.Path[:j+1]...)
			near = append(near, x)
			kept := *cut
			kept.Path = near
			c.cuts = append(c.cuts, kept.ShiftConj(shift), &kept)

			g := &flipGroup{seen: map[kinematics.UBranch]bool{}}
			for _, v := range cut.visibility {
				if v.kind == flipKind {
					g.seen[v.uBranch] = true
				} else {
					g.rest = append(g.rest, v)
				}
			}
			key := fmt.Sprint(g.rest)
			if prev, found := groups[key]; found {
				for b := range g.seen {
					prev.seen[b] = true
				}
				continue
			}
			groups[key] = g
			order = append(order, key)
		}

		far := make([]complex128, 0, len(batch[1].Path)-j+1)
		far = append(far, x)
		far = append(far, batch[1].Path[j+1:]...)

		template := batch[1]
		pushFar := func(vis []VisibilityCondition) {
			cut := NewCut(template.Component, append([]complex128(nil), far...), nil,
				template.Type, pRange, template.Periodic, vis)
			c.cuts = append(c.cuts, cut.ShiftConj(shift), cut)
		}

		for _, key := range order {
			g := groups[key]
			if len(g.seen) == 0 {
				pushFar(g.rest)
				continue
			}
			for _, b := range branchComplement(g.seen) {
				cond := UmBranchIs(b)
				if component == kinematics.ComponentXp {
					cond = UpBranchIs(b)
				}
				vis := make([]VisibilityCondition, len(g.rest), len(g.rest)+1)
				copy(vis, g.rest)
				pushFar(append(vis, cond))
			}
		}
	})
}

func branchComplement(seen map[kinematics.UBranch]bool) []kinematics.UBranch {
	var out []kinematics.UBranch
	for _, b := range []kinematics.UBranch{
		kinematics.UBranchOutside, kinematics.UBranchBetween, kinematics.UBranchInside,
	} {
		if !seen[b] {
			out = append(out, b)
		}
	}
	return out
}

// uSpur is the u value of the Zhukovsky point x = s, where the u-chart
// log and short cuts terminate.
func (c *Contours) uSpur() float64 {
	s := c.consts.S()
	return s + 1.0/s - (s-1.0/s)*math.Log(s)
}

// generateCuts queues the construction of every cut family for one
// periodicity range: the log cuts, the long and short u cuts in all four
// charts, and the energy cuts.
func (c *Contours) generateCuts(pRange int) {
	c.generateLogCuts(pRange)
	c.generateULongPositiveCuts(pRange)
	c.generateULongNegativeCuts(pRange)
	c.generateScallionCuts(pRange)
	c.generateKidneyCuts(pRange)
	c.generateECuts(pRange)
}

func (c *Contours) generateLogCuts(pRange int) {
	pStart := float64(pRange)
	k := float64(c.consts.K())
	h := c.consts.H
	us := c.uSpur()

	zero := complex(0, 0)
	uLineAbove := -(1.0 + (pStart+1.0)*k) / h
	uLineBelow := -(1.0 + (pStart-1.0)*k) / h

	c.clearCut().
		setCutPath([]complex128{complex(-infinity, 0), zero}, &zero).
		createCut(kinematics.ComponentXp, LogTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	for _, typ := range []BranchPointType{
		XpNegativeAxisFromAboveWithImXmNegative,
		XpNegativeAxisFromAboveWithImXmPositive,
		XpNegativeAxisFromBelowWithImXmNegative,
		XpNegativeAxisFromBelowWithImXmPositive,
	} {
		c.clearCut().
			computeBranchPoint(pRange, typ).
			computeCutX(cutDirectionNegative).
			createCut(kinematics.ComponentXm, LogTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			xpInside().
			pushCut(pRange)
	}

	for _, y := range []float64{uLineAbove, uLineBelow} {
		bp := complex(-us, y)
		c.clearCut().
			setCutPath([]complex128{complex(-infinity, y), bp}, &bp).
			createCut(kinematics.ComponentU, LogTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			xpInside().
			pushCut(pRange)
	}

	c.clearCut().
		pStartXp(pStart+7.0/8.0).
		gotoM(-pStart*k+1.0).
		gotoIm(0.0).
		gotoRe(-c.consts.S()*4.0).
		computeCutP(false).
		createCut(kinematics.ComponentP, LogTyp(kinematics.ComponentXp)).
		eBranch(1).
		pushCut(pRange)
}

func (c *Contours) generateULongPositiveCuts(pRange int) {
	pStart := float64(pRange)
	k := float64(c.consts.K())
	h := c.consts.H
	us := c.uSpur()

	zero := complex(0, 0)
	sPoint := complex(c.consts.S(), 0)
	uLine := -(1.0 + pStart*k) / h

	c.clearCut().
		setCutPath([]complex128{zero, complex(infinity, 0)}, &sPoint).
		createCut(kinematics.ComponentXp, ULongPositiveTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	for _, typ := range []BranchPointType{
		XpPositiveAxisImXmNegative,
		XpPositiveAxisImXmPositive,
	} {
		c.clearCut().
			computeBranchPoint(pRange, typ).
			computeCutX(cutDirectionPositive).
			createCut(kinematics.ComponentXm, ULongPositiveTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	uLongBp := complex(us, uLine)
	c.clearCut().
		setCutPath([]complex128{complex(infinity, uLine), uLongBp}, &uLongBp).
		createCut(kinematics.ComponentU, ULongPositiveTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	c.clearCut().
		pStartXp(pStart+1.0/8.0).
		gotoM(-pStart*k+1.0).
		gotoIm(0.0).
		gotoRe(real(sPoint)*4.0).
		computeCutP(false).
		createCut(kinematics.ComponentP, ULongPositiveTyp(kinematics.ComponentXp)).
		eBranch(1).
		pushCut(pRange)

	c.createCut(kinematics.ComponentP, LogTyp(kinematics.ComponentXm)).
		eBranch(-1).
		pushCut(pRange)

	c.createCut(kinematics.ComponentP, ULongNegativeTyp(kinematics.ComponentXm)).
		eBranch(-1).
		pushCut(pRange)
}

func (c *Contours) generateULongNegativeCuts(pRange int) {
	pStart := float64(pRange)
	k := float64(c.consts.K())
	s := c.consts.S()
	h := c.consts.H
	us := c.uSpur()

	zero := complex(0, 0)
	kidneyPoint := complex(-1.0/s, 0)
	uLineAbove := -(1.0 + (pStart+1.0)*k) / h
	uLineBelow := -(1.0 + (pStart-1.0)*k) / h

	c.clearCut().
		setCutPath([]complex128{complex(-infinity, 0), zero}, &kidneyPoint).
		createCut(kinematics.ComponentXp, ULongNegativeTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	for _, bp := range []struct {
		typ   BranchPointType
		above bool
	}{
		{XpNegativeAxisFromAboveWithImXmNegative, true},
		{XpNegativeAxisFromAboveWithImXmPositive, true},
		{XpNegativeAxisFromBelowWithImXmNegative, false},
		{XpNegativeAxisFromBelowWithImXmPositive, false},
	} {
		c.clearCut().
			computeBranchPoint(pRange, bp.typ).
			computeCutX(cutDirectionNegative).
			createCut(kinematics.ComponentXm, ULongNegativeTyp(kinematics.ComponentXp)).
			logBranch(pRange)
		if bp.above {
			c.imXpPositive()
		} else {
			c.imXpNegative()
		}
		c.pushCut(pRange)
	}

	for _, line := range []struct {
		y     float64
		above bool
	}{
		{uLineAbove, true},
		{uLineBelow, false},
	} {
		bp := complex(-us, line.y)
		c.clearCut().
			setCutPath([]complex128{complex(-infinity, line.y), bp}, &bp).
			createCut(kinematics.ComponentU, ULongNegativeTyp(kinematics.ComponentXp)).
			logBranch(pRange)
		if line.above {
			c.imXpPositive()
		} else {
			c.imXpNegative()
		}
		c.pushCut(pRange)
	}

	c.clearCut().
		pStartXp(pStart+7.0/8.0).
		gotoM(-pStart*k+1.0).
		gotoIm(0.0).
		gotoRe(-s*4.0).
		computeCutP(false).
		createCut(kinematics.ComponentP, ULongNegativeTyp(kinematics.ComponentXp)).
		eBranch(1).
		pushCut(pRange)

	c.createCut(kinematics.ComponentP, ULongPositiveTyp(kinematics.ComponentXm)).
		eBranch(-1).
		pushCut(pRange)
}

func (c *Contours) generateScallionCuts(pRange int) {
	pStart := float64(pRange)
	k := float64(c.consts.K())
	h := c.consts.H
	us := c.uSpur()
	uLine := -(1.0 + pStart*k) / h

	c.clearCut().
		computeCutXFull(xCutScallion).
		createCut(kinematics.ComponentXp, UShortScallionTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	// At pRange 0 and -1 the x⁻-side images and the u-chart line cross the
	// energy cut; they are added in the energy block, where they split it.
	if pRange != 0 {
		c.clearCut().
			computeBranchPoint(pRange, XpPositiveAxisImXmPositive).
			computeCutX(cutDirectionNegative).
			createCut(kinematics.ComponentXm, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	if pRange != -1 {
		c.clearCut().
			computeBranchPoint(pRange, XpPositiveAxisImXmNegative).
			computeCutX(cutDirectionNegative).
			createCut(kinematics.ComponentXm, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	if pRange != 0 && pRange != -1 {
		scallionUBp := complex(us, uLine)
		c.clearCut().
			setCutPath([]complex128{complex(-infinity, uLine), scallionUBp}, &scallionUBp).
			createCut(kinematics.ComponentU, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	p0 := pStart + 1.0/8.0
	p1 := pStart + 7.0/8.0

	c.clearCut().
		pStartXp(p0).
		gotoM(-pStart * k).
		computeCutP(true).
		pStartXp(p0).
		gotoXm(p0, 1.0).
		gotoM(-pStart * k).
		computeCutP(false).
		createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXp)).
		eBranch(1).
		pushCut(pRange)

	c.createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXm)).
		eBranch(-1).
		pushCut(pRange)

	if pRange == 0 {
		c.clearCut().
			pStartXp(p0).
			gotoM(3.0).
			gotoP(p1).
			gotoM(0.0).
			computeCutP(false).
			createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXp)).
			eBranch(1).
			pushCut(pRange)

		c.createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXm)).
			eBranch(-1).
			pushCut(pRange)
	}
}

func (c *Contours) generateKidneyCuts(pRange int) {
	pStart := float64(pRange)
	k := float64(c.consts.K())
	h := c.consts.H
	us := c.uSpur()

	uLineAbove := -(1.0 + (pStart+1.0)*k) / h
	uLineBelow := -(1.0 + (pStart-1.0)*k) / h
	p0 := pStart + 1.0/8.0
	p1 := pStart + 7.0/8.0

	c.clearCut().
		computeCutXFull(xCutKidney).
		createCut(kinematics.ComponentXp, UShortKidneyTyp(kinematics.ComponentXp)).
		logBranch(pRange).
		pushCut(pRange)

	for _, typ := range []BranchPointType{
		XpNegativeAxisFromAboveWithImXmNegative,
		XpNegativeAxisFromAboveWithImXmPositive,
		XpNegativeAxisFromBelowWithImXmNegative,
		XpNegativeAxisFromBelowWithImXmPositive,
	} {
		c.clearCut().
			computeBranchPoint(pRange, typ).
			computeCutX(cutDirectionPositive).
			createCut(kinematics.ComponentXm, UShortKidneyTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			xpInside().
			pushCut(pRange)
	}

	for _, y := range []float64{uLineAbove, uLineBelow} {
		bp := complex(-us, y)
		c.clearCut().
			setCutPath([]complex128{complex(infinity, y), bp}, &bp).
			createCut(kinematics.ComponentU, UShortKidneyTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			xpInside().
			pushCut(pRange)
	}

	kidneyM := -(pStart + 1.0) * k
	if pRange != 0 {
		c.clearCut().
			pStartXp(p0).
			gotoM(kidneyM).
			computeCutP(true).
			pStartXp(p0).
			gotoXm(p0, 1.0).
			gotoP(p1).
			gotoM(kidneyM).
			computeCutP(false).
			createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXp)).
			eBranch(1).
			pushCut(pRange)

		c.createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXm)).
			eBranch(-1).
			pushCut(pRange)
	} else {
		c.clearCut().
			pStartXp(p0).
			gotoM(kidneyM).
			computeCutP(true).
			createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXp)).
			eBranch(1).
			pushCut(pRange)

		c.createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXm)).
			eBranch(-1).
			pushCut(pRange)

		c.clearCut().
			pStartXp(p0).
			gotoXm(p0, 1.0).
			gotoP(p1).
			gotoM(kidneyM).
			computeCutP(false).
			createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXp)).
			eBranch(1).
			pushCut(pRange)

		c.createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXm)).
			eBranch(-1).
			pushCut(pRange)
	}

	if pRange == -1 {
		c.clearCut().
			pStartXp(p0).
			gotoM(-k+1.0).
			gotoP(pStart+6.0/8.0).
			gotoM(-k+3.0).
			gotoP(p0).
			gotoM(0.0).
			computeCutP(false).
			createCut(kinematics.ComponentP, UShortKidneyTyp(kinematics.ComponentXp)).
			eBranch(1).
			pushCut(pRange)

		c.createCut(kinematics.ComponentP, UShortScallionTyp(kinematics.ComponentXm)).
			eBranch(-1).
			pushCut(pRange)
	}
}

func (c *Contours) generateECuts(pRange int) {
	k := float64(c.consts.K())
	h := c.consts.H
	us := c.uSpur()
	uLine := -(1.0 + float64(pRange)*k) / h

	c.eStart(pRange)

	c.computeCutEP().
		createCut(kinematics.ComponentP, ETyp()).
		pushCut(pRange)

	c.computeCutEXp().
		createCut(kinematics.ComponentXp, ETyp()).
		logBranch(pRange)
	if pRange > 0 {
		c.xmOutside()
	} else {
		c.xmInside()
	}
	c.pushCut(pRange)

	if pRange == 0 {
		// The x⁻-side scallion image crosses this energy cut; split the cut
		// there so the piece beyond it is active on the outside u branch,
		// then add the image itself.
		c.computeBranchPoint(pRange, XpPositiveAxisImXmPositive).
			computeCutX(cutDirectionNegative).
			splitCut(pRange, kinematics.ComponentXm).
			createCut(kinematics.ComponentXm, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	c.computeCutEXm().
		createCut(kinematics.ComponentXm, ETyp()).
		logBranch(pRange)
	switch {
	case pRange == 0:
		c.xpInside()
	case pRange > 0:
		c.xpInside().xmOutside()
	default:
		c.xpOutside()
	}
	c.pushCut(pRange)

	if pRange == -1 {
		c.computeBranchPoint(pRange, XpPositiveAxisImXmNegative).
			computeCutX(cutDirectionNegative).
			splitCut(pRange, kinematics.ComponentXp).
			createCut(kinematics.ComponentXm, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}

	c.computeCutEU().
		createCut(kinematics.ComponentU, ETyp()).
		logBranch(pRange)
	switch {
	case pRange == 0:
		c.xpInside().xmInside()
	case pRange > 0:
		c.xpInside().xmOutside()
	default:
		c.xpOutside().xmInside()
	}
	c.pushCut(pRange)

	if pRange == 0 || pRange == -1 {
		side := kinematics.ComponentXm
		if pRange == -1 {
			side = kinematics.ComponentXp
		}
		scallionUBp := complex(us, uLine)
		c.setCutPath([]complex128{complex(-infinity, uLine), scallionUBp}, &scallionUBp).
			splitCut(pRange, side).
			createCut(kinematics.ComponentU, UShortScallionTyp(kinematics.ComponentXp)).
			logBranch(pRange).
			pushCut(pRange)
	}
}
