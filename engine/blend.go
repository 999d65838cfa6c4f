/*
blend.go - Pro-rata target blending across mid-year segments

PURPOSE:
  An employee's target bonus can change mid-year (promotion, transfer,
  comp revision). Each stretch is a TargetSegment. Once an evaluation
  month falls after a segment boundary, the effective annual target is the
  day-weighted average of every segment's target across the fiscal year:

    effective = sum(segment target x segment days in year / total days)

  Evaluation months BEFORE the first boundary still see the single active
  segment's raw target, unblended. A segment change effective on the
  fiscal year's first day is not a blend either - blending requires two
  or more segments each contributing at least one day to the year.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARGET SEGMENT
// =============================================================================

// TargetSegment is one time-bounded target assignment. Segments for one
// employee/year are contiguous and non-overlapping, and become immutable
// once a payout period referencing them is locked.
type TargetSegment struct {
	EmployeeID     EmployeeID
	PlanID         PlanID
	TargetBonusUSD decimal.Decimal
	EffectiveStart TimePoint
	EffectiveEnd   TimePoint
}

func (s TargetSegment) span() Period {
	return Period{Start: s.EffectiveStart, End: s.EffectiveEnd}
}

// =============================================================================
// BLEND RESULT
// =============================================================================

type BlendResult struct {
	EffectiveTargetUSD decimal.Decimal
	IsBlended          bool
	SegmentsInYear     int
}

// =============================================================================
// BLENDER
// =============================================================================

type clampedSegment struct {
	seg  TargetSegment
	span Period
}

// BlendTargets resolves the effective annual target bonus for an evaluation
// month. Segments wholly outside the fiscal year are ignored.
func BlendTargets(segments []TargetSegment, fiscalYear Period, evalMonth YearMonth) (BlendResult, error) {
	var inYear []clampedSegment
	for _, s := range segments {
		span, ok := fiscalYear.Intersect(s.span())
		if !ok {
			continue
		}
		inYear = append(inYear, clampedSegment{seg: s, span: span})
	}
	if len(inYear) == 0 {
		return BlendResult{EffectiveTargetUSD: decimal.Zero}, nil
	}

	sort.Slice(inYear, func(i, j int) bool {
		return inYear[i].span.Start.Before(inYear[j].span.Start)
	})
	for i := 1; i < len(inYear); i++ {
		if !inYear[i].span.Start.After(inYear[i-1].span.End) {
			return BlendResult{}, ErrSegmentsOverlap
		}
	}

	if len(inYear) == 1 {
		return BlendResult{
			EffectiveTargetUSD: inYear[0].seg.TargetBonusUSD,
			IsBlended:          false,
			SegmentsInYear:     1,
		}, nil
	}

	// Blending only activates once the evaluation month has crossed a
	// segment boundary; before that the single active segment governs.
	firstBoundary := inYear[1].span.Start
	if evalMonth.Start().Before(firstBoundary) {
		return BlendResult{
			EffectiveTargetUSD: activeSegment(inYear[0].seg, inYear, evalMonth).TargetBonusUSD,
			IsBlended:          false,
			SegmentsInYear:     len(inYear),
		}, nil
	}

	totalDays := decimal.NewFromInt(int64(fiscalYear.DayCount()))
	effective := decimal.Zero
	for _, c := range inYear {
		days := decimal.NewFromInt(int64(c.span.DayCount()))
		effective = effective.Add(c.seg.TargetBonusUSD.Mul(days).Div(totalDays))
	}

	return BlendResult{
		EffectiveTargetUSD: effective,
		IsBlended:          true,
		SegmentsInYear:     len(inYear),
	}, nil
}

func activeSegment(fallback TargetSegment, inYear []clampedSegment, evalMonth YearMonth) TargetSegment {
	for _, c := range inYear {
		if c.span.Contains(evalMonth.Start()) {
			return c.seg
		}
	}
	return fallback
}
