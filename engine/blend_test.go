package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func segment(target float64, start, end engine.TimePoint) engine.TargetSegment {
	return engine.TargetSegment{
		EmployeeID:     "emp-1",
		PlanID:         "plan-1",
		TargetBonusUSD: dec(target),
		EffectiveStart: start,
		EffectiveEnd:   end,
	}
}

func year2026() engine.Period {
	return engine.CalendarYear(2026)
}

// =============================================================================
// TARGET BLENDING
// =============================================================================

func TestBlendTargets_MidYearChange(t *testing.T) {
	// GIVEN: Target moves from $20k to $24k effective June 1 of a 365-day year
	// WHEN: Blending for July, past the boundary
	// THEN: The effective target is the day-weighted average, not either raw
	//   segment value

	segments := []engine.TargetSegment{
		segment(20_000, engine.StartOfYear(2026), date(2026, time.May, 31)),
		segment(24_000, date(2026, time.June, 1), engine.EndOfYear(2026)),
	}

	res, err := engine.BlendTargets(segments, year2026(), month(2026, time.July))
	require.NoError(t, err)

	assert.True(t, res.IsBlended)
	assert.Equal(t, 2, res.SegmentsInYear)
	// 20000 x 151/365 + 24000 x 214/365 = 22345.2054...
	assert.True(t, dec(22_345.21).Equal(res.EffectiveTargetUSD.Round(2)),
		"want 22345.21, got %s", res.EffectiveTargetUSD.Round(2))
}

func TestBlendTargets_BeforeBoundaryUsesActiveSegment(t *testing.T) {
	// GIVEN: The same mid-year change
	// WHEN: Blending for March, before the June 1 boundary
	// THEN: The first segment's raw target governs and nothing is blended yet

	segments := []engine.TargetSegment{
		segment(20_000, engine.StartOfYear(2026), date(2026, time.May, 31)),
		segment(24_000, date(2026, time.June, 1), engine.EndOfYear(2026)),
	}

	res, err := engine.BlendTargets(segments, year2026(), month(2026, time.March))
	require.NoError(t, err)

	assert.False(t, res.IsBlended)
	eq(t, 20_000, res.EffectiveTargetUSD)
}

func TestBlendTargets_BoundaryMonthItselfBlends(t *testing.T) {
	// GIVEN: The boundary falls on June 1
	// WHEN: Blending for June, whose first day is the boundary
	// THEN: June is already past the boundary, so it blends

	segments := []engine.TargetSegment{
		segment(20_000, engine.StartOfYear(2026), date(2026, time.May, 31)),
		segment(24_000, date(2026, time.June, 1), engine.EndOfYear(2026)),
	}

	res, err := engine.BlendTargets(segments, year2026(), month(2026, time.June))
	require.NoError(t, err)
	assert.True(t, res.IsBlended)
}

func TestBlendTargets_SingleSegment(t *testing.T) {
	// GIVEN: One full-year segment
	// WHEN: Blending for any month
	// THEN: The raw target passes through unblended

	segments := []engine.TargetSegment{
		segment(20_000, engine.StartOfYear(2026), engine.EndOfYear(2026)),
	}

	res, err := engine.BlendTargets(segments, year2026(), month(2026, time.October))
	require.NoError(t, err)

	assert.False(t, res.IsBlended)
	assert.Equal(t, 1, res.SegmentsInYear)
	eq(t, 20_000, res.EffectiveTargetUSD)
}

func TestBlendTargets_PriorYearSegmentIgnored(t *testing.T) {
	// GIVEN: A segment that ended last December alongside this year's segment
	// WHEN: Blending
	// THEN: The stale segment does not count and no blending happens

	segments := []engine.TargetSegment{
		segment(15_000, engine.StartOfYear(2025), engine.EndOfYear(2025)),
		segment(20_000, engine.StartOfYear(2026), engine.EndOfYear(2026)),
	}

	res, err := engine.BlendTargets(segments, year2026(), month(2026, time.February))
	require.NoError(t, err)

	assert.False(t, res.IsBlended)
	assert.Equal(t, 1, res.SegmentsInYear)
	eq(t, 20_000, res.EffectiveTargetUSD)
}

func TestBlendTargets_OverlappingSegmentsRejected(t *testing.T) {
	// GIVEN: Two segments sharing June 1
	// WHEN: Blending
	// THEN: The overlap is rejected outright

	segments := []engine.TargetSegment{
		segment(20_000, engine.StartOfYear(2026), date(2026, time.June, 1)),
		segment(24_000, date(2026, time.June, 1), engine.EndOfYear(2026)),
	}

	_, err := engine.BlendTargets(segments, year2026(), month(2026, time.July))
	require.ErrorIs(t, err, engine.ErrSegmentsOverlap)
}

func TestBlendTargets_NoSegments(t *testing.T) {
	// GIVEN: No segments intersect the fiscal year
	// WHEN: Blending
	// THEN: The effective target is zero with no error; the run pays nothing

	res, err := engine.BlendTargets(nil, year2026(), month(2026, time.March))
	require.NoError(t, err)

	assert.True(t, res.EffectiveTargetUSD.IsZero())
	assert.False(t, res.IsBlended)
	assert.Equal(t, 0, res.SegmentsInYear)
}
