package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func acceleratorSpec() engine.GridLookupSpec {
	return engine.GridLookupSpec{
		Logic: engine.LogicSteppedAccelerator,
		Bands: []engine.GridBand{
			engine.NewBand(0, 50, 0.5),
			engine.NewBand(50, 100, 1.0),
			engine.NewBand(100, 150, 1.5),
			engine.NewBand(150, 200, 2.0),
		},
	}
}

func gatedSpec(gatePct float64) engine.GridLookupSpec {
	gate := dec(gatePct)
	return engine.GridLookupSpec{
		Logic:   engine.LogicGatedThreshold,
		GatePct: &gate,
		Bands: []engine.GridBand{
			engine.NewBand(0, 100, 1.0),
			engine.NewBand(100, 150, 1.25),
			engine.NewBand(150, 200, 1.5),
		},
	}
}

// =============================================================================
// MULTIPLIER RESOLUTION
// =============================================================================

func TestMultiplier_SteppedBands(t *testing.T) {
	// GIVEN: A four-band accelerator grid
	// WHEN: Resolving achievements inside, on, and beyond band edges
	// THEN: [min, max) semantics hold and the top band is uncapped

	spec := acceleratorSpec()

	cases := []struct {
		achievement float64
		want        float64
	}{
		{0, 0.5},      // lowest band includes its min
		{30, 0.5},     // inside first band
		{49.99, 0.5},  // just under the edge
		{50, 1.0},     // band edge belongs to the next band
		{99.99, 1.0},  // just under the next edge
		{100, 1.5},    // accelerator kicks in exactly at 100
		{150, 2.0},    // top band
		{199.99, 2.0}, // inside top band
		{200, 2.0},    // at the top band's max
		{500, 2.0},    // far beyond: uncapped at the top multiplier
	}
	for _, tc := range cases {
		got := spec.Multiplier(dec(tc.achievement))
		assert.True(t, dec(tc.want).Equal(got),
			"achievement %v: want %v, got %s", tc.achievement, tc.want, got)
	}
}

func TestMultiplier_LinearIgnoresBands(t *testing.T) {
	// GIVEN: A linear spec, even one carrying stray bands
	// WHEN: Resolving any achievement
	// THEN: The multiplier is always exactly 1

	spec := engine.GridLookupSpec{
		Logic: engine.LogicLinear,
		Bands: []engine.GridBand{engine.NewBand(0, 100, 3.0)},
	}

	for _, ach := range []float64{0, 12.5, 100, 240} {
		eq(t, 1, spec.Multiplier(dec(ach)), "linear at %v", ach)
	}
}

func TestMultiplier_GateIsAHardCliff(t *testing.T) {
	// GIVEN: A gated grid with a 40% threshold
	// WHEN: Resolving at, below, and just above the gate
	// THEN: At-or-below pays zero; above resumes normal band lookup

	spec := gatedSpec(40)

	eq(t, 0, spec.Multiplier(dec(0)))
	eq(t, 0, spec.Multiplier(dec(39.99)))
	eq(t, 0, spec.Multiplier(dec(40)), "exactly at the gate is still gated")
	eq(t, 1, spec.Multiplier(dec(40.01)), "just above the gate")
	eq(t, 1.25, spec.Multiplier(dec(120)))

	assert.True(t, spec.Gated(dec(40)))
	assert.False(t, spec.Gated(dec(40.01)))
}

func TestMultiplier_BelowLowestBand(t *testing.T) {
	// GIVEN: A grid whose lowest band starts at 50
	// WHEN: Resolving achievement under 50
	// THEN: The multiplier is zero

	spec := engine.GridLookupSpec{
		Logic: engine.LogicSteppedAccelerator,
		Bands: []engine.GridBand{engine.NewBand(50, 100, 1.0)},
	}

	eq(t, 0, spec.Multiplier(dec(30)))
	eq(t, 1, spec.Multiplier(dec(50)))
}

func TestMultiplier_EmptyBands(t *testing.T) {
	// GIVEN: A stepped spec with no bands
	// WHEN: Resolving
	// THEN: The multiplier is zero rather than a panic or a guess

	spec := engine.GridLookupSpec{Logic: engine.LogicSteppedAccelerator}
	eq(t, 0, spec.Multiplier(dec(80)))
}
