package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

func TestYearMonth_ParseAndString(t *testing.T) {
	ym, err := engine.ParseYearMonth("2026-07")
	require.NoError(t, err)
	assert.Equal(t, month(2026, time.July), ym)
	assert.Equal(t, "2026-07", ym.String())

	_, err = engine.ParseYearMonth("July 2026")
	require.Error(t, err)
}

func TestYearMonth_StartEndNext(t *testing.T) {
	feb := month(2026, time.February)

	assert.Equal(t, date(2026, time.February, 1), feb.Start())
	assert.Equal(t, date(2026, time.February, 28), feb.End(), "2026 is not a leap year")
	assert.Equal(t, month(2026, time.March), feb.Next())
	assert.Equal(t, month(2027, time.January), month(2026, time.December).Next())

	assert.True(t, feb.Contains(date(2026, time.February, 15)))
	assert.False(t, feb.Contains(date(2026, time.March, 1)))
	assert.True(t, month(2026, time.January).Before(feb))
}

func TestPeriod_DayCountInclusive(t *testing.T) {
	// GIVEN: Jan 1 through May 31 of a non-leap year
	// WHEN: Counting days
	// THEN: Both endpoints count; this is the 151 the blender divides by

	p := engine.Period{Start: engine.StartOfYear(2026), End: date(2026, time.May, 31)}
	assert.Equal(t, 151, p.DayCount())
	assert.Equal(t, 365, engine.CalendarYear(2026).DayCount())
	assert.Equal(t, 366, engine.CalendarYear(2028).DayCount())
}

func TestPeriod_Intersect(t *testing.T) {
	year := engine.CalendarYear(2026)

	// A segment spilling past both ends clamps to the year.
	clamped, ok := year.Intersect(engine.Period{
		Start: date(2025, time.November, 1),
		End:   date(2027, time.February, 1),
	})
	require.True(t, ok)
	assert.Equal(t, engine.StartOfYear(2026), clamped.Start)
	assert.Equal(t, engine.EndOfYear(2026), clamped.End)

	// A wholly prior-year span does not intersect.
	_, ok = year.Intersect(engine.CalendarYear(2024))
	assert.False(t, ok)
}

func TestTimePoint_Ordering(t *testing.T) {
	a := date(2026, time.May, 31)
	b := date(2026, time.June, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.False(t, a.Equal(b))
	assert.Equal(t, "2026-05-31", a.String())
	assert.Equal(t, b, a.AddDays(1))
	assert.True(t, engine.TimePoint{}.IsZero())
}
