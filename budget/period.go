package budget

// =============================================================================
// PERIOD - Half-open cycle interval
// =============================================================================

// Period is one cycle: the half-open interval [Start, End) of fixed length,
// tiled from the owner's anchor date. Everything the engine computes is
// keyed by Period.Start.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date falls within [Start, End).
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.Before(p.End)
}

// LengthDays returns the cycle length in days.
func (p Period) LengthDays() int { return DaysBetween(p.Start, p.End) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + ")"
}

// =============================================================================
// PERIOD RESOLVER
// =============================================================================

// ResolvePeriod maps a point in time to a cycle. With offset 0 it returns the
// cycle containing at; offset ±n walks n cycles forward/backward from there.
//
// Dates before the anchor clamp to the anchor's own cycle (period index 0):
// the tiling does not extend into the past, matching how the source data is
// anchored at first use.
//
// Pure and total for valid settings; callers validate Settings first.
func ResolvePeriod(settings Settings, at Date, offset int) Period {
	daysSinceAnchor := DaysBetween(settings.AnchorDate, at)
	if daysSinceAnchor < 0 {
		daysSinceAnchor = 0
	}

	periodIndex := daysSinceAnchor/settings.CycleLengthDays + offset
	start := settings.AnchorDate.AddDays(periodIndex * settings.CycleLengthDays)
	return Period{
		Start: start,
		End:   start.AddDays(settings.CycleLengthDays),
	}
}

// PeriodContaining is shorthand for ResolvePeriod with offset 0.
func (s Settings) PeriodContaining(at Date) Period {
	return ResolvePeriod(s, at, 0)
}

// NextPeriod returns the cycle immediately after p.
func (p Period) NextPeriod() Period {
	length := p.LengthDays()
	return Period{Start: p.End, End: p.End.AddDays(length)}
}

// PreviousPeriod returns the cycle immediately before p.
func (p Period) PreviousPeriod() Period {
	length := p.LengthDays()
	return Period{Start: p.Start.AddDays(-length), End: p.Start}
}
