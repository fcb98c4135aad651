package scheduling

import "time"

// DefaultCutoff is the local time-of-day after which same-day slots are no
// longer offered.
const DefaultCutoff = 8*time.Hour + 30*time.Minute

// Gate decides whether discrete time slots are offered for a date.
type Gate struct {
	cutoff time.Duration
	loc    *time.Location
	now    func() time.Time
}

// NewGate builds a gate. A non-positive cutoff means DefaultCutoff, a nil
// location means time.Local, and a nil clock means time.Now.
func NewGate(cutoff time.Duration, loc *time.Location, now func() time.Time) *Gate {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{cutoff: cutoff, loc: loc, now: now}
}

func (g *Gate) Cutoff() time.Duration { return g.cutoff }

// Today is the current calendar day in the gate's location.
func (g *Gate) Today() Date {
	return DateOf(g.now().In(g.loc))
}

// MinSelectableDate is the earliest date a picker should offer.
func (g *Gate) MinSelectableDate() Date {
	return g.Today().AddDays(1)
}

// SlotsAvailable is false only when d is today and the current time, at
// minute granularity, is at or past the cutoff.
func (g *Gate) SlotsAvailable(d Date) bool {
	now := g.now().In(g.loc)
	if d != DateOf(now) {
		return true
	}
	elapsed := time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute
	return elapsed < g.cutoff
}
