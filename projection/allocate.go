package projection

import (
	"github.com/warp/timecard-engine/timecard"
)

// need holds the minutes still to place, indexed by tier.
type need [4]int

func (n need) total() int { return n[0] + n[1] + n[2] + n[3] }

// night returns the wanted minutes that must land in the night window.
func (n need) night() int { return n[timecard.Tier75] + n[timecard.Tier125] }

// only keeps the given tiers.
func (n need) only(tiers ...timecard.Tier) need {
	var out need
	for _, t := range tiers {
		out[t] = n[t]
	}
	return out
}

type week struct {
	key   string
	days  []*dayPlan // weekdays with windows, date order
	accum int        // weekday overtime minutes allocated so far
	last  int        // index in days of the last allocated day, -1 if none
}

type allocState struct {
	cap    int
	cutoff int

	remaining need
	sundays   []*dayPlan
	weeks     []*week
}

func newAllocState(plans []*dayPlan, s *timecard.Settings, req Aggregates) *allocState {
	st := &allocState{
		cap:    s.WeeklyCapMinutes(),
		cutoff: s.NightStartMinutes(),
	}
	for _, t := range timecard.Tiers {
		st.remaining[t] = req.Tier(t)
	}

	byKey := map[string]*week{}
	for _, p := range plans {
		if len(p.windows) == 0 {
			continue
		}
		if p.sunday {
			st.sundays = append(st.sundays, p)
			continue
		}
		w, ok := byKey[p.week]
		if !ok {
			w = &week{key: p.week, last: -1}
			byKey[p.week] = w
			st.weeks = append(st.weeks, w)
		}
		w.days = append(w.days, p)
	}
	return st
}

// =============================================================================
// PHASES
// =============================================================================

// allocateSundays places 125 and 100 minutes on Sundays. Sunday minutes do
// not feed the weekly accumulator.
func (st *allocState) allocateSundays() {
	for _, p := range st.sundays {
		want := st.remaining.only(timecard.Tier100, timecard.Tier125)
		if want.total() == 0 {
			return
		}
		st.place(p, want, nil)
	}
}

// allocateWeekdays fills each week in date order with 75 and 50 minutes
// until the weekly cap is reached.
func (st *allocState) allocateWeekdays() {
	for _, w := range st.weeks {
		for i, p := range w.days {
			want := st.remaining.only(timecard.Tier50, timecard.Tier75)
			if want.total() == 0 {
				return
			}
			if st.cap > 0 && w.accum >= st.cap {
				break
			}
			if st.place(p, want, &w.accum) > 0 {
				w.last = i
			}
		}
	}
}

// allocateAfterCap places weekday 125 and 100 minutes. They only exist past
// the cap, so only weeks that reached it can take them, starting at their
// last allocated day.
func (st *allocState) allocateAfterCap() {
	if st.cap == 0 {
		return
	}
	for _, w := range st.weeks {
		if w.accum < st.cap || w.last < 0 {
			continue
		}
		for i := w.last; i < len(w.days); i++ {
			want := st.remaining.only(timecard.Tier100, timecard.Tier125)
			if want.total() == 0 {
				return
			}
			if st.place(w.days[i], want, &w.accum) > 0 {
				w.last = i
			}
		}
	}
}

// place allocates as many wanted minutes as possible on p and returns the
// count. accum is nil for Sundays.
func (st *allocState) place(p *dayPlan, want need, accum *int) int {
	a := 0
	if accum != nil {
		a = *accum
	}
	anchor, ok := st.chooseAnchor(p, want, a)
	if !ok {
		return 0
	}
	taken := st.walk(p, anchor, &want, &a, true)
	if accum != nil {
		*accum = a
	}
	return taken
}

// walk grows p backward from anchor while the next minute lands in a
// wanted tier. With commit false it only counts.
func (st *allocState) walk(p *dayPlan, anchor int, want *need, accum *int, commit bool) int {
	capacity := p.capacity(anchor)
	n := p.count
	local := *want
	a := *accum
	var got timecard.Buckets
	for n < capacity {
		tier := timecard.TierFor(anchor-1-n, p.sunday, a, st.cap, st.cutoff)
		if local[tier] == 0 {
			break
		}
		local[tier]--
		got.AddTier(tier, 1)
		n++
		if !p.sunday {
			a++
		}
	}
	taken := n - p.count
	if commit && taken > 0 {
		*want = local
		*accum = a
		p.anchor, p.count = anchor, n
		p.tiers = p.tiers.Add(got)
		for _, t := range timecard.Tiers {
			st.remaining[t] -= got.Get(t)
		}
	}
	return taken
}

// chooseAnchor picks the clock-out that lets the most wanted minutes in.
// A day that already holds minutes keeps its anchor.
func (st *allocState) chooseAnchor(p *dayPlan, want need, accum int) (int, bool) {
	if p.count > 0 {
		return p.anchor, true
	}
	best, bestAnchor := 0, 0
	for _, c := range st.candidates(p, want) {
		w, a := want, accum
		if n := st.walk(p, c, &w, &a, false); n > best {
			best, bestAnchor = n, c
		}
	}
	return bestAnchor, best > 0
}

// candidates lists anchors worth trying, latest window first: the forward
// fill from the window start, the night boundaries inside the window and
// the window end.
func (st *allocState) candidates(p *dayPlan, want need) []int {
	nightStarts := []int{st.cutoff, st.cutoff + timecard.MinutesPerDay}
	nightEnds := []int{timecard.NightEnd, timecard.NightEnd + timecard.MinutesPerDay}

	var out []int
	for i := len(p.windows) - 1; i >= 0; i-- {
		w := p.windows[i]
		inside := func(b int) bool { return b > w.start && b <= w.end }

		out = append(out, min(w.start+want.total(), w.end))
		for _, b := range nightStarts {
			if inside(b) {
				out = append(out, b)
			}
			// night minutes first, the rest spills back into day positions
			if b >= w.start && b < w.end && want.night() > 0 {
				out = append(out, min(b+want.night(), w.end))
			}
		}
		for _, b := range nightEnds {
			if inside(b) {
				out = append(out, b)
			}
		}
		out = append(out, w.end)
	}
	return out
}

// =============================================================================
// PHYSICAL PLACEMENT
// =============================================================================

// anchorWindow returns the index of the window holding anchor, or -1.
func (p *dayPlan) anchorWindow(anchor int) int {
	for i, w := range p.windows {
		if anchor > w.start && anchor <= w.end {
			return i
		}
	}
	return -1
}

// capacity is how many minutes fit behind anchor: the part of its window
// before it plus every earlier window.
func (p *dayPlan) capacity(anchor int) int {
	aw := p.anchorWindow(anchor)
	if aw < 0 {
		return 0
	}
	c := anchor - p.windows[aw].start
	for i := 0; i < aw; i++ {
		c += p.windows[i].len()
	}
	return c
}

// segments lays the allocated minutes out in clock time: backward from the
// anchor inside its window, then backward from the end of each earlier
// window. The result is chronological and ends at the anchor.
func (p *dayPlan) segments() []window {
	aw := p.anchorWindow(p.anchor)
	if aw < 0 || p.count == 0 {
		return nil
	}
	rest := p.count
	var rev []window

	first := window{max(p.windows[aw].start, p.anchor-rest), p.anchor}
	rev = append(rev, first)
	rest -= first.len()
	for i := aw - 1; i >= 0 && rest > 0; i-- {
		w := p.windows[i]
		seg := window{max(w.start, w.end-rest), w.end}
		rev = append(rev, seg)
		rest -= seg.len()
	}

	out := make([]window, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}
