package projection

import (
	"sort"

	"github.com/warp/timecard-engine/timecard"
)

const maxSegments = 3

// mergeSegments sorts segments and joins the ones that touch or overlap.
// Empty segments are dropped.
func mergeSegments(segs []window) []window {
	sorted := make([]window, 0, len(segs))
	for _, s := range segs {
		if s.len() > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var out []window
	for _, s := range sorted {
		if n := len(out); n > 0 && s.start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, s.end)
			continue
		}
		out = append(out, s)
	}
	return out
}

// consolidate fits the segments into the three punch pairs of a card line.
// The first and last runs stay as they are, so the day still ends at the
// same clock-out; the middle runs collapse into one run of the same total
// length starting where the second run started. The flag reports whether
// anything was collapsed.
func consolidate(segs []window) ([]window, bool) {
	segs = mergeSegments(segs)
	if len(segs) <= maxSegments {
		return segs, false
	}

	last := len(segs) - 1
	middle := 0
	for _, s := range segs[1:last] {
		middle += s.len()
	}
	start := segs[1].start
	return []window{segs[0], {start, start + middle}, segs[last]}, true
}

// writeSegments stores chronological segments into the pairs of a line.
func writeSegments(d *timecard.CardDay, segs []window) {
	d.ClearPunches()
	for i, s := range segs {
		if i == maxSegments {
			break
		}
		d.SetPair(i, timecard.FormatClock(s.start), timecard.FormatClock(s.end))
	}
}
