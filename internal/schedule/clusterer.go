package schedule

import (
	"sort"
	"time"
)

// maxDailySessions is the number of scheduled recording bouts per day.
const maxDailySessions = 4

// DefaultMergeTolerance is the spacing under which two candidate slot times
// are treated as the same session when clustering historical folder times.
const DefaultMergeTolerance = 20 * time.Minute

// SlotClusterer reduces a multiset of observed times of day to at most four
// canonical session slots, merging near-duplicates caused by device clock
// jitter.
type SlotClusterer struct {
	// MergeTolerance is the minimum spacing between two accepted slots.
	// Zero disables proximity merging.
	MergeTolerance time.Duration
}

// Slots returns the canonical session slots for the given observed times,
// sorted ascending. With four or fewer distinct times there is nothing to
// resolve and the distinct times are returned as-is; otherwise the times
// are counted, near-duplicates merged (higher-occurrence time wins), and
// the four most frequent survivors returned, breaking frequency ties by
// earliest time of day.
func (c SlotClusterer) Slots(times []TimeOfDay) []TimeOfDay {
	counts := make(map[TimeOfDay]int, len(times))
	for _, t := range times {
		counts[t]++
	}

	if len(counts) <= maxDailySessions {
		distinct := make([]TimeOfDay, 0, len(counts))
		for t := range counts {
			distinct = append(distinct, t)
		}
		sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })
		return distinct
	}

	type slotCount struct {
		time  TimeOfDay
		count int
	}
	candidates := make([]slotCount, 0, len(counts))
	for t, n := range counts {
		candidates = append(candidates, slotCount{t, n})
	}
	// Occurrences descending, then time ascending. The greedy accept below
	// depends on this order: when two times are near-duplicates, the more
	// frequent one is seen first and wins.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].time < candidates[j].time
	})

	if c.MergeTolerance > 0 {
		merged := candidates[:0]
		var accepted []TimeOfDay
		for _, cand := range candidates {
			tooClose := false
			for _, a := range accepted {
				// Strictly-less keeps exact tolerance spacing as distinct,
				// matching the recorders' scheduling granularity.
				if d := int(cand.time) - int(a); d > -int(c.MergeTolerance/time.Second) && d < int(c.MergeTolerance/time.Second) {
					tooClose = true
					break
				}
			}
			if !tooClose {
				merged = append(merged, cand)
				accepted = append(accepted, cand.time)
			}
		}
		candidates = merged
	}

	if len(candidates) > maxDailySessions {
		candidates = candidates[:maxDailySessions]
	}

	slots := make([]TimeOfDay, len(candidates))
	for i, cand := range candidates {
		slots[i] = cand.time
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}
