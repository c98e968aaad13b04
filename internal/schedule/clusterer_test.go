package schedule

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func times(ss ...string) []TimeOfDay {
	out := make([]TimeOfDay, len(ss))
	for i, s := range ss {
		out[i] = MustParseTimeOfDay(s)
	}
	return out
}

func TestSlotsFewDistinct(t *testing.T) {
	c := SlotClusterer{MergeTolerance: DefaultMergeTolerance}

	// Four or fewer distinct times: returned sorted, duplicates collapsed.
	got := c.Slots(times("11-00-00", "08-30-00", "11-00-00", "14-15-00"))
	want := times("08-30-00", "11-00-00", "14-15-00")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Slots mismatch (-want +got):\n%s", diff)
	}

	if got := c.Slots(nil); len(got) != 0 {
		t.Errorf("Slots(nil) = %v, want empty", got)
	}
}

func TestSlotsProximityMerge(t *testing.T) {
	c := SlotClusterer{MergeTolerance: DefaultMergeTolerance}

	// Six distinct times but only two real sessions: the first four are all
	// within 20 minutes of 10-30-00 and must collapse before selection.
	got := c.Slots(times("10-30-00", "10-31-00", "10-35-00", "10-41-00", "11-00-00", "11-12-00"))
	want := times("10-30-00", "11-00-00")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Slots mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotsHigherFrequencyWinsMerge(t *testing.T) {
	c := SlotClusterer{MergeTolerance: DefaultMergeTolerance}

	// 10-35-00 occurs more often than 10-30-00, so it survives the merge
	// even though 10-30-00 is earlier.
	got := c.Slots(times(
		"10-30-00",
		"10-35-00", "10-35-00", "10-35-00",
		"11-30-00", "12-30-00", "13-30-00", "14-30-00",
	))
	want := times("10-35-00", "11-30-00", "12-30-00", "13-30-00")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Slots mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotsFrequencyTieBreaksEarliest(t *testing.T) {
	c := SlotClusterer{}

	// Five distinct times, all with one occurrence and far apart: the four
	// earliest win.
	got := c.Slots(times("15-00-00", "08-00-00", "10-00-00", "12-00-00", "14-00-00"))
	want := times("08-00-00", "10-00-00", "12-00-00", "14-00-00")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Slots mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotsCardinalityAndOrder(t *testing.T) {
	c := SlotClusterer{MergeTolerance: DefaultMergeTolerance}

	var input []TimeOfDay
	for h := 6; h < 20; h++ {
		for i := 0; i < h%3+1; i++ {
			input = append(input, TimeOfDay(h*3600))
		}
	}
	got := c.Slots(input)
	if len(got) > 4 {
		t.Fatalf("Slots returned %d entries, want at most 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("Slots not sorted ascending: %v", got)
		}
	}
}

func TestSlotsDeterministic(t *testing.T) {
	c := SlotClusterer{MergeTolerance: 20 * time.Minute}
	input := times(
		"09-00-00", "09-05-00", "09-05-00", "11-00-00", "11-02-00",
		"13-00-00", "13-00-00", "15-00-00", "15-10-00", "17-00-00",
	)
	first := c.Slots(input)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, c.Slots(input)); diff != "" {
			t.Fatalf("Slots not deterministic on run %d (-first +now):\n%s", i, diff)
		}
	}
}
