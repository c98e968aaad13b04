package visualize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

func sampleDay() Day {
	return Day{
		SubjectPath: "/data/group3/sensors/LIBPhys #002",
		Date:        "2022-07-04",
		Observed: map[schedule.Device]schedule.Record{
			schedule.DeviceWatch: {
				StartTimes: []schedule.TimeOfDay{
					schedule.MustParseTimeOfDay("08-30-00"),
					schedule.MustParseTimeOfDay("10-30-00"),
				},
				Lengths: []int{120000, 118000},
			},
			schedule.DevicePhone: {
				StartTimes: []schedule.TimeOfDay{schedule.MustParseTimeOfDay("08-30-05")},
				Lengths:    []int{119000},
			},
		},
		Missing: map[schedule.Device]schedule.Record{
			schedule.DeviceMBANLeft: {
				StartTimes: []schedule.TimeOfDay{schedule.MustParseTimeOfDay("14-00-00")},
				Lengths:    []int{120000},
			},
		},
		SamplingRate: 100,
	}
}

func TestRenderPNG(t *testing.T) {
	dir := t.TempDir()
	path, err := RenderPNG(dir, sampleDay())
	if err != nil {
		t.Fatalf("RenderPNG error: %v", err)
	}

	want := filepath.Join(dir, "group_3", "group_3_#002_2022-07-04.png")
	if path != want {
		t.Errorf("RenderPNG path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat rendered file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("rendered PNG is empty")
	}
}

func TestRenderPNGEmptyDay(t *testing.T) {
	if _, err := RenderPNG(t.TempDir(), Day{Date: "2022-07-04", SamplingRate: 100}); err == nil {
		t.Error("expected error for a day with no data")
	}
}

func TestDayTitle(t *testing.T) {
	if got := dayTitle("2022-07-04"); got != "Monday | 2022-07-04" {
		t.Errorf("dayTitle = %q, want %q", got, "Monday | 2022-07-04")
	}
	// Unparseable dates fall through unchanged rather than failing a render.
	if got := dayTitle("not-a-date"); got != "not-a-date" {
		t.Errorf("dayTitle = %q, want input back", got)
	}
}

func TestLaneIndexOrder(t *testing.T) {
	lanes := laneIndex(sampleDay())
	if len(lanes) != 3 {
		t.Fatalf("lane count = %d, want 3", len(lanes))
	}
	// mBAN left before watch before phone, per the fixed device order.
	if lanes[schedule.DeviceMBANLeft] != 0 || lanes[schedule.DeviceWatch] != 1 || lanes[schedule.DevicePhone] != 2 {
		t.Errorf("unexpected lane assignment: %v", lanes)
	}
}

func TestRenderDayChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderDayChart(&buf, sampleDay()); err != nil {
		t.Fatalf("RenderDayChart error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"recorded", "missing", "Monday | 2022-07-04"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart HTML missing %q", want)
		}
	}
}
