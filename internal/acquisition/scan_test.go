package acquisition

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// writeRawFile writes a minimal opensignals raw file with the given number
// of sample rows.
func writeRawFile(t *testing.T, dir, name string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("# OpenSignals Text File Format\n")
	b.WriteString("# {\"device\": \"test\"}\n")
	b.WriteString("# EndOfHeader\n")
	for i := 0; i < rows; i++ {
		b.WriteString("0\t0\t0\n")
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0644); err != nil {
		t.Fatalf("writing raw file: %v", err)
	}
}

func writeLoggerFile(t *testing.T, dir string, lines ...string) {
	t.Helper()
	content := "# header\n# header\n# header\n" + strings.Join(lines, "\n") + "\n"
	name := loggerFilePrefix + "2022-05-02_11-00-01.txt"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing logger file: %v", err)
	}
}

func TestLoadLoggerFileTimes(t *testing.T) {
	dir := t.TempDir()
	writeLoggerFile(t, dir,
		"11:00:00.120\tACQUISITION started",
		"11:00:01.000\tSENSOR_DATA: received first data from ANDROID_WEAR",
		"11:05:34.250\tSENSOR_DATA: received first data from F0A55C68B2E1",
		"11:06:00.000\tSENSOR_DATA: received first data from F0A55C68B2E1",
	)

	path, err := FindLoggerFile(dir)
	if err != nil {
		t.Fatalf("FindLoggerFile error: %v", err)
	}
	if path == "" {
		t.Fatal("FindLoggerFile found nothing")
	}

	got, err := LoadLoggerFileTimes(path, testSides)
	if err != nil {
		t.Fatalf("LoadLoggerFileTimes error: %v", err)
	}
	want := map[schedule.Device]schedule.TimeOfDay{
		schedule.DeviceWatch:    schedule.MustParseTimeOfDay("11-00-01"),
		schedule.DeviceMBANLeft: schedule.MustParseTimeOfDay("11-05-34"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("logger file times (-want +got):\n%s", diff)
	}
}

func TestFindLoggerFileIgnoresEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, loggerFilePrefix+"2022-05-02_11-00-01.txt"), nil, 0644); err != nil {
		t.Fatalf("writing empty logger file: %v", err)
	}
	path, err := FindLoggerFile(dir)
	if err != nil {
		t.Fatalf("FindLoggerFile error: %v", err)
	}
	if path != "" {
		t.Errorf("FindLoggerFile = %q, want empty for zero-byte log", path)
	}
}

func TestDailyAcquisitions(t *testing.T) {
	subject := t.TempDir()
	day := filepath.Join(subject, "2022-05-02")

	// First acquisition has a logger file; second falls back to filenames.
	first := filepath.Join(day, "10-30-00")
	if err := os.MkdirAll(first, 0755); err != nil {
		t.Fatal(err)
	}
	writeRawFile(t, first, "opensignals_ANDROID_WEAR_ACCELEROMETER_2022-05-02_10-30-02.txt", 120)
	writeRawFile(t, first, "opensignals_ANDROID_ACCELEROMETER_2022-05-02_10-30-00.txt", 80)
	writeRawFile(t, first, "opensignals_F0A55C68B2E1_2022-05-02_10-31-10.txt", 200)
	writeLoggerFile(t, first,
		"10:30:02.000\tSENSOR_DATA: received first data from ANDROID_WEAR",
		"10:30:00.000\tSENSOR_DATA: received first data from ANDROID",
		"10:31:10.000\tSENSOR_DATA: received first data from F0A55C68B2E1",
	)

	second := filepath.Join(day, "14-00-00")
	if err := os.MkdirAll(second, 0755); err != nil {
		t.Fatal(err)
	}
	writeRawFile(t, second, "opensignals_ANDROID_WEAR_GYROSCOPE_2022-05-02_14-00-05.txt", 90)

	s := &Scanner{Sides: testSides}
	got, err := s.DailyAcquisitions(subject, "2022-05-02")
	if err != nil {
		t.Fatalf("DailyAcquisitions error: %v", err)
	}

	want := map[schedule.Device]schedule.Record{
		schedule.DeviceWatch: {
			StartTimes: []schedule.TimeOfDay{
				schedule.MustParseTimeOfDay("10-30-02"),
				schedule.MustParseTimeOfDay("14-00-05"),
			},
			Lengths: []int{120, 90},
		},
		schedule.DevicePhone: {
			StartTimes: []schedule.TimeOfDay{schedule.MustParseTimeOfDay("10-30-00")},
			Lengths:    []int{80},
		},
		schedule.DeviceMBANLeft: {
			StartTimes: []schedule.TimeOfDay{schedule.MustParseTimeOfDay("10-31-10")},
			Lengths:    []int{200},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("daily acquisitions (-want +got):\n%s", diff)
	}
}

func TestDailyAcquisitionsLongestSensorFileWins(t *testing.T) {
	subject := t.TempDir()
	folder := filepath.Join(subject, "2022-05-02", "10-30-00")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	writeRawFile(t, folder, "opensignals_ANDROID_WEAR_ACCELEROMETER_2022-05-02_10-30-00.txt", 50)
	writeRawFile(t, folder, "opensignals_ANDROID_WEAR_GYROSCOPE_2022-05-02_10-30-00.txt", 75)

	s := &Scanner{Sides: testSides}
	got, err := s.DailyAcquisitions(subject, "2022-05-02")
	if err != nil {
		t.Fatalf("DailyAcquisitions error: %v", err)
	}
	if got[schedule.DeviceWatch].Lengths[0] != 75 {
		t.Errorf("watch length = %d, want 75 (longest sensor file)", got[schedule.DeviceWatch].Lengths[0])
	}
}

func TestHistoricalSlots(t *testing.T) {
	subject := t.TempDir()

	// Five days, four sessions each; one session drifts by a couple of
	// minutes on two days and must merge into the canonical slot.
	days := []string{"2022-05-02", "2022-05-03", "2022-05-04", "2022-05-05", "2022-05-06"}
	sessions := map[string][]string{
		"2022-05-02": {"08-30-00", "10-30-00", "14-00-00", "16-00-00"},
		"2022-05-03": {"08-30-00", "10-32-00", "14-00-00", "16-00-00"},
		"2022-05-04": {"08-30-00", "10-30-00", "14-00-00", "16-00-00"},
		"2022-05-05": {"08-30-00", "10-30-00", "14-03-00", "16-00-00"},
		"2022-05-06": {"08-30-00", "10-30-00", "14-00-00", "16-00-00"},
	}
	for _, day := range days {
		for _, session := range sessions[day] {
			folder := filepath.Join(subject, day, session)
			if err := os.MkdirAll(folder, 0755); err != nil {
				t.Fatal(err)
			}
			writeRawFile(t, folder, "opensignals_ANDROID_WEAR_ACCELEROMETER_"+day+"_"+session+".txt", 10)
		}
	}

	s := &Scanner{Sides: testSides}
	got, err := s.HistoricalSlots(subject)
	if err != nil {
		t.Fatalf("HistoricalSlots error: %v", err)
	}

	want := []schedule.TimeOfDay{
		schedule.MustParseTimeOfDay("08-30-00"),
		schedule.MustParseTimeOfDay("10-30-00"),
		schedule.MustParseTimeOfDay("14-00-00"),
		schedule.MustParseTimeOfDay("16-00-00"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("historical slots (-want +got):\n%s", diff)
	}
}

func TestHistoricalSlotsMergeTolerance(t *testing.T) {
	subject := t.TempDir()

	// Five distinct times; 08-35 is the most frequent and sits 5 minutes
	// from 08-30, so the configured merge spacing decides whether both
	// survive clustering.
	sessions := map[string][]string{
		"2022-05-02": {"08-35-00", "10-30-00", "14-00-00", "16-00-00"},
		"2022-05-03": {"08-35-00", "10-30-00", "14-00-00", "16-00-00"},
		"2022-05-04": {"08-35-00", "10-30-00", "14-00-00", "16-00-00"},
		"2022-05-05": {"08-35-00", "08-30-00"},
		"2022-05-06": {"08-30-00"},
		"2022-05-09": {"08-30-00"},
	}
	for day, times := range sessions {
		for _, session := range times {
			folder := filepath.Join(subject, day, session)
			if err := os.MkdirAll(folder, 0755); err != nil {
				t.Fatal(err)
			}
			writeRawFile(t, folder, "opensignals_ANDROID_WEAR_ACCELEROMETER_"+day+"_"+session+".txt", 10)
		}
	}

	// Default 20-minute spacing: 08-30 merges into the more frequent 08-35.
	wide := &Scanner{Sides: testSides}
	got, err := wide.HistoricalSlots(subject)
	if err != nil {
		t.Fatalf("HistoricalSlots error: %v", err)
	}
	want := []schedule.TimeOfDay{
		schedule.MustParseTimeOfDay("08-35-00"),
		schedule.MustParseTimeOfDay("10-30-00"),
		schedule.MustParseTimeOfDay("14-00-00"),
		schedule.MustParseTimeOfDay("16-00-00"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("default tolerance slots (-want +got):\n%s", diff)
	}

	// A 2-minute spacing keeps both morning times apart, and the four most
	// frequent survivors shift accordingly.
	narrow := &Scanner{Sides: testSides, MergeTolerance: 2 * time.Minute}
	got, err = narrow.HistoricalSlots(subject)
	if err != nil {
		t.Fatalf("HistoricalSlots error: %v", err)
	}
	want = []schedule.TimeOfDay{
		schedule.MustParseTimeOfDay("08-30-00"),
		schedule.MustParseTimeOfDay("08-35-00"),
		schedule.MustParseTimeOfDay("10-30-00"),
		schedule.MustParseTimeOfDay("14-00-00"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("2-minute tolerance slots (-want +got):\n%s", diff)
	}
}

func TestHistoricalSlotsSkipsPhoneFolders(t *testing.T) {
	subject := t.TempDir()

	watchFolder := filepath.Join(subject, "2022-05-02", "08-30-00")
	if err := os.MkdirAll(watchFolder, 0755); err != nil {
		t.Fatal(err)
	}
	writeRawFile(t, watchFolder, "opensignals_ANDROID_WEAR_ACCELEROMETER_2022-05-02_08-30-00.txt", 10)

	// A folder with phone data must not contribute to the schedule.
	phoneFolder := filepath.Join(subject, "2022-05-02", "19-45-00")
	if err := os.MkdirAll(phoneFolder, 0755); err != nil {
		t.Fatal(err)
	}
	writeRawFile(t, phoneFolder, "opensignals_ANDROID_ACCELEROMETER_2022-05-02_19-45-00.txt", 10)

	s := &Scanner{Sides: testSides}
	got, err := s.HistoricalSlots(subject)
	if err != nil {
		t.Fatalf("HistoricalSlots error: %v", err)
	}
	want := []schedule.TimeOfDay{schedule.MustParseTimeOfDay("08-30-00")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("historical slots (-want +got):\n%s", diff)
	}
}
