package acquisition

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prevoccupai/acquisition.report/internal/monitoring"
	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

var logf = monitoring.Scoped("acquisition")

// Scanner aggregates per-device acquisition metadata from a subject's
// folder tree. It resolves MuscleBAN hardware addresses to sides up front
// so downstream consumers only ever see stable device keys.
type Scanner struct {
	Sides SideLookup

	// MergeTolerance is the slot-merge spacing used when clustering a
	// subject's historical acquisition times. Zero means the default.
	MergeTolerance time.Duration
}

// DailyAcquisitions collects, for one subject-day, each device's session
// start times and sample counts. The date folder contains one HH-MM-SS
// subfolder per acquisition; within each, the acquisition log provides the
// per-device start times when present, the filename suffixes otherwise.
func (s *Scanner) DailyAcquisitions(subjectPath, date string) (map[schedule.Device]schedule.Record, error) {
	dayPath := filepath.Join(subjectPath, date)
	entries, err := os.ReadDir(dayPath)
	if err != nil {
		return nil, fmt.Errorf("reading day folder: %w", err)
	}

	// Deterministic session order within the day.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make(map[schedule.Device]schedule.Record)

	for _, name := range names {
		folder := filepath.Join(dayPath, name)

		lengths, err := s.sampleCounts(folder)
		if err != nil {
			return nil, fmt.Errorf("acquisition %s: %w", name, err)
		}
		if len(lengths) == 0 {
			continue
		}

		startTimes, err := s.startTimes(folder)
		if err != nil {
			return nil, fmt.Errorf("acquisition %s: %w", name, err)
		}

		for device, length := range lengths {
			rec := records[device]
			start, ok := startTimes[device]
			if !ok {
				// Samples without any start evidence: anchor on the folder
				// name, which is itself the scheduled acquisition time.
				parsed, err := schedule.ParseTimeOfDay(name)
				if err != nil {
					return nil, fmt.Errorf("acquisition %s: no start time for %s and folder name is not a time", name, device)
				}
				start = parsed
			}
			rec.StartTimes = append(rec.StartTimes, start)
			rec.Lengths = append(rec.Lengths, length)
			records[device] = rec
		}
	}

	return records, nil
}

// startTimes extracts the per-device start times for one acquisition
// folder, preferring the acquisition log over filename suffixes.
func (s *Scanner) startTimes(folder string) (map[schedule.Device]schedule.TimeOfDay, error) {
	logPath, err := FindLoggerFile(folder)
	if err != nil {
		return nil, err
	}
	if logPath != "" {
		return LoadLoggerFileTimes(logPath, s.Sides)
	}

	logf("no acquisition log in %s, falling back to filename timestamps", folder)

	startTimes := make(map[schedule.Device]schedule.TimeOfDay)
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading acquisition folder: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isRawFile(e.Name()) {
			continue
		}
		device, err := DeviceFromFilename(e.Name(), s.Sides)
		if err != nil {
			return nil, err
		}
		start, err := TimeFromFilename(e.Name())
		if err != nil {
			return nil, err
		}
		if existing, ok := startTimes[device]; !ok || start < existing {
			startTimes[device] = start
		}
	}
	return startTimes, nil
}

// sampleCounts counts the data rows of each device's raw files in one
// acquisition folder. A device recording several sensors contributes the
// row count of its longest file, the sensor stream the session length is
// judged by.
func (s *Scanner) sampleCounts(folder string) (map[schedule.Device]int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading acquisition folder: %w", err)
	}

	counts := make(map[schedule.Device]int)
	for _, e := range entries {
		if e.IsDir() || !isRawFile(e.Name()) {
			continue
		}
		device, err := DeviceFromFilename(e.Name(), s.Sides)
		if err != nil {
			return nil, err
		}
		n, err := countDataRows(filepath.Join(folder, e.Name()))
		if err != nil {
			return nil, err
		}
		if n > counts[device] {
			counts[device] = n
		}
	}
	return counts, nil
}

// isRawFile reports whether a filename is a raw opensignals recording
// (as opposed to the acquisition log or stray files).
func isRawFile(name string) bool {
	return strings.HasPrefix(name, "opensignals_") && !strings.HasPrefix(name, loggerFilePrefix)
}

// countDataRows counts the sample rows of a raw opensignals file: every
// non-empty line that is not part of the '#' header block.
func countDataRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening raw file: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading raw file %s: %w", path, err)
	}
	return n, nil
}
