package acquisition

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// firstDataMarker is the log line written when a device delivered its first
// sample; its timestamp is the device's true start time for the
// acquisition.
const firstDataMarker = "SENSOR_DATA: received first data from"

// loggerFileHeaderLines is the number of preamble rows before the
// tab-separated timestamp/message records begin.
const loggerFileHeaderLines = 3

// FindLoggerFile returns the path of the folder's non-empty acquisition log
// file, or "" when none exists. There should be at most one per folder.
func FindLoggerFile(folderPath string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(folderPath, loggerFilePrefix+"*"))
	if err != nil {
		return "", fmt.Errorf("globbing logger file in %s: %w", folderPath, err)
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat logger file: %w", err)
		}
		if info.Size() > 0 {
			return path, nil
		}
	}
	return "", nil
}

// LoadLoggerFileTimes parses an acquisition log file and returns the start
// time it records for each device. Lines are tab-separated
// timestamp/message pairs after a short preamble; only the first-data
// marker lines carry start times.
func LoadLoggerFileTimes(path string, sides SideLookup) (map[schedule.Device]schedule.TimeOfDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening logger file: %w", err)
	}
	defer f.Close()

	startTimes := make(map[schedule.Device]schedule.TimeOfDay)

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line <= loggerFileHeaderLines {
			continue
		}
		text := scanner.Text()
		if !strings.Contains(text, firstDataMarker) {
			continue
		}

		timestamp, message, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("%s:%d: malformed log line %q", path, line, text)
		}
		token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(message), firstDataMarker))

		device, err := classifyLogToken(token, sides)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		start, err := parseLogTimestamp(timestamp)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}

		// Keep the first occurrence: a device may reconnect mid-session.
		if _, ok := startTimes[device]; !ok {
			startTimes[device] = start
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading logger file: %w", err)
	}

	return startTimes, nil
}

// classifyLogToken maps the device token of a first-data log line to a
// device. The app logs either the platform tag or the recorder's hardware
// address.
func classifyLogToken(token string, sides SideLookup) (schedule.Device, error) {
	switch {
	case strings.Contains(token, androidWearTag), strings.EqualFold(token, string(schedule.DeviceWatch)):
		return schedule.DeviceWatch, nil
	case strings.Contains(token, androidTag), strings.EqualFold(token, string(schedule.DevicePhone)):
		return schedule.DevicePhone, nil
	}
	if addr := hardwareAddrRe.FindString(token); addr != "" {
		if sides == nil {
			return "", fmt.Errorf("hardware address %s but no side lookup configured", addr)
		}
		if device, ok := sides(addr); ok {
			return device, nil
		}
		return "", fmt.Errorf("hardware address %s not present in subjects table", addr)
	}
	return "", fmt.Errorf("cannot classify device token %q", token)
}

// parseLogTimestamp accepts the log's HH:MM:SS.mmm timestamps as well as
// the HH-MM-SS folder form, discarding any fractional seconds.
func parseLogTimestamp(s string) (schedule.TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ":", "-")
	return schedule.ParseTimeOfDay(s)
}
