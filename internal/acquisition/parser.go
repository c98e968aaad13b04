// Package acquisition discovers per-device recording metadata on disk: it
// walks a subject's folder hierarchy (date folders containing HH-MM-SS
// acquisition folders of raw opensignals files), extracts per-device start
// times from acquisition log files or filenames, counts samples, and
// derives a subject's historical session slots.
package acquisition

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

const (
	androidTag     = "ANDROID"
	androidWearTag = "ANDROID_WEAR"

	// loggerFilePrefix marks the opensignals acquisition log written next to
	// the raw files when the phone app captured one.
	loggerFilePrefix = "opensignals_ACQUISITION_LOG_"
)

var (
	hardwareAddrRe = regexp.MustCompile(`[A-Z0-9]{12}`)
	filenameTimeRe = regexp.MustCompile(`_(\d{2}-\d{2}-\d{2})$`)
	timeFolderRe   = regexp.MustCompile(`^\d{2}-\d{2}-\d{2}$`)
	dateRe         = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	groupRe        = regexp.MustCompile(`group(\d+)`)
	subjectRe      = regexp.MustCompile(`LIBPhys (#\d+)`)
)

// SideLookup resolves a MuscleBAN hardware address (12 hex chars, no
// colons) to the device side it was strapped to. The second return is
// false when the address is unknown.
type SideLookup func(hardwareAddr string) (schedule.Device, bool)

// DeviceFromFilename classifies a raw opensignals filename into a device.
// Watch files carry the ANDROID_WEAR tag, phone files a bare ANDROID tag,
// and MuscleBAN files embed the recorder's hardware address.
func DeviceFromFilename(filename string, sides SideLookup) (schedule.Device, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	switch {
	case strings.Contains(name, androidWearTag):
		return schedule.DeviceWatch, nil
	case strings.Contains(name, androidTag):
		return schedule.DevicePhone, nil
	}
	if addr := hardwareAddrRe.FindString(name); addr != "" {
		if sides == nil {
			return "", fmt.Errorf("hardware address %s in %q but no side lookup configured", addr, filename)
		}
		if device, ok := sides(addr); ok {
			return device, nil
		}
		return "", fmt.Errorf("hardware address %s in %q not present in subjects table", addr, filename)
	}
	return "", fmt.Errorf("cannot classify device from filename %q", filename)
}

// TimeFromFilename extracts the acquisition start time from the trailing
// _HH-MM-SS suffix of a raw filename. The suffix is the fallback evidence
// when no acquisition log exists for the folder.
func TimeFromFilename(filename string) (schedule.TimeOfDay, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	m := filenameTimeRe.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("no time suffix in filename %q", filename)
	}
	return schedule.ParseTimeOfDay(m[1])
}

// ExtractDate returns the YYYY-MM-DD date embedded in a folder path, or ""
// when none is present.
func ExtractDate(folderPath string) string {
	if m := dateRe.FindStringSubmatch(folderPath); m != nil {
		return m[1]
	}
	return ""
}

// ExtractGroup returns the study group number embedded in a folder path
// (group1, group2, ...), or "" when none is present.
func ExtractGroup(folderPath string) string {
	if m := groupRe.FindStringSubmatch(folderPath); m != nil {
		return m[1]
	}
	return ""
}

// ExtractSubject returns the subject identifier (e.g. "#002") embedded in a
// folder path, or "" when none is present.
func ExtractSubject(folderPath string) string {
	if m := subjectRe.FindStringSubmatch(folderPath); m != nil {
		return m[1]
	}
	return ""
}
