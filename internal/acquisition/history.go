package acquisition

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// HistoricalSlots scans a subject's whole folder tree and returns their
// most common acquisition times, clustered to at most four canonical slots
// with the scanner's proximity merge (20 minutes unless configured). This
// is the reconciler's fallback when a day's consensus under-represents the
// schedule.
//
// In group 1 every acquisition folder counts. In the other groups the
// phone occasionally created folders of its own outside the shared
// schedule, so only folders holding watch data and no phone data are
// trusted.
func (s *Scanner) HistoricalSlots(subjectPath string) ([]schedule.TimeOfDay, error) {
	group1 := strings.Contains(subjectPath, "group1")

	var folderNames []string
	err := filepath.WalkDir(subjectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if group1 {
			folderNames = append(folderNames, d.Name())
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		hasWear, hasPhoneOnly := false, false
		for _, e := range entries {
			name := e.Name()
			if strings.Contains(name, androidWearTag) {
				hasWear = true
			} else if strings.Contains(name, androidTag) {
				hasPhoneOnly = true
			}
		}
		if hasWear && !hasPhoneOnly {
			folderNames = append(folderNames, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking subject folder: %w", err)
	}

	var observed []schedule.TimeOfDay
	for _, name := range folderNames {
		if !timeFolderRe.MatchString(name) {
			continue
		}
		t, err := schedule.ParseTimeOfDay(name)
		if err != nil {
			continue
		}
		observed = append(observed, t.ZeroSeconds())
	}

	tolerance := s.MergeTolerance
	if tolerance <= 0 {
		tolerance = schedule.DefaultMergeTolerance
	}
	clusterer := schedule.SlotClusterer{MergeTolerance: tolerance}
	return clusterer.Slots(observed), nil
}

// HistoryProvider adapts the scanner to the reconciler's fallback hook.
func (s *Scanner) HistoryProvider() schedule.HistoryProvider {
	return s.HistoricalSlots
}
