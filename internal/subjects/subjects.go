// Package subjects loads the study's subject metadata table
// (subjects_info.csv) and resolves MuscleBAN hardware addresses to the
// body side the recorder was strapped to.
package subjects

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// Column names in subjects_info.csv. The file is semicolon-separated with
// one row per subject.
const (
	columnSubjectID = "subject_id"
	columnMBANLeft  = "mBAN_left"
	columnMBANRight = "mBAN_right"
)

// Table is the loaded subject metadata: for each subject, the hardware
// addresses of the left and right MuscleBANs.
type Table struct {
	sides map[string]schedule.Device
}

// Load reads a subjects_info.csv file. Rows missing either address column
// are an error: without them MuscleBAN files cannot be attributed.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening subjects table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing subjects table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("subjects table %s is empty", path)
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{columnSubjectID, columnMBANLeft, columnMBANRight} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("subjects table missing column %q", required)
		}
	}

	t := &Table{sides: make(map[string]schedule.Device)}
	for i, row := range rows[1:] {
		left, right := row[col[columnMBANLeft]], row[col[columnMBANRight]]
		if left == "" || right == "" {
			return nil, fmt.Errorf("subjects table row %d (%s): missing muscleBAN address", i+2, row[col[columnSubjectID]])
		}
		t.sides[left] = schedule.DeviceMBANLeft
		t.sides[right] = schedule.DeviceMBANRight
	}
	return t, nil
}

// Side resolves a hardware address (12 hex chars, no colons) to the
// MuscleBAN side it belongs to.
func (t *Table) Side(hardwareAddr string) (schedule.Device, bool) {
	device, ok := t.sides[hardwareAddr]
	return device, ok
}
