// Package visualize renders per-day acquisition timelines: a PNG with one
// horizontal bar lane per device (recorded sessions solid, inferred-missing
// sessions dashed gray) and an HTML chart view served by the monitor
// server.
package visualize

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/prevoccupai/acquisition.report/internal/acquisition"
	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// Lane geometry, in plot Y units.
const (
	laneSpacing = 0.2
	barHeight   = 0.1
)

// deviceOrder fixes the lane order from top label to bottom.
var deviceOrder = []schedule.Device{
	schedule.DeviceMBANLeft,
	schedule.DeviceMBANRight,
	schedule.DeviceWatch,
	schedule.DevicePhone,
}

var deviceLabels = map[schedule.Device]string{
	schedule.DeviceMBANLeft:  "mBAN left",
	schedule.DeviceMBANRight: "mBAN right",
	schedule.DeviceWatch:     "Smartwatch",
	schedule.DevicePhone:     "Smartphone",
}

var (
	palette = []color.Color{
		color.RGBA{R: 0xF2, G: 0xB3, B: 0x6F, A: 0xFF},
		color.RGBA{R: 0xF0, G: 0x7A, B: 0x15, A: 0xFF},
		color.RGBA{R: 0x4D, G: 0x92, B: 0xD0, A: 0xFF},
		color.RGBA{R: 0x3C, G: 0x78, B: 0x7E, A: 0xFF},
	}
	missingFill = color.RGBA{R: 0xD3, G: 0xD3, B: 0xD3, A: 0xFF}
	edgeColor   = color.RGBA{R: 0x06, G: 0x17, B: 0x1C, A: 0xFF}
)

// Day is one subject-day ready for rendering: the scanned records and the
// reconciled missing records, in the same shape.
type Day struct {
	SubjectPath  string
	Date         string // YYYY-MM-DD
	Observed     map[schedule.Device]schedule.Record
	Missing      map[schedule.Device]schedule.Record
	SamplingRate int
}

// RenderPNG draws the day's session bars and writes
// group_<g>/group_<g>_<subject>_<date>.png under outputDir, returning the
// file path.
func RenderPNG(outputDir string, day Day) (string, error) {
	if day.SamplingRate <= 0 {
		return "", fmt.Errorf("sampling rate must be positive, got %d", day.SamplingRate)
	}
	if len(day.Observed) == 0 && len(day.Missing) == 0 {
		return "", fmt.Errorf("nothing to render for %s", day.Date)
	}

	p := plot.New()
	p.Title.Text = dayTitle(day.Date)
	p.X.Label.Text = "Time (hh:mm)"

	lanes := laneIndex(day)

	minStart, maxEnd := day.timeRange()
	p.X.Min = float64(minStart) - 300
	p.X.Max = float64(maxEnd) + 300
	p.X.Tick.Marker = hourTicks{min: minStart, max: maxEnd}

	p.Y.Min = -laneSpacing
	p.Y.Max = float64(len(lanes))*laneSpacing + laneSpacing
	p.Y.Tick.Marker = laneTicks(lanes)

	if err := addBars(p, day.Observed, lanes, day.SamplingRate, false); err != nil {
		return "", err
	}
	if err := addBars(p, day.Missing, lanes, day.SamplingRate, true); err != nil {
		return "", err
	}
	if err := addReferenceRuler(p, day, lanes); err != nil {
		return "", err
	}

	group := groupOf(day.SubjectPath)
	dir := filepath.Join(outputDir, "group_"+group)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	name := fmt.Sprintf("group_%s_%s_%s.png", group, subjectOf(day.SubjectPath), day.Date)
	path := filepath.Join(dir, name)
	if err := p.Save(10*vg.Inch, 3*vg.Inch, path); err != nil {
		return "", fmt.Errorf("saving plot: %w", err)
	}
	return path, nil
}

// laneIndex assigns a lane to every device present in either map, in the
// fixed device order.
func laneIndex(day Day) map[schedule.Device]int {
	lanes := make(map[schedule.Device]int)
	i := 0
	for _, device := range deviceOrder {
		_, observed := day.Observed[device]
		_, missing := day.Missing[device]
		if observed || missing {
			lanes[device] = i
			i++
		}
	}
	return lanes
}

// timeRange finds the earliest start and latest end over all bars.
func (d Day) timeRange() (minStart, maxEnd int) {
	minStart, maxEnd = -1, 0
	for _, records := range []map[schedule.Device]schedule.Record{d.Observed, d.Missing} {
		for _, rec := range records {
			for i, start := range rec.StartTimes {
				s := start.Seconds()
				e := s + rec.Lengths[i]/d.SamplingRate
				if minStart < 0 || s < minStart {
					minStart = s
				}
				if e > maxEnd {
					maxEnd = e
				}
			}
		}
	}
	if minStart < 0 {
		minStart = 0
	}
	return minStart, maxEnd
}

// addBars draws one rectangle per session. Missing sessions are light gray
// with a dashed edge; recorded ones take the lane's palette color.
func addBars(p *plot.Plot, records map[schedule.Device]schedule.Record, lanes map[schedule.Device]int, fs int, missing bool) error {
	for _, device := range deviceOrder {
		rec, ok := records[device]
		if !ok {
			continue
		}
		lane, ok := lanes[device]
		if !ok {
			continue
		}
		yCenter := float64(lane) * laneSpacing
		for i, start := range rec.StartTimes {
			x0 := float64(start.Seconds())
			x1 := x0 + float64(rec.Lengths[i])/float64(fs)
			poly, err := plotter.NewPolygon(plotter.XYs{
				{X: x0, Y: yCenter - barHeight/2},
				{X: x1, Y: yCenter - barHeight/2},
				{X: x1, Y: yCenter + barHeight/2},
				{X: x0, Y: yCenter + barHeight/2},
			})
			if err != nil {
				return fmt.Errorf("building bar for %s: %w", device, err)
			}
			if missing {
				poly.Color = missingFill
				poly.LineStyle = draw.LineStyle{
					Color:  edgeColor,
					Width:  vg.Points(0.8),
					Dashes: []vg.Length{vg.Points(3), vg.Points(2)},
				}
			} else {
				poly.Color = palette[lane%len(palette)]
				poly.LineStyle = draw.LineStyle{Color: poly.Color, Width: vg.Points(0.5)}
			}
			p.Add(poly)
		}
	}
	return nil
}

// addReferenceRuler draws a 20-minute reference segment above the watch
// lane, anchored on the watch's first session (recorded or missing).
func addReferenceRuler(p *plot.Plot, day Day, lanes map[schedule.Device]int) error {
	lane, ok := lanes[schedule.DeviceWatch]
	if !ok {
		return nil
	}
	rec, ok := day.Observed[schedule.DeviceWatch]
	if !ok || rec.Sessions() == 0 {
		rec, ok = day.Missing[schedule.DeviceWatch]
		if !ok || rec.Sessions() == 0 {
			return nil
		}
	}
	x0 := float64(rec.StartTimes[0].Seconds())
	x1 := x0 + schedule.SessionDuration.Seconds()
	y := float64(lane)*laneSpacing + barHeight/2 + 0.1*barHeight

	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return fmt.Errorf("building reference ruler: %w", err)
	}
	line.Color = color.RGBA{R: 0x26, G: 0x37, B: 0x3C, A: 0xFF}
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("20 minutes", line)
	return nil
}

// hourTicks labels the X axis with HH:MM marks on the hour.
type hourTicks struct {
	min, max int
}

func (h hourTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	first := (h.min / 3600) * 3600
	for s := first; s <= h.max+3600; s += 3600 {
		ticks = append(ticks, plot.Tick{
			Value: float64(s),
			Label: fmt.Sprintf("%02d:%02d", s/3600%24, s/60%60),
		})
	}
	return ticks
}

// laneTicks labels each lane with its device name.
func laneTicks(lanes map[schedule.Device]int) plot.ConstantTicks {
	var ticks []plot.Tick
	for device, lane := range lanes {
		ticks = append(ticks, plot.Tick{
			Value: float64(lane) * laneSpacing,
			Label: deviceLabels[device],
		})
	}
	return plot.ConstantTicks(ticks)
}

// groupOf and subjectOf fall back to "unknown" so a rendering of loose
// folders still produces a usable filename.
func groupOf(subjectPath string) string {
	if g := acquisition.ExtractGroup(subjectPath); g != "" {
		return g
	}
	return "unknown"
}

func subjectOf(subjectPath string) string {
	if s := acquisition.ExtractSubject(subjectPath); s != "" {
		return s
	}
	return "unknown"
}

// dayTitle formats the plot title as "Monday | 2022-07-04".
func dayTitle(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s | %s", t.Weekday(), date)
}
