package visualize

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/prevoccupai/acquisition.report/internal/schedule"
)

// RenderDayChart writes an HTML chart of the day's sessions: one scatter
// series of recorded session starts, one of inferred-missing starts, with
// devices on the Y axis and time of day on the X axis.
func RenderDayChart(w io.Writer, day Day) error {
	lanes := laneIndex(day)

	labels := make([]string, 0, len(lanes))
	for _, device := range deviceOrder {
		if _, ok := lanes[device]; ok {
			labels = append(labels, deviceLabels[device])
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Daily acquisitions", Width: "1000px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    dayTitle(day.Date),
			Subtitle: fmt.Sprintf("subject=%s sessions observed=%d missing=%d", subjectOf(day.SubjectPath), countSessions(day.Observed), countSessions(day.Missing)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 24, Name: "Time (h)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: labels}),
	)

	scatter.AddSeries("recorded", scatterData(day.Observed, lanes), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	scatter.AddSeries("missing", scatterData(day.Missing, lanes), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14, Symbol: "emptyCircle"}))

	return scatter.Render(w)
}

// scatterData maps each session start to (hours, lane index).
func scatterData(records map[schedule.Device]schedule.Record, lanes map[schedule.Device]int) []opts.ScatterData {
	var data []opts.ScatterData
	for _, device := range deviceOrder {
		rec, ok := records[device]
		if !ok {
			continue
		}
		lane, ok := lanes[device]
		if !ok {
			continue
		}
		for _, start := range rec.StartTimes {
			hours := float64(start.Seconds()) / 3600
			data = append(data, opts.ScatterData{
				Name:  start.Clock(),
				Value: []interface{}{hours, lane},
			})
		}
	}
	return data
}

func countSessions(records map[schedule.Device]schedule.Record) int {
	n := 0
	for _, rec := range records {
		n += rec.Sessions()
	}
	return n
}
