// Package interp resamples raw sensor recordings to an equidistant time
// axis. The recorders deliver irregularly spaced samples with nanosecond
// device timestamps; the analysis pipeline expects a fixed rate (100 Hz by
// default). Continuous signals use natural cubic splines, stepped signals
// (heart rate) use a previous-value hold, and rotation vectors use
// spherical linear interpolation over quaternions.
package interp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Series is a block of sampled sensor data: a strictly increasing time axis
// in seconds and one value slice per channel, all the same length.
type Series struct {
	Time     []float64
	Channels [][]float64
}

// RebaseNanos converts a device timestamp axis (nanoseconds, arbitrary
// epoch) to seconds elapsed since the first sample.
func RebaseNanos(ts []int64) []float64 {
	out := make([]float64, len(ts))
	if len(ts) == 0 {
		return out
	}
	t0 := ts[0]
	for i, t := range ts {
		out[i] = float64(t-t0) * 1e-9
	}
	return out
}

// newTimeAxis builds the resampled axis: fs samples per second from start
// up to but not including stop.
func newTimeAxis(start, stop float64, fs int) []float64 {
	step := 1.0 / float64(fs)
	n := int(math.Ceil((stop - start) / step))
	if s := start + float64(n-1)*step; n > 0 && s >= stop {
		n--
	}
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = start + float64(i)*step
	}
	return axis
}

func (s Series) validate() error {
	if len(s.Time) < 2 {
		return fmt.Errorf("need at least 2 samples, have %d", len(s.Time))
	}
	for i, ch := range s.Channels {
		if len(ch) != len(s.Time) {
			return fmt.Errorf("channel %d has %d samples, time axis has %d", i, len(ch), len(s.Time))
		}
	}
	for i := 1; i < len(s.Time); i++ {
		if s.Time[i] <= s.Time[i-1] {
			return fmt.Errorf("time axis not strictly increasing at index %d", i)
		}
	}
	return nil
}

// CubicSpline resamples the series to fs Hz with a natural cubic spline per
// channel.
func CubicSpline(s Series, fs int) (Series, error) {
	if err := s.validate(); err != nil {
		return Series{}, err
	}

	axis := newTimeAxis(s.Time[0], s.Time[len(s.Time)-1], fs)
	out := Series{Time: axis, Channels: make([][]float64, len(s.Channels))}

	for i, ch := range s.Channels {
		var spline interp.NaturalCubic
		if err := spline.Fit(s.Time, ch); err != nil {
			return Series{}, fmt.Errorf("fitting channel %d: %w", i, err)
		}
		values := make([]float64, len(axis))
		for j, t := range axis {
			values[j] = spline.Predict(t)
		}
		out.Channels[i] = values
	}
	return out, nil
}

// ZeroOrderHold resamples the series to fs Hz by carrying each sample
// forward until the next one. gonum's PiecewiseConstant is left-continuous
// (it holds the *next* knot), so the previous-value hold is done directly
// on the sorted time axis.
func ZeroOrderHold(s Series, fs int) (Series, error) {
	if err := s.validate(); err != nil {
		return Series{}, err
	}

	axis := newTimeAxis(s.Time[0], s.Time[len(s.Time)-1], fs)
	out := Series{Time: axis, Channels: make([][]float64, len(s.Channels))}

	for i, ch := range s.Channels {
		values := make([]float64, len(axis))
		for j, t := range axis {
			// Index of the last sample at or before t.
			k := sort.SearchFloat64s(s.Time, t)
			if k == len(s.Time) || s.Time[k] > t {
				k--
			}
			values[j] = ch[k]
		}
		out.Channels[i] = values
	}
	return out, nil
}

// hrSegmentGap is the time-axis jump above which the heart-rate stream is
// considered to have paused. The watch samples HR at 1 Hz for about a
// minute, then sleeps for three to spare the battery.
const hrSegmentGap = 2.0

// HeartRate resamples a heart-rate series to fs Hz. The stream's on/off
// duty cycle is preserved: each active segment is resampled with a
// previous-value hold on its own, and the pauses stay unsampled.
func HeartRate(s Series, fs int) (Series, error) {
	if err := s.validate(); err != nil {
		return Series{}, err
	}
	if len(s.Channels) != 1 {
		return Series{}, fmt.Errorf("heart rate series must have exactly 1 channel, has %d", len(s.Channels))
	}

	var out Series
	out.Channels = make([][]float64, 1)

	start := 0
	for i := 1; i <= len(s.Time); i++ {
		if i < len(s.Time) && s.Time[i]-s.Time[i-1] <= hrSegmentGap {
			continue
		}
		if i-start >= 2 {
			segment := Series{
				Time:     s.Time[start:i],
				Channels: [][]float64{s.Channels[0][start:i]},
			}
			resampled, err := ZeroOrderHold(segment, fs)
			if err != nil {
				return Series{}, fmt.Errorf("segment at %g: %w", s.Time[start], err)
			}
			out.Time = append(out.Time, resampled.Time...)
			out.Channels[0] = append(out.Channels[0], resampled.Channels[0]...)
		}
		start = i
	}
	return out, nil
}
