package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Default reconciliation parameters, matching the study protocol.
const (
	// DefaultTolerance is the maximum difference under which two observed
	// start times refer to the same session.
	DefaultTolerance = 10 * time.Minute

	// DefaultSamplingRate is the sensors' sampling rate in Hz.
	DefaultSamplingRate = 100

	// SessionDuration is the nominal length of one scheduled recording bout.
	SessionDuration = 20 * time.Minute
)

// HistoryProvider returns a subject's canonical session slots derived from
// their full observation history (typically the SlotClusterer applied over
// folder names from many days). It is only consulted when the daily
// consensus itself under-represents the schedule.
type HistoryProvider func(subjectPath string) ([]TimeOfDay, error)

// Reconciler computes, per device, which of the four scheduled daily
// sessions it failed to record. It holds only configuration; every call
// operates on caller-owned inputs and returns freshly built records.
type Reconciler struct {
	tolerance    time.Duration
	samplingRate int
	history      HistoryProvider
}

// NewReconciler builds a Reconciler. A non-positive tolerance or sampling
// rate falls back to the defaults. history may be nil, in which case the
// historical fallback step is skipped.
func NewReconciler(tolerance time.Duration, samplingRate int, history HistoryProvider) *Reconciler {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if samplingRate <= 0 {
		samplingRate = DefaultSamplingRate
	}
	return &Reconciler{tolerance: tolerance, samplingRate: samplingRate, history: history}
}

// nominalLength is the synthetic sample count assigned to a missing session.
func (r *Reconciler) nominalLength() int {
	return int(SessionDuration/time.Second) * r.samplingRate
}

// MissingData returns, for each scheduled device with fewer than four
// observed sessions, the sessions it is missing. Evidence that a session
// happened comes first from the other devices' observed times for the day
// (the consensus set); when the consensus itself has fewer than four
// entries, the subject's historical slots fill the remaining gaps. Devices
// with four observed sessions and devices for which no evidence of a gap
// exists are simply absent from the result.
func (r *Reconciler) MissingData(subjectPath string, observations map[Device]Record) (map[Device]Record, error) {
	missing := make(map[Device]Record)

	consensus := r.consensus(observations)

	for device, rec := range observations {
		if device == DevicePhone {
			continue
		}
		if rec.Sessions() >= maxDailySessions {
			continue
		}

		gaps := r.missingTimes(consensus, rec.StartTimes)

		// The consensus can under-represent the schedule when every device
		// failed the same session. Fall back to the subject's historical
		// slots for the remainder.
		if rec.Sessions()+len(gaps) < maxDailySessions && r.history != nil {
			slots, err := r.history(subjectPath)
			if err != nil {
				return nil, fmt.Errorf("historical slots for %s: %w", device, err)
			}
			covered := append(append([]TimeOfDay{}, rec.StartTimes...), gaps...)
			gaps = append(gaps, r.missingTimes(slots, covered)...)

			// Conflicting evidence can push the total past the four-session
			// ceiling; drop the last (latest) appended candidate to clamp.
			if rec.Sessions()+len(gaps) > maxDailySessions {
				gaps = gaps[:len(gaps)-1]
			}
		}

		if len(gaps) == 0 {
			continue
		}

		m := Record{
			StartTimes: gaps,
			Lengths:    make([]int, len(gaps)),
		}
		for i := range m.Lengths {
			m.Lengths[i] = r.nominalLength()
		}
		missing[device] = m
	}

	return missing, nil
}

// consensus unions the observed start times of all scheduled devices and
// deduplicates them with tolerance matching: scanning ascending, a time is
// kept only if no already-kept time lies within the tolerance. The result
// is the day's evidence that a session happened on at least one device.
func (r *Reconciler) consensus(observations map[Device]Record) []TimeOfDay {
	var all []TimeOfDay
	for device, rec := range observations {
		if device == DevicePhone {
			continue
		}
		all = append(all, rec.StartTimes...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	var unique []TimeOfDay
	for _, t := range all {
		if !anyWithin(t, unique, r.tolerance) {
			unique = append(unique, t)
		}
	}
	return unique
}

// missingTimes returns the reference times that match none of the device's
// own times within the tolerance.
func (r *Reconciler) missingTimes(reference, observed []TimeOfDay) []TimeOfDay {
	var gaps []TimeOfDay
	for _, t := range reference {
		if !anyWithin(t, observed, r.tolerance) {
			gaps = append(gaps, t)
		}
	}
	return gaps
}
