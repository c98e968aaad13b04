package schedule

import (
	"errors"
	"sort"
)

// ErrAllDevicesAbsent is returned when the watch and both MuscleBANs
// produced no evidence for an entire day: with only the phone left there is
// no device on the shared schedule to infer session times from.
var ErrAllDevicesAbsent = errors.New("watch and both muscleBANs absent for the day, cannot infer sessions")

// ResolveAbsentDevices handles devices that are missing for an entire day:
// present neither in the observed records nor in the reconciled missing
// records. Each such device is assigned, as its inferred missing sessions,
// the merged observed+reconciled times of the first device in priority
// order (mBAN left, mBAN right, watch) that has observed data, with the
// nominal session length for each.
//
// It returns a new missing map; neither input is mutated. If all three
// scheduled devices are absent it returns ErrAllDevicesAbsent.
func (r *Reconciler) ResolveAbsentDevices(observations, missing map[Device]Record) (map[Device]Record, error) {
	resolved := make(map[Device]Record, len(missing))
	for device, rec := range missing {
		resolved[device] = rec
	}

	var absent []Device
	for _, device := range ScheduledDevices {
		_, observed := observations[device]
		_, reconciled := missing[device]
		if !observed && !reconciled {
			absent = append(absent, device)
		}
	}
	if len(absent) == 0 {
		return resolved, nil
	}
	if len(absent) == len(ScheduledDevices) {
		return nil, ErrAllDevicesAbsent
	}

	var reference Device
	for _, device := range referencePriority {
		if device == DevicePhone {
			continue
		}
		if _, ok := observations[device]; ok {
			reference = device
			break
		}
	}
	if reference == "" {
		// Evidence exists only in the reconciled set; no observed device can
		// anchor an inference, so leave the absent devices unresolved.
		return resolved, nil
	}

	refTimes := append([]TimeOfDay{}, observations[reference].StartTimes...)
	if rec, ok := missing[reference]; ok {
		refTimes = append(refTimes, rec.StartTimes...)
	}
	sort.Slice(refTimes, func(i, j int) bool { return refTimes[i] < refTimes[j] })

	for _, device := range absent {
		lengths := make([]int, len(refTimes))
		for i := range lengths {
			lengths[i] = r.nominalLength()
		}
		resolved[device] = Record{
			StartTimes: append([]TimeOfDay{}, refTimes...),
			Lengths:    lengths,
		}
	}

	return resolved, nil
}
