package schedule

// Device identifies one of the study's recording units for a subject-day.
// The two MuscleBANs are keyed by physical side; the mapping from hardware
// address to side is resolved by the scanner before records reach this
// package.
type Device string

const (
	DevicePhone     Device = "phone"
	DeviceWatch     Device = "watch"
	DeviceMBANLeft  Device = "mban_left"
	DeviceMBANRight Device = "mban_right"
)

// ScheduledDevices are the devices expected to record the four daily
// sessions. The phone is the reference mobile unit and is excluded from
// schedule enforcement.
var ScheduledDevices = []Device{DeviceMBANLeft, DeviceMBANRight, DeviceWatch}

// referencePriority is the order in which a surviving device is picked as
// the timing reference for a device that is absent all day. The phone is
// deliberately last and only ever reached through observed data.
var referencePriority = []Device{DeviceMBANLeft, DeviceMBANRight, DeviceWatch, DevicePhone}

// Record holds the per-day acquisition metadata of one device: parallel
// lists of session start times and sample counts. Both lists are
// append-only during scanning and treated as immutable afterwards.
type Record struct {
	StartTimes []TimeOfDay
	Lengths    []int
}

// Sessions returns the number of sessions in the record.
func (r Record) Sessions() int { return len(r.StartTimes) }
