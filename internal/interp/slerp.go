package interp

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is one rotation-vector sample in x, y, z, w component order,
// as delivered by the android rotation vector sensor.
type Quaternion struct {
	X, Y, Z, W float64
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// slerp interpolates between two unit quaternions at fraction t in [0, 1]
// along the shortest great-circle arc.
func slerp(a, b quat.Number, t float64) quat.Number {
	// Flip one endpoint when the pair straddles the double cover, otherwise
	// the arc runs the long way round.
	if dot(a, b) < 0 {
		b = quat.Scale(-1, b)
	}
	q := quat.Mul(a, quat.PowReal(quat.Mul(quat.Inv(a), b), t))
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return q
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp resamples a quaternion time series to fs Hz with spherical linear
// interpolation between neighbouring samples.
func Slerp(times []float64, rotations []Quaternion, fs int) ([]float64, []Quaternion, error) {
	if len(times) != len(rotations) {
		return nil, nil, fmt.Errorf("have %d timestamps for %d rotations", len(times), len(rotations))
	}
	if len(times) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 samples, have %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, nil, fmt.Errorf("time axis not strictly increasing at index %d", i)
		}
	}

	axis := newTimeAxis(times[0], times[len(times)-1], fs)
	out := make([]Quaternion, len(axis))

	k := 0
	for i, t := range axis {
		for k+1 < len(times)-1 && times[k+1] <= t {
			k++
		}
		span := times[k+1] - times[k]
		frac := (t - times[k]) / span
		out[i] = fromNumber(slerp(rotations[k].number(), rotations[k+1].number(), frac))
	}
	return axis, out, nil
}
