// Package runningstat implements Knuth and Welford's method for computing the standard deviation.
package runningstat

import (
	"math"
)

// IntStat collects statistics of unsigned integer inputs.
// Algorithm comes from https://www.johndcook.com/blog/standard_deviation/ .
// The zero value is ready to use.
type IntStat struct {
	n        uint64
	m1, m2   float64
	min, max uint64
}

// Push adds an input.
func (s *IntStat) Push(x uint64) {
	s.n++
	if s.n == 1 {
		s.m1, s.m2 = float64(x), 0
		s.min, s.max = x, x
		return
	}
	s.min, s.max = min(s.min, x), max(s.max, x)
	delta := float64(x) - s.m1
	s.m1 += delta / float64(s.n)
	s.m2 += delta * (float64(x) - s.m1)
}

// Clear deletes collected data.
func (s *IntStat) Clear() {
	*s = IntStat{}
}

// Read returns current statistics.
func (s IntStat) Read() (o Snapshot) {
	o.Count = s.n
	if s.n == 0 {
		return o
	}
	o.Mean, o.Min, o.Max = s.m1, s.min, s.max
	if s.n > 1 {
		o.Variance = s.m2 / float64(s.n-1)
		o.Stdev = math.Sqrt(o.Variance)
	}
	return o
}

// Snapshot contains a reading of IntStat.
type Snapshot struct {
	Count    uint64  `json:"count"`
	Mean     float64 `json:"mean"`     // valid if count>0
	Variance float64 `json:"variance"` // valid if count>1
	Stdev    float64 `json:"stdev"`    // valid if count>1
	Min      uint64  `json:"min"`      // valid if count>0
	Max      uint64  `json:"max"`      // valid if count>0
}
