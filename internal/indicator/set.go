package indicator

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Line is an indicator series aligned index for index with its source series.
// Undefined entries are NaN.
type Line []float64

// At returns the value at i, or None when i is out of range or undefined.
func (l Line) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(l) || math.IsNaN(l[i]) {
		return optional.None[float64]()
	}

	return optional.Some(l[i])
}

// Defined reports whether the value at i is defined.
func (l Line) Defined(i int) bool {
	return i >= 0 && i < len(l) && !math.IsNaN(l[i])
}

// FirstDefined returns the first defined index, or -1.
func (l Line) FirstDefined() int {
	for i, v := range l {
		if !math.IsNaN(v) {
			return i
		}
	}

	return -1
}

// MarshalJSON writes undefined entries as null.
func (l Line) MarshalJSON() ([]byte, error) {
	values := make([]*float64, len(l))
	for i := range l {
		if !math.IsNaN(l[i]) {
			v := l[i]
			values[i] = &v
		}
	}

	return json.Marshal(values)
}

func nanLine(n int) Line {
	line := make(Line, n)
	for i := range line {
		line[i] = math.NaN()
	}

	return line
}

// IndicatorSet holds every computed line for one series. It is never modified
// after Compute returns.
type IndicatorSet struct {
	length int
	lines  map[types.IndicatorName]Line
}

func newIndicatorSet(length int) *IndicatorSet {
	return &IndicatorSet{
		length: length,
		lines:  make(map[types.IndicatorName]Line),
	}
}

func (s *IndicatorSet) put(name types.IndicatorName, line Line) {
	s.lines[name] = line
}

// Len returns the length of the source series.
func (s *IndicatorSet) Len() int {
	return s.length
}

// Line returns the named line. The returned slice must not be modified.
func (s *IndicatorSet) Line(name types.IndicatorName) (Line, bool) {
	line, ok := s.lines[name]

	return line, ok
}

// At returns the named value at bar i.
func (s *IndicatorSet) At(name types.IndicatorName, i int) optional.Option[float64] {
	line, ok := s.lines[name]
	if !ok {
		return optional.None[float64]()
	}

	return line.At(i)
}

// Last returns the named value at the last bar.
func (s *IndicatorSet) Last(name types.IndicatorName) optional.Option[float64] {
	return s.At(name, s.length-1)
}

// Names returns the indicator names in sorted order.
func (s *IndicatorSet) Names() []types.IndicatorName {
	names := make([]types.IndicatorName, 0, len(s.lines))
	for name := range s.lines {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Snapshot returns the value of every indicator at the last bar.
func (s *IndicatorSet) Snapshot() map[types.IndicatorName]optional.Option[float64] {
	snapshot := make(map[types.IndicatorName]optional.Option[float64], len(s.lines))
	for name := range s.lines {
		snapshot[name] = s.Last(name)
	}

	return snapshot
}

// MarshalJSON writes the set as an object of lines.
func (s *IndicatorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.lines)
}
