// Package series holds bounded observation histories for the polling controllers.
package series

import "time"

// DefaultCapacity is the number of points kept when no capacity is given.
const DefaultCapacity = 50

// Point is one timestamped observation.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Series is a bounded FIFO of points. When full, appending evicts the oldest
// point. A Series is not safe for concurrent use.
type Series struct {
	buf   []Point
	index int
	cap   int
}

// New returns an empty series. A capacity below 1 selects DefaultCapacity.
func New(capacity int) *Series {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Series{buf: make([]Point, 0, capacity), cap: capacity}
}

// Append adds a point, evicting the oldest one when the series is full.
func (s *Series) Append(at time.Time, value float64) {
	p := Point{At: at, Value: value}
	if len(s.buf) < s.cap {
		s.buf = append(s.buf, p)
	} else {
		s.buf[s.index] = p
	}
	s.index = (s.index + 1) % s.cap
}

// Len returns the number of points held.
func (s *Series) Len() int { return len(s.buf) }

// Cap returns the maximum number of points held.
func (s *Series) Cap() int { return s.cap }

// Points returns the held points oldest first. The slice is a copy.
func (s *Series) Points() []Point {
	out := make([]Point, 0, len(s.buf))
	if len(s.buf) < s.cap {
		return append(out, s.buf...)
	}
	out = append(out, s.buf[s.index:]...)
	return append(out, s.buf[:s.index]...)
}

// Values returns the held values oldest first. The slice is a copy.
func (s *Series) Values() []float64 {
	points := s.Points()
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Last returns the newest point.
func (s *Series) Last() (Point, bool) { return s.at(1) }

// Prev returns the point before the newest one.
func (s *Series) Prev() (Point, bool) { return s.at(2) }

// at returns the n-th newest point, n starting at 1.
func (s *Series) at(n int) (Point, bool) {
	if n > len(s.buf) {
		return Point{}, false
	}
	i := (s.index - n + s.cap) % s.cap
	if len(s.buf) < s.cap {
		i = len(s.buf) - n
	}
	return s.buf[i], true
}

// Direction is the movement of the newest value against the previous one.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// Arrow returns the display glyph for d.
func (d Direction) Arrow() string {
	switch d {
	case Up:
		return "▲"
	case Down:
		return "▼"
	default:
		return "●"
	}
}

// Trend compares cur with prev.
func Trend(prev, cur float64) Direction {
	switch {
	case cur > prev:
		return Up
	case cur < prev:
		return Down
	default:
		return Flat
	}
}

// Trend is the direction of the newest point against the previous one. A
// series with fewer than two points is Flat.
func (s *Series) Trend() Direction {
	last, ok := s.Last()
	if !ok {
		return Flat
	}
	prev, ok := s.Prev()
	if !ok {
		return Flat
	}
	return Trend(prev.Value, last.Value)
}
