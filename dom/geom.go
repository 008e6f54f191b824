package dom

import "math"

// Coord is a position in host pixels.
type Coord struct {
	X, Y float64
}

type Size struct {
	W, H float64
}

// Rect is an axis aligned rectangle in host pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Left() float64    { return r.X }
func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Top() float64     { return r.Y }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

func (r Rect) Contains(c Coord) bool {
	return c.X >= r.Left() && c.X <= r.Right() && c.Y >= r.Top() && c.Y <= r.Bottom()
}

// Union returns the smallest rectangle covering all non empty rectangles.
func Union(rects ...Rect) Rect {
	var (
		res   Rect
		found bool
	)
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		if !found {
			res, found = r, true
			continue
		}
		left, top := math.Min(res.Left(), r.Left()), math.Min(res.Top(), r.Top())
		right, bottom := math.Max(res.Right(), r.Right()), math.Max(res.Bottom(), r.Bottom())
		res = Rect{X: left, Y: top, W: right - left, H: bottom - top}
	}
	return res
}
