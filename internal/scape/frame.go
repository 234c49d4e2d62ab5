package scape

import "strings"

const (
	DotRune   = '#'
	BlankRune = '.'
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Frame is a read-only snapshot of a character grid. Cells hold 0 when blank.
type Frame struct {
	Width  int
	Height int
	cells  []rune
	dot    Point
	hasDot bool
}

func NewFrame(width, height int) Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Frame{Width: width, Height: height, cells: make([]rune, width*height)}
}

func (f Frame) InBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// At returns the cell content, or 0 for blank and out-of-range cells.
func (f Frame) At(x, y int) rune {
	if !f.InBounds(x, y) {
		return 0
	}
	return f.cells[y*f.Width+x]
}

// Dot returns the dot position when one is drawn.
func (f Frame) Dot() (Point, bool) {
	return f.dot, f.hasDot
}

// Lit lists non-blank cells in row-major order.
func (f Frame) Lit() []Point {
	var out []Point
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.cells[y*f.Width+x] != 0 {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

// Center is the integer center cell.
func (f Frame) Center() Point {
	return Point{X: f.Width / 2, Y: f.Height / 2}
}

// DistToWall is the number of cells between p and the closest edge.
func (f Frame) DistToWall(p Point) int {
	return min(p.X, p.Y, f.Width-1-p.X, f.Height-1-p.Y)
}

func (f Frame) String() string {
	var b strings.Builder
	for y := 0; y < f.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < f.Width; x++ {
			c := f.cells[y*f.Width+x]
			if c == 0 {
				c = BlankRune
			}
			b.WriteRune(c)
		}
	}
	return b.String()
}

func (f Frame) clone() Frame {
	out := f
	out.cells = append([]rune(nil), f.cells...)
	return out
}

func (f *Frame) set(x, y int, c rune) {
	f.cells[y*f.Width+x] = c
}

func (f *Frame) setDot(p Point) {
	if f.hasDot && f.At(f.dot.X, f.dot.Y) == DotRune {
		f.set(f.dot.X, f.dot.Y, 0)
	}
	f.set(p.X, p.Y, DotRune)
	f.dot = p
	f.hasDot = true
}
