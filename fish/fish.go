// Package fish draws the wooden fish and its mallet as a small indexed
// pixel grid. The TUI renders it with half-block characters and the GUI
// with rectangles; both map indices to colours per theme.
package fish

import "math"

// Grid size in pixels. Terminal rows hold two pixels each.
const (
	Width  = 44
	Height = 30
)

// Pixel indices.
const (
	Empty = iota
	Outline
	Body
	Grain
	Slot
	Eye
	Handle
	Head
	Spark
	NumColors
)

const (
	centerX = 20.0
	centerY = 18.0
	radiusX = 16.0
	radiusY = 10.0

	impactX = centerX + 6
	impactY = centerY - radiusY
)

// Pixels draws the fish. strike is the remaining flash in [0,1]: 1 right
// after a knock, 0 at rest. The mallet is down while strike > 0.5.
func Pixels(strike float64) [][]int {
	strike = math.Max(0, math.Min(1, strike))
	px := make([][]int, Height)
	for y := range px {
		px[y] = make([]int, Width)
	}

	for y := range Height {
		for x := range Width {
			px[y][x] = body(float64(x)+0.5, float64(y)+0.5)
		}
	}

	drawMallet(px, strike > 0.5)
	if strike > 0 {
		drawSparks(px, strike)
	}
	return px
}

func body(x, y float64) int {
	dx := (x - centerX) / radiusX
	dy := (y - centerY) / radiusY
	n := dx*dx + dy*dy

	// tail fin behind the body
	if n >= 1 {
		tx := x - (centerX + radiusX - 2)
		if tx > 0 && tx < 7 && math.Abs(y-centerY) < tx*0.7+0.5 {
			if math.Abs(y-centerY) > tx*0.7-0.8 || tx > 6 {
				return Outline
			}
			return Body
		}
		return Empty
	}
	if n > 0.82 {
		return Outline
	}

	// the resonating slot cut into the mouth
	if x < centerX-radiusX*0.25 && math.Abs(y-centerY) < 1.1 {
		return Slot
	}

	ex, ey := x-(centerX-radiusX*0.55), y-(centerY-radiusY*0.45)
	if ex*ex+ey*ey < 2.2 {
		return Eye
	}

	// scale arcs
	if dx > -0.1 && n > 0.15 && n < 0.6 {
		if int(math.Sqrt(n)*12)%3 == 0 {
			return Grain
		}
	}
	return Body
}

func drawMallet(px [][]int, down bool) {
	headX, headY := int(impactX)-3, 1
	if down {
		headY = int(impactY) - 3
	}
	for y := headY; y < headY+3; y++ {
		for x := headX; x < headX+7; x++ {
			set(px, x, y, Head)
		}
	}
	// handle runs up and right from the head
	hx, hy := headX+7, headY+1
	for i := 0; i < 10; i++ {
		set(px, hx+i, hy-i/3, Handle)
	}
}

func drawSparks(px [][]int, strike float64) {
	r := (1-strike)*8 + 4
	for y := range Height {
		for x := range Width {
			dx := float64(x) + 0.5 - impactX
			dy := (float64(y) + 0.5 - impactY) * 1.4
			d := math.Sqrt(dx*dx + dy*dy)
			if math.Abs(d-r) < 0.6 && px[y][x] == Empty {
				px[y][x] = Spark
			}
		}
	}
}

func set(px [][]int, x, y, c int) {
	if y >= 0 && y < Height && x >= 0 && x < Width {
		px[y][x] = c
	}
}
