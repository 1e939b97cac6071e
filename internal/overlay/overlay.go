// Package overlay generates and draws the placeholder skeleton shown on top of
// the live video frame and uploaded still images.
package overlay

import "image/color"

// DefaultPoints is how many keypoints a placeholder skeleton carries.
const DefaultPoints = 15

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Skeleton is an ordered list of keypoints. Segments join consecutive points.
type Skeleton []Point

func (s Skeleton) Segments() [][2]Point {
	if len(s) < 2 {
		return nil
	}
	segs := make([][2]Point, 0, len(s)-1)
	for i := 0; i < len(s)-1; i++ {
		segs = append(segs, [2]Point{s[i], s[i+1]})
	}
	return segs
}

func (s Skeleton) Clone() Skeleton {
	if s == nil {
		return nil
	}
	out := make(Skeleton, len(s))
	copy(out, s)
	return out
}

type Style struct {
	Stroke    color.RGBA
	Fill      color.RGBA
	LineWidth float64
	Radius    float64
}

// Frame is the drawing surface a skeleton is placed on. Points are sampled
// uniformly inside [MinX,MaxX) x [MinY,MaxY).
type Frame struct {
	Width, Height int
	MinX, MinY    float64
	MaxX, MaxY    float64
	Style         Style
}

func (f Frame) Contains(p Point) bool {
	return p.X >= f.MinX && p.X <= f.MaxX && p.Y >= f.MinY && p.Y <= f.MaxY
}

var (
	indigo    = color.RGBA{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff}
	indigoPal = color.RGBA{R: 0xc7, G: 0xd2, B: 0xfe, A: 0xff}
)

// LiveFrame matches the 640x480 camera capture.
var LiveFrame = Frame{
	Width: 640, Height: 480,
	MinX: 150, MinY: 100,
	MaxX: 490, MaxY: 380,
	Style: Style{Stroke: indigo, Fill: indigoPal, LineWidth: 4, Radius: 6},
}

// ImageFrame matches the canvas laid over an uploaded image.
var ImageFrame = Frame{
	Width: 500, Height: 400,
	MinX: 100, MinY: 50,
	MaxX: 400, MaxY: 350,
	Style: Style{Stroke: indigo, Fill: indigoPal, LineWidth: 3, Radius: 5},
}

// Source yields uniform floats in [0,1).
type Source interface {
	Float64() float64
}

// Generate places n random points inside the frame's sampling region.
// n below 2 is raised to 2 so there is always at least one segment.
func Generate(src Source, f Frame, n int) Skeleton {
	if n < 2 {
		n = 2
	}
	w := f.MaxX - f.MinX
	h := f.MaxY - f.MinY
	pts := make(Skeleton, n)
	for i := range pts {
		pts[i] = Point{
			X: f.MinX + src.Float64()*w,
			Y: f.MinY + src.Float64()*h,
		}
	}
	return pts
}
