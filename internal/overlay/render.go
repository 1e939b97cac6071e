package overlay

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// Renderer draws a skeleton onto a frame-sized surface. A real keypoint
// model only has to produce a Skeleton; drawing stays the same.
type Renderer interface {
	Render(w io.Writer, f Frame, s Skeleton) error
}

// PNGRenderer rasterises skeletons onto a transparent RGBA image and encodes
// it as PNG.
type PNGRenderer struct{}

func (PNGRenderer) Render(w io.Writer, f Frame, s Skeleton) error {
	img := Draw(f, s)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}

// Draw clears a frame-sized canvas and draws every segment followed by a
// filled, outlined marker at each point.
func Draw(f Frame, s Skeleton) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if len(s) == 0 {
		return dst
	}
	z := vector.NewRasterizer(f.Width, f.Height)
	stroke := image.NewUniform(f.Style.Stroke)
	fill := image.NewUniform(f.Style.Fill)

	for _, seg := range s.Segments() {
		z.Reset(f.Width, f.Height)
		if !line(z, seg[0], seg[1], f.Style.LineWidth/2) {
			continue
		}
		z.Draw(dst, dst.Bounds(), stroke, image.Point{})
	}

	for _, p := range s {
		// Outline first, then the fill on top leaves a ring of stroke colour.
		z.Reset(f.Width, f.Height)
		circle(z, p, f.Style.Radius+f.Style.LineWidth/2)
		z.Draw(dst, dst.Bounds(), stroke, image.Point{})

		inner := f.Style.Radius - f.Style.LineWidth/2
		if inner <= 0 {
			continue
		}
		z.Reset(f.Width, f.Height)
		circle(z, p, inner)
		z.Draw(dst, dst.Bounds(), fill, image.Point{})
	}
	return dst
}

func line(z *vector.Rasterizer, a, b Point, half float64) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 || half <= 0 {
		return false
	}
	nx, ny := -dy/l*half, dx/l*half
	z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	z.ClosePath()
	return true
}

const circleSteps = 32

func circle(z *vector.Rasterizer, c Point, r float64) {
	z.MoveTo(float32(c.X+r), float32(c.Y))
	for i := 1; i < circleSteps; i++ {
		a := 2 * math.Pi * float64(i) / circleSteps
		z.LineTo(float32(c.X+r*math.Cos(a)), float32(c.Y+r*math.Sin(a)))
	}
	z.ClosePath()
}
