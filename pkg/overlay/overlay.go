// Package overlay draws analysis observations onto an image for
// inspection. It is presentation glue: it consumes observations and the
// geometry helpers but contains no detection logic.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Style controls how observations are rendered.
type Style struct {
	// Stroke is the box/line thickness in pixels; 0 picks one relative to
	// the image size.
	Stroke int
	// FlipY renders for a bottom-left-origin surface.
	FlipY bool
	// Labels draws a type label next to each observation.
	Labels bool
}

var (
	colorFace      = color.NRGBA{0, 255, 0, 255}
	colorHuman     = color.NRGBA{0, 170, 255, 255}
	colorRectangle = color.NRGBA{255, 204, 0, 255}
	colorSaliency  = color.NRGBA{255, 0, 255, 255}
	colorHorizon   = color.NRGBA{255, 0, 0, 255}
	colorLandmark  = color.NRGBA{255, 255, 255, 255}
	colorContour   = color.NRGBA{0, 255, 255, 255}
	colorMask      = color.NRGBA{255, 80, 0, 90}
)

// Draw renders the observations onto a copy of the image with default
// style.
func Draw(img image.Image, obs []observation.Observation) *image.NRGBA {
	return DrawWithStyle(img, obs, Style{Labels: true})
}

// DrawWithStyle renders the observations onto a copy of the image.
func DrawWithStyle(img image.Image, obs []observation.Observation, style Style) *image.NRGBA {
	canvas := imaging.Clone(img)
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()

	stroke := style.Stroke
	if stroke <= 0 {
		stroke = int(math.Max(2, 0.004*float64(min(w, h))))
	}

	for _, o := range obs {
		switch v := o.(type) {
		case *observation.Horizon:
			drawHorizon(canvas, v.Angle, stroke)
			if style.Labels {
				label(canvas, fmt.Sprintf("horizon %.1f°", v.Angle*180/math.Pi), 4, 14, colorHorizon)
			}
		case *observation.Face:
			drawBox(canvas, adjust(v.Box, style), colorFace, stroke, style, "face")
		case *observation.Human:
			drawBox(canvas, adjust(v.Box, style), colorHuman, stroke, style, "human")
		case *observation.Rectangle:
			drawBox(canvas, adjust(v.Box, style), colorRectangle, stroke, style, "rect")
		case *observation.FaceQuality:
			drawBox(canvas, adjust(v.Box, style), colorFace, stroke, style, fmt.Sprintf("q=%.2f", v.Quality))
		case *observation.Saliency:
			for _, b := range v.SalientObjects {
				drawBox(canvas, adjust(b, style), colorSaliency, stroke, style, "salient")
			}
		case *observation.FaceLandmarks:
			drawBox(canvas, adjust(v.Box, style), colorFace, stroke, style, "face")
			for _, region := range v.Regions {
				for _, p := range region.Points {
					drawCross(canvas, point(p, style, w, h), colorLandmark, stroke)
				}
			}
		case *observation.Contours:
			for _, path := range v.Paths {
				drawPath(canvas, path, style, colorContour)
			}
		case *observation.Segmentation:
			if v.Mask != nil {
				blendMask(canvas, v.Mask)
			}
			drawBox(canvas, adjust(v.Box, style), colorMask, stroke, style, string(v.Kind))
		case *observation.BodyPose:
			drawBox(canvas, adjust(v.Box, style), colorHuman, stroke, style, "pose")
			for _, p := range v.Joints {
				drawCross(canvas, point(p, style, w, h), colorLandmark, stroke)
			}
		}
	}
	return canvas
}

func adjust(b types.Box, style Style) types.Box {
	if style.FlipY {
		return b.FlipY()
	}
	return b
}

func point(p types.Point, style Style, w, h int) image.Point {
	if style.FlipY {
		p = p.FlipY()
	}
	return p.Denormalize(w, h)
}

func drawBox(canvas *image.NRGBA, b types.Box, col color.NRGBA, stroke int, style Style, name string) {
	bounds := canvas.Bounds()
	rect := b.Denormalize(bounds.Dx(), bounds.Dy())

	for s := 0; s < stroke; s++ {
		r := rect.Inset(-s)
		drawHLine(canvas, r.Min.Y, r.Min.X, r.Max.X, col)
		drawHLine(canvas, r.Max.Y-1, r.Min.X, r.Max.X, col)
		drawVLine(canvas, r.Min.X, r.Min.Y, r.Max.Y, col)
		drawVLine(canvas, r.Max.X-1, r.Min.Y, r.Max.Y, col)
	}
	if style.Labels && name != "" {
		label(canvas, name, rect.Min.X+2, rect.Min.Y+12, col)
	}
}

// drawHorizon draws a line through the image center at the horizon angle.
func drawHorizon(canvas *image.NRGBA, angle float64, stroke int) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	// Screen y grows downward, so a positive (counter-clockwise) angle
	// slopes down to the right in pixel space.
	slope := math.Tan(-angle)

	for x := 0; x < w; x++ {
		y := int(cy + (float64(x)-cx)*slope)
		for s := -stroke / 2; s <= stroke/2; s++ {
			if y+s >= 0 && y+s < h {
				canvas.SetNRGBA(x, y+s, colorHorizon)
			}
		}
	}
}

func drawPath(canvas *image.NRGBA, path []types.Point, style Style, col color.NRGBA) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	for _, p := range path {
		pt := point(p, style, w, h)
		if pt.X >= 0 && pt.X < w && pt.Y >= 0 && pt.Y < h {
			canvas.SetNRGBA(pt.X, pt.Y, col)
		}
	}
}

// blendMask tints the canvas where the (possibly smaller) mask is set.
func blendMask(canvas *image.NRGBA, mask *image.Gray) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scaled := imaging.Resize(mask, w, h, imaging.NearestNeighbor)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if r, _, _, _ := scaled.At(x, y).RGBA(); r > 0x7fff {
				c := canvas.NRGBAAt(x, y)
				c.R = blend(c.R, colorMask.R, colorMask.A)
				c.G = blend(c.G, colorMask.G, colorMask.A)
				c.B = blend(c.B, colorMask.B, colorMask.A)
				canvas.SetNRGBA(x, y, c)
			}
		}
	}
}

func blend(dst, src, alpha uint8) uint8 {
	a := uint32(alpha)
	return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
}

func drawCross(canvas *image.NRGBA, p image.Point, col color.NRGBA, size int) {
	if size < 2 {
		size = 2
	}
	drawHLine(canvas, p.Y, p.X-size, p.X+size+1, col)
	drawVLine(canvas, p.X, p.Y-size, p.Y+size+1, col)
}

func drawHLine(canvas *image.NRGBA, y, x0, x1 int, col color.NRGBA) {
	bounds := canvas.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := max(x0, bounds.Min.X); x < min(x1, bounds.Max.X); x++ {
		canvas.SetNRGBA(x, y, col)
	}
}

func drawVLine(canvas *image.NRGBA, x, y0, y1 int, col color.NRGBA) {
	bounds := canvas.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := max(y0, bounds.Min.Y); y < min(y1, bounds.Max.Y); y++ {
		canvas.SetNRGBA(x, y, col)
	}
}

func label(canvas *image.NRGBA, text string, x, y int, col color.NRGBA) {
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
