package heuristic

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// segmentPerson separates foreground from background by color distance to
// a background estimate sampled from the image border, keeping the largest
// foreground blob as the person mask. Skin-colored pixels are always
// foreground.
func (e *Engine) segmentPerson(img image.Image, frame types.Box) ([]observation.Observation, error) {
	small := imaging.Fit(img, e.config.SaliencyMapSize, e.config.SaliencyMapSize, imaging.Lanczos)
	bounds := small.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil, nil
	}

	background := borderMeanColor(small)

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := small.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			if isSkin(r8, g8, b8) {
				mask[y][x] = true
				continue
			}
			c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
			mask[y][x] = c.DistanceLab(background) > 0.18
		}
	}

	comp := largestComponent(mask, width*height/100)
	if comp == nil {
		return nil, nil
	}
	return []observation.Observation{maskObservation(comp, width, height, frame, observation.SegmentationPerson, 0.6)}, nil
}

// segmentDocument isolates the largest bright region, the usual appearance
// of paper against a darker surface.
func (e *Engine) segmentDocument(img image.Image, frame types.Box) ([]observation.Observation, error) {
	small := imaging.Fit(img, e.config.SaliencyMapSize, e.config.SaliencyMapSize, imaging.Lanczos)
	gray := grayMatrix(small)
	height := len(gray)
	if height < 3 {
		return nil, nil
	}
	width := len(gray[0])

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			mask[y][x] = gray[y][x] > 170
		}
	}

	comp := largestComponent(mask, width*height/50)
	if comp == nil {
		return nil, nil
	}

	// Documents fill their bounding box; use fill ratio as confidence.
	minX, minY, maxX, maxY := componentBounds(comp)
	fill := float64(len(comp)) / float64((maxX-minX+1)*(maxY-minY+1))
	return []observation.Observation{maskObservation(comp, width, height, frame, observation.SegmentationDocument, fill)}, nil
}

// borderMeanColor estimates the background color from the outermost pixel
// ring.
func borderMeanColor(img image.Image) colorful.Color {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var sr, sg, sb float64
	n := 0
	sample := func(x, y int) {
		r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
		sr += float64(r>>8) / 255
		sg += float64(g>>8) / 255
		sb += float64(b>>8) / 255
		n++
	}
	for x := 0; x < width; x++ {
		sample(x, 0)
		sample(x, height-1)
	}
	for y := 1; y < height-1; y++ {
		sample(0, y)
		sample(width-1, y)
	}
	if n == 0 {
		return colorful.Color{}
	}
	return colorful.Color{R: sr / float64(n), G: sg / float64(n), B: sb / float64(n)}
}

func largestComponent(mask [][]bool, minPts int) []image.Point {
	if minPts < 8 {
		minPts = 8
	}
	var largest []image.Point
	for _, comp := range connectedComponents(mask, minPts) {
		if len(comp) > len(largest) {
			largest = comp
		}
	}
	return largest
}

// maskObservation renders a component into a grayscale mask and wraps it
// with its normalized bounding box.
func maskObservation(comp []image.Point, width, height int, frame types.Box, kind observation.SegmentationKind, confidence float64) observation.Observation {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	for _, p := range comp {
		mask.SetGray(p.X, p.Y, color.Gray{Y: 255})
	}

	minX, minY, maxX, maxY := componentBounds(comp)
	box := mapBox(frame, types.Box{
		X: float64(minX) / float64(width),
		Y: float64(minY) / float64(height),
		W: float64(maxX-minX+1) / float64(width),
		H: float64(maxY-minY+1) / float64(height),
	})
	return observation.NewSegmentation(kind, mask, box, math.Min(confidence, 1))
}
