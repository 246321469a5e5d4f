package heuristic

import (
	"image"
	"math"

	"github.com/menta2k/vision-tasks/pkg/observation"
)

// detectHorizon estimates the dominant near-horizontal edge orientation.
// It always produces exactly one observation: a uniform image yields a
// level horizon at low confidence rather than no result.
func (e *Engine) detectHorizon(img image.Image) ([]observation.Observation, error) {
	gray := smoothedGray(img, 2)
	height := len(gray)
	if height < 3 || len(gray[0]) < 3 {
		return []observation.Observation{observation.NewHorizon(0, 0)}, nil
	}
	width := len(gray[0])

	// Histogram of edge orientations weighted by gradient magnitude.
	// Bins span (-90, 90] degrees relative to horizontal.
	const bins = 180
	hist := make([]float64, bins)
	angleSum := make([]float64, bins)
	var total float64

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx, gy := sobelAt(gray, x, y)
			mag := math.Hypot(gx, gy) / 4
			if mag < e.config.EdgeThreshold {
				continue
			}
			// Edge direction is perpendicular to the gradient.
			angle := math.Atan2(gy, gx) - math.Pi/2
			for angle <= -math.Pi/2 {
				angle += math.Pi
			}
			for angle > math.Pi/2 {
				angle -= math.Pi
			}
			bin := int((angle + math.Pi/2) / math.Pi * bins)
			if bin >= bins {
				bin = bins - 1
			}
			hist[bin] += mag
			angleSum[bin] += angle * mag
			total += mag
		}
	}

	if total == 0 {
		// No edges at all: assume a level horizon.
		return []observation.Observation{observation.NewHorizon(0, 0.1)}, nil
	}

	// Dominant orientation with a small neighborhood to absorb binning.
	best := 0
	var bestWeight float64
	for b := range hist {
		w := hist[b]
		if b > 0 {
			w += hist[b-1]
		}
		if b < bins-1 {
			w += hist[b+1]
		}
		if w > bestWeight {
			bestWeight = w
			best = b
		}
	}

	var weight, weightedAngle float64
	for _, b := range []int{best - 1, best, best + 1} {
		if b < 0 || b >= bins {
			continue
		}
		weight += hist[b]
		weightedAngle += angleSum[b]
	}

	angle := 0.0
	if weight > 0 {
		angle = weightedAngle / weight
	}
	confidence := math.Min(weight/total, 1)
	return []observation.Observation{observation.NewHorizon(angle, confidence)}, nil
}
