package heuristic

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// analyzeSaliency builds a color-contrast saliency heatmap and derives
// salient regions from it. Attention mode keeps the few strongest regions;
// objectness mode keeps every region that looks object-like. Both modes
// produce one Saliency observation.
func (e *Engine) analyzeSaliency(img image.Image, frame types.Box, mode task.SaliencyMode) ([]observation.Observation, error) {
	size := e.config.SaliencyMapSize
	small := imaging.Fit(img, size, size, imaging.Lanczos)
	bounds := small.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return []observation.Observation{observation.NewSaliency(nil, nil, 0)}, nil
	}

	// Global mean color in Lab space; per-pixel saliency is the distance
	// from it, mixed with local edge strength.
	var sumL, sumA, sumB float64
	labs := make([][3]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c, ok := colorful.MakeColor(small.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				continue
			}
			l, a, b := c.Lab()
			labs[y*width+x] = [3]float64{l, a, b}
			sumL += l
			sumA += a
			sumB += b
		}
	}
	n := float64(width * height)
	meanL, meanA, meanB := sumL/n, sumA/n, sumB/n

	gray := grayMatrix(small)
	heat := make([][]float64, height)
	maxHeat := 0.0
	for y := 0; y < height; y++ {
		heat[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			lab := labs[y*width+x]
			colorDist := math.Sqrt((lab[0]-meanL)*(lab[0]-meanL) +
				(lab[1]-meanA)*(lab[1]-meanA) + (lab[2]-meanB)*(lab[2]-meanB))

			edge := 0.0
			if x > 0 && y > 0 && x < width-1 && y < height-1 {
				gx, gy := sobelAt(gray, x, y)
				edge = math.Hypot(gx, gy) / (4 * 255)
			}

			h := 0.7*colorDist + 0.3*edge
			heat[y][x] = h
			if h > maxHeat {
				maxHeat = h
			}
		}
	}

	heatmap := image.NewGray(image.Rect(0, 0, width, height))
	if maxHeat > 0 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				heatmap.SetGray(x, y, grayLevel(heat[y][x]/maxHeat))
			}
		}
	}

	boxes := e.salientBoxes(heat, maxHeat, width, height, mode)
	for i := range boxes {
		boxes[i] = mapBox(frame, boxes[i])
	}

	confidence := 0.0
	if maxHeat > 0 {
		confidence = math.Min(maxHeat, 1)
	}
	return []observation.Observation{observation.NewSaliency(heatmap, boxes, confidence)}, nil
}

// salientBoxes thresholds the heatmap and turns connected hot regions into
// normalized boxes, strongest first.
func (e *Engine) salientBoxes(heat [][]float64, maxHeat float64, width, height int, mode task.SaliencyMode) []types.Box {
	if maxHeat == 0 {
		return nil
	}

	threshold := 0.5 * maxHeat
	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			mask[y][x] = heat[y][x] >= threshold
		}
	}

	minPts := int(float64(width*height) * e.config.MinRegionRatio)
	if minPts < 4 {
		minPts = 4
	}

	type scored struct {
		box   types.Box
		score float64
	}
	var regions []scored
	for _, comp := range connectedComponents(mask, minPts) {
		minX, minY, maxX, maxY := componentBounds(comp)
		var sum float64
		for _, p := range comp {
			sum += heat[p.Y][p.X]
		}
		regions = append(regions, scored{
			box: types.Box{
				X: float64(minX) / float64(width),
				Y: float64(minY) / float64(height),
				W: float64(maxX-minX+1) / float64(width),
				H: float64(maxY-minY+1) / float64(height),
			},
			score: sum / float64(len(comp)),
		})
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].score > regions[j].score })

	limit := e.config.MaxObservations
	if mode == task.SaliencyAttention && limit > 3 {
		// Attention maps model gaze, which concentrates on few regions.
		limit = 3
	}
	if len(regions) > limit {
		regions = regions[:limit]
	}

	boxes := make([]types.Box, len(regions))
	for i, r := range regions {
		boxes[i] = r.box
	}
	return boxes
}

func grayLevel(v float64) color.Gray {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return color.Gray{Y: uint8(v*255 + 0.5)}
}
