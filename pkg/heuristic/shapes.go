package heuristic

import (
	"image"
	"math"
	"sort"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// connectedComponents groups set pixels of a binary mask into 8-connected
// components, discarding components smaller than minPts.
func connectedComponents(mask [][]bool, minPts int) [][]image.Point {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	var components [][]image.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			// Iterative flood fill; recursion would overflow on large blobs.
			var comp []image.Point
			stack := []image.Point{{X: x, Y: y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
					continue
				}
				if visited[p.Y][p.X] || !mask[p.Y][p.X] {
					continue
				}
				visited[p.Y][p.X] = true
				comp = append(comp, p)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
					}
				}
			}
			if len(comp) >= minPts {
				components = append(components, comp)
			}
		}
	}
	return components
}

func componentBounds(comp []image.Point) (minX, minY, maxX, maxY int) {
	minX, minY = comp[0].X, comp[0].Y
	maxX, maxY = minX, minY
	for _, p := range comp {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY
}

// detectRectangles finds axis-aligned quads by comparing each edge
// contour's length against the perimeter of its bounding box. A perfect
// rectangle's contour matches the perimeter exactly.
func (e *Engine) detectRectangles(img image.Image, frame types.Box) ([]observation.Observation, error) {
	// Unsmoothed luminance keeps step edges sharp for the perimeter check.
	gray := grayMatrix(img)
	height := len(gray)
	if height == 0 {
		return nil, nil
	}
	width := len(gray[0])

	edges := edgeMask(gray, e.config.EdgeThreshold)
	minArea := int(float64(width*height) * e.config.MinRegionRatio)

	type candidate struct {
		box   types.Box
		score float64
		area  int
	}
	var found []candidate

	for _, contour := range connectedComponents(edges, 10) {
		minX, minY, maxX, maxY := componentBounds(contour)
		w := maxX - minX
		h := maxY - minY
		area := w * h
		if area < minArea || w == 0 || h == 0 {
			continue
		}

		expectedPerimeter := 2 * (w + h)
		rectangularity := 1 - math.Abs(float64(len(contour)-expectedPerimeter))/float64(expectedPerimeter)
		if rectangularity < e.config.RectangleTolerance {
			continue
		}

		found = append(found, candidate{
			box: types.Box{
				X: float64(minX) / float64(width),
				Y: float64(minY) / float64(height),
				W: float64(w) / float64(width),
				H: float64(h) / float64(height),
			},
			score: rectangularity,
			area:  area,
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].area > found[j].area })
	if len(found) > e.config.MaxObservations {
		found = found[:e.config.MaxObservations]
	}

	obs := make([]observation.Observation, len(found))
	for i, c := range found {
		obs[i] = observation.NewRectangle(mapBox(frame, c.box), c.score)
	}
	return obs, nil
}

// detectContours returns the edge contours of the image as normalized
// paths, longest first. Paths are subsampled to keep them tractable.
func (e *Engine) detectContours(img image.Image, frame types.Box) ([]observation.Observation, error) {
	gray := grayMatrix(img)
	height := len(gray)
	if height == 0 {
		return nil, nil
	}
	width := len(gray[0])

	edges := edgeMask(gray, e.config.EdgeThreshold)
	contours := connectedComponents(edges, 10)
	if len(contours) == 0 {
		// No contours is a legal empty result, not an error.
		return nil, nil
	}

	sort.Slice(contours, func(i, j int) bool { return len(contours[i]) > len(contours[j]) })
	if len(contours) > e.config.MaxObservations {
		contours = contours[:e.config.MaxObservations]
	}

	const maxPathPoints = 256
	paths := make([][]types.Point, len(contours))
	var total, kept int
	for i, contour := range contours {
		step := 1
		if len(contour) > maxPathPoints {
			step = len(contour) / maxPathPoints
		}
		var path []types.Point
		for j := 0; j < len(contour); j += step {
			p := contour[j]
			path = append(path, mapPoint(frame, types.Point{
				X: float64(p.X) / float64(width),
				Y: float64(p.Y) / float64(height),
			}))
		}
		paths[i] = path
		total += len(contour)
		kept += len(path)
	}

	confidence := 1.0
	if total > 0 {
		confidence = math.Min(float64(kept)/float64(total)+0.5, 1)
	}
	return []observation.Observation{observation.NewContours(paths, confidence)}, nil
}
