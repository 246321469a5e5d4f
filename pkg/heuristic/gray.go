package heuristic

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// grayMatrix converts an image to a luminance matrix on a 0-255 scale
// using ITU-R BT.601 weights.
func grayMatrix(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// smoothedGray denoises the image before gradient work.
func smoothedGray(img image.Image, radius float64) [][]float64 {
	return grayMatrix(effect.Grayscale(blur.Gaussian(img, radius)))
}

// sobelAt returns the horizontal and vertical gradient at an interior
// pixel.
func sobelAt(gray [][]float64, x, y int) (gx, gy float64) {
	gx = (gray[y-1][x+1] + 2*gray[y][x+1] + gray[y+1][x+1]) -
		(gray[y-1][x-1] + 2*gray[y][x-1] + gray[y+1][x-1])
	gy = (gray[y+1][x-1] + 2*gray[y+1][x] + gray[y+1][x+1]) -
		(gray[y-1][x-1] + 2*gray[y-1][x] + gray[y-1][x+1])
	return gx, gy
}

// edgeMask thresholds one-sided gradients into a binary edge map. The
// one-sided difference keeps step edges one pixel wide, which the contour
// perimeter heuristics rely on. Border pixels are never edges.
func edgeMask(gray [][]float64, threshold float64) [][]bool {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
	}
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			dx := math.Abs(gray[y][x] - gray[y][x+1])
			dy := math.Abs(gray[y][x] - gray[y+1][x])
			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// laplacianVariance measures sharpness; blurry regions score near zero.
func laplacianVariance(gray [][]float64) float64 {
	height := len(gray)
	if height < 3 {
		return 0
	}
	width := len(gray[0])
	if width < 3 {
		return 0
	}

	var sum, sumSq float64
	n := 0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := gray[y-1][x] + gray[y+1][x] + gray[y][x-1] + gray[y][x+1] - 4*gray[y][x]
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
