package smartcrop

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/vision-tasks/pkg/dispatch"
	"github.com/menta2k/vision-tasks/pkg/heuristic"
	"github.com/menta2k/vision-tasks/pkg/types"
)

func createTestImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func fillRect(img *image.RGBA, x0, y0, w, h int, fill color.RGBA) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			img.Set(x, y, fill)
		}
	}
}

func newCropper() *Cropper {
	return New(dispatch.New(heuristic.New()))
}

func TestCropToRatioSquare(t *testing.T) {
	c := newCropper()
	img := createTestImage(200, 100, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	res, err := c.CropToRatio(context.Background(), img, 1)
	if err != nil {
		t.Fatalf("CropToRatio failed: %v", err)
	}

	b := res.Image.Bounds()
	ratio := float64(b.Dx()) / float64(b.Dy())
	if math.Abs(ratio-1) > 0.05 {
		t.Errorf("expected square crop, got %dx%d", b.Dx(), b.Dy())
	}
	if res.Quality < 0 || res.Quality > 1 {
		t.Errorf("quality out of range: %f", res.Quality)
	}
	if res.Region.X < 0 || res.Region.Y < 0 || res.Region.X+res.Region.W > 1+1e-9 || res.Region.Y+res.Region.H > 1+1e-9 {
		t.Errorf("crop window escapes the unit square: %+v", res.Region)
	}
}

func TestCropKeepsSubject(t *testing.T) {
	// Face on the right side: the crop window must contain it.
	img := createTestImage(200, 200, color.RGBA{R: 50, G: 180, B: 60, A: 255})
	fillRect(img, 130, 80, 30, 40, color.RGBA{R: 200, G: 140, B: 110, A: 255})

	c := newCropper()
	res, err := c.CropToRatio(context.Background(), img, 1)
	if err != nil {
		t.Fatalf("CropToRatio failed: %v", err)
	}

	faceCenter := types.Box{X: 0.65, Y: 0.4, W: 0.15, H: 0.2}.Center()
	win := res.Region
	if faceCenter.X < win.X || faceCenter.X > win.X+win.W ||
		faceCenter.Y < win.Y || faceCenter.Y > win.Y+win.H {
		t.Errorf("crop window %+v lost the subject at %+v", win, faceCenter)
	}
	if res.Quality < 0.5 {
		t.Errorf("a crop that covers the subject should score well, got %f", res.Quality)
	}
}

func TestCropToAspectRatioWidescreen(t *testing.T) {
	c := newCropper()
	img := createTestImage(160, 160, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	res, err := c.CropToAspectRatio(context.Background(), img, Widescreen)
	if err != nil {
		t.Fatalf("CropToAspectRatio failed: %v", err)
	}
	b := res.Image.Bounds()
	ratio := float64(b.Dx()) / float64(b.Dy())
	if math.Abs(ratio-16.0/9.0) > 0.1 {
		t.Errorf("expected 16:9 crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropToMultipleRatios(t *testing.T) {
	c := newCropper()
	img := createTestImage(120, 120, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	ratios := []AspectRatio{Square, Portrait, Landscape}
	results, err := c.CropToMultipleRatios(context.Background(), img, ratios)
	if err != nil {
		t.Fatalf("CropToMultipleRatios failed: %v", err)
	}
	if len(results) != len(ratios) {
		t.Fatalf("expected %d crops, got %d", len(ratios), len(results))
	}
}

func TestOptimalCrops(t *testing.T) {
	c := newCropper()
	img := createTestImage(160, 160, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	crops, err := c.OptimalCrops(context.Background(), img)
	if err != nil {
		t.Fatalf("OptimalCrops failed: %v", err)
	}
	if len(crops) == 0 {
		t.Fatal("expected at least one crop above the quality threshold")
	}
	for name, res := range crops {
		if res.Quality < c.config.QualityThreshold {
			t.Errorf("%s: quality %f below threshold", name, res.Quality)
		}
	}
}

func TestCropInvalidInput(t *testing.T) {
	c := newCropper()

	if _, err := c.CropToRatio(context.Background(), nil, 1); err == nil {
		t.Error("expected error for nil image")
	}
	img := createTestImage(50, 50, color.RGBA{A: 255})
	if _, err := c.CropToRatio(context.Background(), img, 0); err == nil {
		t.Error("expected error for zero ratio")
	}
	if _, err := c.CropToRatio(context.Background(), img, -2); err == nil {
		t.Error("expected error for negative ratio")
	}
}

func TestCommonAspectRatiosNamed(t *testing.T) {
	for _, ratio := range CommonAspectRatios() {
		if ratio.Name == "" || ratio.Width <= 0 || ratio.Height <= 0 {
			t.Errorf("malformed aspect ratio %+v", ratio)
		}
	}
}
