package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/types"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func TestDrawLeavesOriginalUntouched(t *testing.T) {
	src := createTestImage(100, 100)
	obs := []observation.Observation{
		observation.NewFace(types.Box{X: 0.2, Y: 0.2, W: 0.4, H: 0.4}, 0.9),
	}

	canvas := Draw(src, obs)
	if canvas == nil {
		t.Fatal("expected a canvas")
	}
	if src.NRGBAAt(20, 20) != (color.NRGBA{R: 10, G: 10, B: 10, A: 255}) {
		t.Error("drawing must not modify the source image")
	}
}

func TestDrawFaceBox(t *testing.T) {
	src := createTestImage(100, 100)
	obs := []observation.Observation{
		observation.NewFace(types.Box{X: 0.2, Y: 0.2, W: 0.4, H: 0.4}, 0.9),
	}

	canvas := DrawWithStyle(src, obs, Style{Stroke: 1})
	// The box denormalizes to (20,20)-(60,60); its top edge must be drawn.
	if canvas.NRGBAAt(30, 20) != colorFace {
		t.Errorf("expected face color on the top edge, got %+v", canvas.NRGBAAt(30, 20))
	}
	if canvas.NRGBAAt(30, 30) == colorFace {
		t.Error("box interior must not be filled")
	}
}

func TestDrawHorizonLine(t *testing.T) {
	src := createTestImage(100, 100)
	obs := []observation.Observation{observation.NewHorizon(0, 0.9)}

	canvas := DrawWithStyle(src, obs, Style{Stroke: 1})
	if canvas.NRGBAAt(10, 50) != colorHorizon {
		t.Errorf("expected horizon color at image center row, got %+v", canvas.NRGBAAt(10, 50))
	}
}

func TestDrawFlipY(t *testing.T) {
	src := createTestImage(100, 100)
	obs := []observation.Observation{
		observation.NewFace(types.Box{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}, 0.9),
	}

	canvas := DrawWithStyle(src, obs, Style{Stroke: 1, FlipY: true})
	// Flipped, the box's top edge lands at y = (1-0.1-0.2)*100 = 70.
	if canvas.NRGBAAt(15, 70) != colorFace {
		t.Errorf("expected flipped box edge at y=70, got %+v", canvas.NRGBAAt(15, 70))
	}
}

func TestDrawSegmentationMask(t *testing.T) {
	src := createTestImage(50, 50)
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	obs := []observation.Observation{
		observation.NewSegmentation(observation.SegmentationPerson, mask, types.FullImage, 0.8),
	}

	canvas := DrawWithStyle(src, obs, Style{Stroke: 1})
	if canvas.NRGBAAt(25, 25) == src.NRGBAAt(25, 25) {
		t.Error("expected the mask tint to change interior pixels")
	}
}

func TestDrawContours(t *testing.T) {
	src := createTestImage(100, 100)
	obs := []observation.Observation{
		observation.NewContours([][]types.Point{{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.5}}}, 0.9),
	}

	canvas := DrawWithStyle(src, obs, Style{Stroke: 1})
	if canvas.NRGBAAt(50, 50) != colorContour {
		t.Errorf("expected contour color, got %+v", canvas.NRGBAAt(50, 50))
	}
}

func TestDrawAllObservationKinds(t *testing.T) {
	// Rendering every type at once must not panic.
	src := createTestImage(120, 120)
	box := types.Box{X: 0.1, Y: 0.1, W: 0.3, H: 0.3}
	mask := image.NewGray(image.Rect(0, 0, 8, 8))

	obs := []observation.Observation{
		observation.NewHorizon(0.1, 0.8),
		observation.NewSaliency(nil, []types.Box{box}, 0.7),
		observation.NewFace(box, 0.9),
		observation.NewFaceLandmarks(box, []observation.LandmarkRegion{
			{Name: "nose", Points: []types.Point{{X: 0.2, Y: 0.2}}},
		}, 0.9),
		observation.NewFaceQuality(box, 0.5, 0.9),
		observation.NewHuman(box, 0.8),
		observation.NewRectangle(box, 0.95),
		observation.NewSegmentation(observation.SegmentationDocument, mask, box, 0.8),
		observation.NewContours([][]types.Point{{{X: 0.5, Y: 0.5}}}, 0.6),
		observation.NewBodyPose(box, map[string]types.Point{
			observation.JointHead: {X: 0.2, Y: 0.15},
		}, 0.7),
	}

	if canvas := Draw(src, obs); canvas == nil {
		t.Fatal("expected a canvas")
	}
}
