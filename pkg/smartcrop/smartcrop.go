// Package smartcrop crops images to target aspect ratios while keeping
// the detected subjects in frame. Subject placement comes from the
// analysis dispatcher: salient regions plus any detected faces.
package smartcrop

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/vision-tasks/pkg/dispatch"
	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Cropper finds subject-preserving crops using an analysis dispatcher.
type Cropper struct {
	dispatcher *dispatch.Dispatcher
	config     Config
}

// Config holds configuration for smart cropping.
type Config struct {
	// PaddingRatio widens the subject region by this fraction of its size
	// before fitting the crop window.
	PaddingRatio float64
	// QualityThreshold filters crops returned by OptimalCrops.
	QualityThreshold float64
	// FaceWeight boosts face boxes over plain salient regions when
	// choosing the crop anchor.
	FaceWeight float64
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		PaddingRatio:     0.1,
		QualityThreshold: 0.5,
		FaceWeight:       2.0,
	}
}

// AspectRatio is a named width:height target.
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios.
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns the ratios OptimalCrops evaluates.
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Story}
}

// New creates a Cropper over the given dispatcher with defaults.
func New(d *dispatch.Dispatcher) *Cropper {
	return NewWithConfig(d, DefaultConfig())
}

// NewWithConfig creates a Cropper with custom configuration.
func NewWithConfig(d *dispatch.Dispatcher, config Config) *Cropper {
	if config.FaceWeight <= 0 {
		config.FaceWeight = DefaultConfig().FaceWeight
	}
	return &Cropper{dispatcher: d, config: config}
}

// Result is one finished crop.
type Result struct {
	// Image is the cropped image.
	Image image.Image
	// Region is the crop window in normalized source coordinates.
	Region types.Box
	// Quality scores how well the crop preserves the subjects, in [0,1].
	Quality float64
}

// CropToAspectRatio crops the image to the named ratio.
func (c *Cropper) CropToAspectRatio(ctx context.Context, img image.Image, ratio AspectRatio) (Result, error) {
	return c.CropToRatio(ctx, img, float64(ratio.Width)/float64(ratio.Height))
}

// CropToRatio crops the image to an arbitrary width/height ratio, keeping
// the detected subjects inside the window.
func (c *Cropper) CropToRatio(ctx context.Context, img image.Image, targetRatio float64) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 || targetRatio <= 0 {
		return Result{}, fmt.Errorf("invalid crop geometry %dx%d ratio %f", width, height, targetRatio)
	}

	subject, err := c.subjectRegion(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("subject detection: %w", err)
	}

	window := fitWindow(subject, targetRatio, float64(width)/float64(height))
	rect := window.Denormalize(width, height).Add(bounds.Min)

	return Result{
		Image:   imaging.Crop(img, rect),
		Region:  window,
		Quality: cropQuality(subject, window),
	}, nil
}

// CropToMultipleRatios crops the image once per ratio. Detection runs per
// crop; results keep the input order.
func (c *Cropper) CropToMultipleRatios(ctx context.Context, img image.Image, ratios []AspectRatio) ([]Result, error) {
	results := make([]Result, 0, len(ratios))
	for _, ratio := range ratios {
		res, err := c.CropToAspectRatio(ctx, img, ratio)
		if err != nil {
			return nil, fmt.Errorf("crop to %s: %w", ratio.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// OptimalCrops returns the common-ratio crops that clear the quality
// threshold, keyed by ratio name.
func (c *Cropper) OptimalCrops(ctx context.Context, img image.Image) (map[string]Result, error) {
	results := make(map[string]Result)
	for _, ratio := range CommonAspectRatios() {
		res, err := c.CropToAspectRatio(ctx, img, ratio)
		if err != nil {
			return nil, fmt.Errorf("crop to %s: %w", ratio.Name, err)
		}
		if res.Quality >= c.config.QualityThreshold {
			results[ratio.Name] = res
		}
	}
	return results, nil
}

// subjectRegion merges faces and salient regions into one padded anchor
// box. With nothing detected it falls back to a centered region.
func (c *Cropper) subjectRegion(ctx context.Context, img image.Image) (types.Box, error) {
	tasks := []task.AnalysisTask{
		task.Saliency(task.SaliencyAttention),
		task.FaceDetection(),
	}
	results, err := c.dispatcher.PerformTasks(ctx, tasks, img)
	if err != nil {
		return types.Box{}, err
	}

	type weighted struct {
		box    types.Box
		weight float64
	}
	var regions []weighted
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, obs := range res.Observations {
			switch v := obs.(type) {
			case *observation.Saliency:
				for _, b := range v.SalientObjects {
					regions = append(regions, weighted{box: b, weight: v.Confidence()})
				}
			case *observation.Face:
				regions = append(regions, weighted{box: v.Box, weight: v.Confidence() * c.config.FaceWeight})
			}
		}
	}

	if len(regions) == 0 {
		return types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, nil
	}

	// Union of the weightiest regions: everything at least half as
	// important as the strongest one.
	best := 0.0
	for _, r := range regions {
		if r.weight > best {
			best = r.weight
		}
	}
	union := types.Box{}
	first := true
	for _, r := range regions {
		if r.weight < best/2 {
			continue
		}
		if first {
			union = r.box
			first = false
			continue
		}
		union = boxUnion(union, r.box)
	}

	return pad(union, c.config.PaddingRatio).Clamp(), nil
}

// fitWindow positions the smallest window of the target ratio that covers
// the subject, clamped and grown to stay inside the unit square.
func fitWindow(subject types.Box, targetRatio, imageRatio float64) types.Box {
	// Ratios are in pixel terms; convert to normalized width per
	// normalized height for this image's shape.
	normRatio := targetRatio / imageRatio

	w := subject.W
	h := subject.H
	if w/h < normRatio {
		w = h * normRatio
	} else {
		h = w / normRatio
	}
	if w > 1 {
		w = 1
		h = w / normRatio
	}
	if h > 1 {
		h = 1
		w = h * normRatio
	}

	center := subject.Center()
	window := types.Box{X: center.X - w/2, Y: center.Y - h/2, W: w, H: h}
	if window.X < 0 {
		window.X = 0
	}
	if window.Y < 0 {
		window.Y = 0
	}
	if window.X+window.W > 1 {
		window.X = 1 - window.W
	}
	if window.Y+window.H > 1 {
		window.Y = 1 - window.H
	}
	return window
}

// cropQuality scores a window by how much of the subject it retains and
// how much of the frame it preserves.
func cropQuality(subject, window types.Box) float64 {
	subjectArea := subject.Area()
	coverage := 1.0
	if subjectArea > 0 {
		coverage = window.Intersect(subject).Area() / subjectArea
	}
	preservation := window.Area()
	q := 0.7*coverage + 0.3*preservation
	return math.Min(q, 1)
}

func boxUnion(a, b types.Box) types.Box {
	x0 := math.Min(a.X, b.X)
	y0 := math.Min(a.Y, b.Y)
	x1 := math.Max(a.X+a.W, b.X+b.W)
	y1 := math.Max(a.Y+a.H, b.Y+b.H)
	return types.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func pad(b types.Box, ratio float64) types.Box {
	return types.Box{
		X: b.X - b.W*ratio,
		Y: b.Y - b.H*ratio,
		W: b.W * (1 + 2*ratio),
		H: b.H * (1 + 2*ratio),
	}
}
