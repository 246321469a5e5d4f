// Package heuristic implements a pure-Go vision engine using classical
// image-processing heuristics. It exists so the dispatch layer works
// offline and deterministically; accuracy is traded for having no model
// dependency. Plug in a model-backed engine for production detection.
package heuristic

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/menta2k/vision-tasks/pkg/dispatch"
	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/processing"
	"github.com/menta2k/vision-tasks/pkg/request"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Config holds tuning parameters for the heuristic detectors.
type Config struct {
	// EdgeThreshold is the minimum gradient magnitude (0-255 scale)
	// treated as an edge.
	EdgeThreshold float64
	// SaliencyMapSize is the long side of the downsampled saliency
	// heatmap in pixels.
	SaliencyMapSize int
	// MinRegionRatio is the minimum area of a detected region relative to
	// the analyzed image.
	MinRegionRatio float64
	// RectangleTolerance is the rectangularity score a contour must reach
	// to count as a rectangle.
	RectangleTolerance float64
	// MaxObservations caps how many observations one request returns.
	MaxObservations int
}

// DefaultConfig returns the tuning used by New.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:      30,
		SaliencyMapSize:    128,
		MinRegionRatio:     0.002,
		RectangleTolerance: 0.75,
		MaxObservations:    10,
	}
}

// Engine is a local dispatch.Engine backed by classical CV heuristics.
type Engine struct {
	config    Config
	processor *processing.Processor
}

// New creates an Engine with default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an Engine with custom configuration.
func NewWithConfig(config Config) *Engine {
	if config.MaxObservations <= 0 {
		config.MaxObservations = DefaultConfig().MaxObservations
	}
	if config.SaliencyMapSize <= 0 {
		config.SaliencyMapSize = DefaultConfig().SaliencyMapSize
	}
	return &Engine{config: config, processor: processing.NewProcessor()}
}

// Capability reports the protocol level. The heuristic engine implements
// every task kind, so it advertises the full level.
func (e *Engine) Capability() task.Capability { return task.CapabilityFull }

// Perform runs every request against the image and completes each one
// exactly once. Requests run concurrently; a background preference drops
// the batch to a single worker. Only submission-level problems (unusable
// image) are returned as errors.
func (e *Engine) Perform(ctx context.Context, img image.Image, reqs []*request.Request) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fmt.Errorf("empty image %dx%d", bounds.Dx(), bounds.Dy())
	}

	workers := runtime.GOMAXPROCS(0)
	for _, req := range reqs {
		if req.PreferBackground {
			workers = 1
			break
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				req.Complete(nil, err)
				return nil
			}
			obs, err := e.run(req, img)
			req.Complete(obs, err)
			return nil
		})
	}
	return g.Wait()
}

// run executes one request, honoring its region of interest by cropping
// before detection and mapping coordinates back to full-image space.
func (e *Engine) run(req *request.Request, img image.Image) ([]observation.Observation, error) {
	frame := req.RegionOfInterest
	if frame.IsZero() {
		frame = types.FullImage
	} else {
		frame = frame.Clamp()
		cropped, err := e.processor.CropToBox(img, frame)
		if err != nil {
			return nil, fmt.Errorf("region of interest: %w", err)
		}
		img = cropped
	}

	switch req.Type {
	case request.TypeDetectHorizon:
		return e.detectHorizon(img)
	case request.TypeAttentionSaliency:
		return e.analyzeSaliency(img, frame, task.SaliencyAttention)
	case request.TypeObjectnessSaliency:
		return e.analyzeSaliency(img, frame, task.SaliencyObjectness)
	case request.TypeDetectFaceRectangles:
		return e.detectFaces(img, frame)
	case request.TypeDetectFaceLandmarks:
		return e.detectFaceLandmarks(img, frame)
	case request.TypeFaceCaptureQuality:
		return e.detectFaceQuality(img, frame)
	case request.TypeDetectHumanRectangles:
		return e.detectHumans(img, frame)
	case request.TypeDetectBodyPose:
		return e.detectBodyPose(img, frame)
	case request.TypeDetectRectangles:
		return e.detectRectangles(img, frame)
	case request.TypeDetectContours:
		return e.detectContours(img, frame)
	case request.TypePersonSegmentation:
		return e.segmentPerson(img, frame)
	case request.TypeDocumentSegmentation:
		return e.segmentDocument(img, frame)
	}
	return nil, fmt.Errorf("unsupported request type %s", req.Type)
}

var _ dispatch.Engine = (*Engine)(nil)

// mapBox remaps a box normalized to a cropped frame into full-image space.
func mapBox(frame types.Box, b types.Box) types.Box {
	return types.Box{
		X: frame.X + b.X*frame.W,
		Y: frame.Y + b.Y*frame.H,
		W: b.W * frame.W,
		H: b.H * frame.H,
	}
}

// mapPoint remaps a point normalized to a cropped frame into full-image
// space.
func mapPoint(frame types.Box, p types.Point) types.Point {
	return types.Point{X: frame.X + p.X*frame.W, Y: frame.Y + p.Y*frame.H}
}
