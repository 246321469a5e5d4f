// Package visiontasks provides declarative image-analysis tasks over
// pluggable vision engines.
//
// Callers describe what to analyze as tasks, submit one or more of them
// against a single image, and get back strongly typed observations. The
// package hides the engine's request/callback object model behind a
// uniform task/result contract.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		visiontasks "github.com/menta2k/vision-tasks"
//		"github.com/menta2k/vision-tasks/pkg/processing"
//	)
//
//	func main() {
//		analyzer := visiontasks.New()
//
//		img, err := processing.NewProcessor().LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		horizon, err := analyzer.DetectHorizon(context.Background(), img)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("horizon angle: %.2f rad (confidence %.2f)\n",
//			horizon.Angle, horizon.Confidence())
//	}
//
// The package consists of these components:
//
//  1. Task catalog (pkg/task): the closed set of analysis task kinds,
//     with capability gating for kinds newer engines support.
//  2. Resolver and builder (pkg/request): maps each task to its engine
//     request type and expected observation type, and builds executable
//     requests with region-of-interest, priority and revision options.
//  3. Dispatcher (pkg/dispatch): batches requests against one image,
//     aggregates per-task results in completion order, and offers the
//     generic AsOne/AsMany projections.
//  4. Engines: pkg/heuristic (built-in, pure Go) and pkg/ollamaengine
//     (vision model over Ollama); any dispatch.Engine works.
//  5. Presentation: pkg/overlay draws observations, pkg/processing loads
//     and encodes images.
//
// Multiple tasks submitted together run as one analysis pass; per-task
// failures land in their own result without aborting siblings, while a
// failure to analyze the image at all fails the whole call.
package visiontasks

import (
	"context"
	"image"

	"github.com/menta2k/vision-tasks/pkg/dispatch"
	"github.com/menta2k/vision-tasks/pkg/heuristic"
	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/task"
)

// Version of the vision-tasks library
const Version = "1.0.0"

// Analyzer is the high-level entry point: convenience wrappers over one
// dispatcher with a fixed engine.
type Analyzer struct {
	dispatcher *dispatch.Dispatcher
}

// New creates an Analyzer backed by the built-in heuristic engine.
func New() *Analyzer {
	return NewWithEngine(heuristic.New())
}

// NewWithEngine creates an Analyzer over a custom engine.
func NewWithEngine(engine dispatch.Engine) *Analyzer {
	return &Analyzer{dispatcher: dispatch.New(engine)}
}

// Dispatcher exposes the underlying dispatcher for callers that batch
// heterogeneous tasks themselves.
func (a *Analyzer) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Capability reports the engine's protocol level for use with the gated
// task constructors.
func (a *Analyzer) Capability() task.Capability { return a.dispatcher.Capability() }

// IsProcessing reports whether at least one analysis pass is in flight.
func (a *Analyzer) IsProcessing() bool { return a.dispatcher.IsProcessing() }

// PerformTasks runs several tasks against one image in a single pass.
func (a *Analyzer) PerformTasks(ctx context.Context, tasks []task.AnalysisTask, img image.Image, opts ...dispatch.Option) ([]dispatch.TaskResult, error) {
	return a.dispatcher.PerformTasks(ctx, tasks, img, opts...)
}

// PerformTask runs a single task against an image.
func (a *Analyzer) PerformTask(ctx context.Context, t task.AnalysisTask, img image.Image, opts ...dispatch.Option) (dispatch.TaskResult, error) {
	return a.dispatcher.PerformTask(ctx, t, img, opts...)
}

// DetectHorizon finds the dominant horizon line. Horizon detection is
// expected to yield exactly one observation; none at all is an error.
func (a *Analyzer) DetectHorizon(ctx context.Context, img image.Image, opts ...dispatch.Option) (*observation.Horizon, error) {
	res, err := a.dispatcher.PerformTask(ctx, task.Horizon(), img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsOne[*observation.Horizon](res)
}

// AnalyzeSaliency produces the saliency heatmap and salient regions for
// the given mode.
func (a *Analyzer) AnalyzeSaliency(ctx context.Context, img image.Image, mode task.SaliencyMode, opts ...dispatch.Option) (*observation.Saliency, error) {
	res, err := a.dispatcher.PerformTask(ctx, task.Saliency(mode), img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsOne[*observation.Saliency](res)
}

// DetectFaces finds face rectangles. An empty slice means no faces.
func (a *Analyzer) DetectFaces(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.Face, error) {
	res, err := a.dispatcher.PerformTask(ctx, task.FaceDetection(), img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.Face](res)
}

// DetectFaceLandmarks finds faces with their landmark constellations.
func (a *Analyzer) DetectFaceLandmarks(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.FaceLandmarks, error) {
	res, err := a.dispatcher.PerformTask(ctx, task.FaceLandmarks(), img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.FaceLandmarks](res)
}

// DetectRectangles finds rectangular shapes.
func (a *Analyzer) DetectRectangles(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.Rectangle, error) {
	res, err := a.dispatcher.PerformTask(ctx, task.RectangleDetection(), img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.Rectangle](res)
}

// DetectHumans finds human rectangles. Requires an engine at
// CapabilityExtended or above.
func (a *Analyzer) DetectHumans(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.Human, error) {
	t, err := task.HumanRectangles(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.Human](res)
}

// DetectFaceCaptureQuality scores each face's capture quality. Requires
// an engine at CapabilityExtended or above.
func (a *Analyzer) DetectFaceCaptureQuality(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.FaceQuality, error) {
	t, err := task.FaceCaptureQuality(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.FaceQuality](res)
}

// SegmentPersons produces person foreground masks. Requires an engine at
// CapabilityFull. An empty slice means no persons.
func (a *Analyzer) SegmentPersons(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.Segmentation, error) {
	t, err := task.PersonSegmentation(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.Segmentation](res)
}

// SegmentDocument isolates the dominant document in the frame. Exactly
// one observation is expected; none is an error. Requires an engine at
// CapabilityFull.
func (a *Analyzer) SegmentDocument(ctx context.Context, img image.Image, opts ...dispatch.Option) (*observation.Segmentation, error) {
	t, err := task.DocumentSegmentation(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsOne[*observation.Segmentation](res)
}

// DetectContours traces edge contours. Requires an engine at
// CapabilityFull.
func (a *Analyzer) DetectContours(ctx context.Context, img image.Image, opts ...dispatch.Option) (*observation.Contours, error) {
	t, err := task.ContourDetection(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsOne[*observation.Contours](res)
}

// DetectBodyPoses estimates body joints for each person. Requires an
// engine at CapabilityFull.
func (a *Analyzer) DetectBodyPoses(ctx context.Context, img image.Image, opts ...dispatch.Option) ([]*observation.BodyPose, error) {
	t, err := task.BodyPose(a.Capability())
	if err != nil {
		return nil, err
	}
	res, err := a.dispatcher.PerformTask(ctx, t, img, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.AsMany[*observation.BodyPose](res)
}
