// Package request maps analysis tasks to the concrete engine request and
// observation types they resolve to, and builds the executable requests a
// dispatcher submits.
package request

import (
	"slices"

	"github.com/google/uuid"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Type identifies the concrete engine request a task resolves to.
type Type string

const (
	TypeDetectHorizon         Type = "DetectHorizon"
	TypeAttentionSaliency     Type = "GenerateAttentionSaliency"
	TypeObjectnessSaliency    Type = "GenerateObjectnessSaliency"
	TypeDetectFaceRectangles  Type = "DetectFaceRectangles"
	TypeDetectFaceLandmarks   Type = "DetectFaceLandmarks"
	TypeDetectHumanRectangles Type = "DetectHumanRectangles"
	TypeFaceCaptureQuality    Type = "DetectFaceCaptureQuality"
	TypePersonSegmentation    Type = "GeneratePersonSegmentation"
	TypeDocumentSegmentation  Type = "DetectDocumentSegmentation"
	TypeDetectContours        Type = "DetectContours"
	TypeDetectBodyPose        Type = "DetectHumanBodyPose"
	TypeDetectRectangles      Type = "DetectRectangles"
)

// ObservationKind names the observation type a request is expected to
// produce. The value is informational; projection works on Go type
// identity.
type ObservationKind string

const (
	ObservationHorizon       ObservationKind = "Horizon"
	ObservationSaliency      ObservationKind = "Saliency"
	ObservationFace          ObservationKind = "Face"
	ObservationFaceLandmarks ObservationKind = "FaceLandmarks"
	ObservationFaceQuality   ObservationKind = "FaceQuality"
	ObservationHuman         ObservationKind = "Human"
	ObservationSegmentation  ObservationKind = "Segmentation"
	ObservationContours      ObservationKind = "Contours"
	ObservationBodyPose      ObservationKind = "BodyPose"
	ObservationRectangle     ObservationKind = "Rectangle"
)

// resolution pairs the request type with its expected observation kind.
type resolution struct {
	req Type
	obs ObservationKind
}

var resolutions = map[task.Kind]resolution{
	task.KindHorizon:              {TypeDetectHorizon, ObservationHorizon},
	task.KindFaceDetection:        {TypeDetectFaceRectangles, ObservationFace},
	task.KindFaceLandmarks:        {TypeDetectFaceLandmarks, ObservationFaceLandmarks},
	task.KindHumanRectangles:      {TypeDetectHumanRectangles, ObservationHuman},
	task.KindFaceCaptureQuality:   {TypeFaceCaptureQuality, ObservationFaceQuality},
	task.KindPersonSegmentation:   {TypePersonSegmentation, ObservationSegmentation},
	task.KindDocumentSegmentation: {TypeDocumentSegmentation, ObservationSegmentation},
	task.KindContourDetection:     {TypeDetectContours, ObservationContours},
	task.KindBodyPose:             {TypeDetectBodyPose, ObservationBodyPose},
	task.KindRectangleDetection:   {TypeDetectRectangles, ObservationRectangle},
}

// Resolve returns the request type the engine must run for the task and
// the observation kind expected back. Resolution is pure and total over
// the closed task set; capability gating happens at task construction and
// is not re-checked here. Saliency sub-dispatches on its mode into two
// request types that share one observation kind.
func Resolve(t task.AnalysisTask) (Type, ObservationKind) {
	if t.Kind() == task.KindSaliency {
		if t.SaliencyMode() == task.SaliencyObjectness {
			return TypeObjectnessSaliency, ObservationSaliency
		}
		return TypeAttentionSaliency, ObservationSaliency
	}
	r := resolutions[t.Kind()]
	return r.req, r.obs
}

// supportedRevisions lists the protocol revisions each request type can be
// forced to. Types absent from the map run only at DefaultRevision.
var supportedRevisions = map[Type][]int{
	TypeDetectFaceRectangles:  {1, 2, 3},
	TypeDetectFaceLandmarks:   {1, 2, 3},
	TypeAttentionSaliency:     {1, 2},
	TypeObjectnessSaliency:    {1, 2},
	TypeDetectRectangles:      {1, 2},
	TypePersonSegmentation:    {1},
	TypeDetectBodyPose:        {1},
	TypeDetectHumanRectangles: {1, 2},
}

// DefaultRevision is the revision a request runs at when no supported
// override is forced.
const DefaultRevision = 1

// SupportedRevisions returns the revisions the request type declares
// support for. Always non-empty.
func (t Type) SupportedRevisions() []int {
	if revs, ok := supportedRevisions[t]; ok {
		return slices.Clone(revs)
	}
	return []int{DefaultRevision}
}

// Supports reports whether the request type can run at the revision.
func (t Type) Supports(revision int) bool {
	return slices.Contains(t.SupportedRevisions(), revision)
}

// CompletionFunc receives a request's outcome. The engine must invoke it
// exactly once per submitted request, before its batch call returns.
type CompletionFunc func(obs []observation.Observation, err error)

// Request is one executable unit handed to an engine. Built per dispatch
// call and discarded once the batch completes.
type Request struct {
	// ID correlates the request across logs and callbacks.
	ID uuid.UUID
	// Task is the analysis task the request was built from.
	Task task.AnalysisTask
	// Index is the task's position in the submitted batch.
	Index int
	// Type is the resolved engine request type.
	Type Type
	// Expected is the observation kind the request should produce.
	Expected ObservationKind
	// RegionOfInterest restricts detection to a normalized sub-rectangle.
	// The zero value means the full image.
	RegionOfInterest types.Box
	// PreferBackground hints that the engine should run the request at
	// background priority.
	PreferBackground bool
	// Revision is the effective protocol revision the request runs at.
	Revision int

	complete CompletionFunc
}

// Complete delivers the request's outcome to the dispatcher. Engines call
// it exactly once per request. A nil error with zero observations is a
// legal "no detections" outcome.
func (r *Request) Complete(obs []observation.Observation, err error) {
	if r.complete != nil {
		r.complete(obs, err)
	}
}

// Options carries the per-batch knobs applied to every built request.
type Options struct {
	// RegionOfInterest restricts detection; zero value means full image.
	RegionOfInterest types.Box
	// Revision forces a protocol revision when the resolved request type
	// supports it. Unsupported values fall back to the default revision
	// silently.
	Revision int
	// PreferBackground requests background-priority execution.
	PreferBackground bool
}

// Build constructs the executable request for a task, wiring the
// dispatcher-supplied completion hook. The forced revision is applied only
// when the resolved type supports it; otherwise the request runs at
// DefaultRevision.
func Build(t task.AnalysisTask, index int, opts Options, complete CompletionFunc) *Request {
	reqType, obsKind := Resolve(t)

	revision := DefaultRevision
	if opts.Revision != 0 && reqType.Supports(opts.Revision) {
		revision = opts.Revision
	}

	return &Request{
		ID:               uuid.New(),
		Task:             t,
		Index:            index,
		Type:             reqType,
		Expected:         obsKind,
		RegionOfInterest: opts.RegionOfInterest,
		PreferBackground: opts.PreferBackground,
		Revision:         revision,
		complete:         complete,
	}
}
