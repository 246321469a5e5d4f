// Package task enumerates the analysis tasks the dispatcher can run
// against an image. Tasks are cheap immutable values; the engine-specific
// request machinery is derived from them at dispatch time.
package task

import "fmt"

// Kind identifies one analysis capability.
type Kind int

const (
	KindUnknown Kind = iota
	KindHorizon
	KindSaliency
	KindFaceDetection
	KindFaceLandmarks
	KindHumanRectangles
	KindFaceCaptureQuality
	KindPersonSegmentation
	KindDocumentSegmentation
	KindContourDetection
	KindBodyPose
	KindRectangleDetection
)

var kindNames = map[Kind]string{
	KindHorizon:              "horizon",
	KindSaliency:             "saliency",
	KindFaceDetection:        "face-detection",
	KindFaceLandmarks:        "face-landmarks",
	KindHumanRectangles:      "human-rectangles",
	KindFaceCaptureQuality:   "face-capture-quality",
	KindPersonSegmentation:   "person-segmentation",
	KindDocumentSegmentation: "document-segmentation",
	KindContourDetection:     "contour-detection",
	KindBodyPose:             "body-pose",
	KindRectangleDetection:   "rectangle-detection",
}

// String returns the stable lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SaliencyMode selects which saliency analysis a saliency task performs.
type SaliencyMode int

const (
	// SaliencyAttention highlights regions a human eye is drawn to.
	SaliencyAttention SaliencyMode = iota
	// SaliencyObjectness highlights regions likely to contain objects.
	SaliencyObjectness
)

// String returns the stable lowercase name of the mode.
func (m SaliencyMode) String() string {
	if m == SaliencyObjectness {
		return "objectness"
	}
	return "attention"
}

// Capability is the protocol level an engine advertises. Newer task kinds
// are only constructible against engines at or above their minimum level.
type Capability int

const (
	// CapabilityBase supports horizon, saliency, face detection and
	// landmarks, and rectangle detection.
	CapabilityBase Capability = 1
	// CapabilityExtended adds human rectangles and face capture quality.
	CapabilityExtended Capability = 2
	// CapabilityFull adds segmentation, contour detection and body pose.
	CapabilityFull Capability = 3
)

// minCapability maps gated kinds to the level they require. Kinds absent
// from the map are available at every level.
var minCapability = map[Kind]Capability{
	KindHumanRectangles:      CapabilityExtended,
	KindFaceCaptureQuality:   CapabilityExtended,
	KindPersonSegmentation:   CapabilityFull,
	KindDocumentSegmentation: CapabilityFull,
	KindContourDetection:     CapabilityFull,
	KindBodyPose:             CapabilityFull,
}

// MinCapability returns the capability level the kind requires.
func MinCapability(k Kind) Capability {
	if min, ok := minCapability[k]; ok {
		return min
	}
	return CapabilityBase
}

// UnsupportedError reports a gated task constructed against an engine
// capability below the kind's minimum.
type UnsupportedError struct {
	Kind     Kind
	Required Capability
	Actual   Capability
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("task %s requires capability level %d, engine has %d",
		e.Kind, e.Required, e.Actual)
}

// AnalysisTask is one declarative unit of analysis work. It carries no
// engine resources and is safe to copy and compare.
type AnalysisTask struct {
	kind Kind
	mode SaliencyMode // meaningful only for KindSaliency
}

// Kind returns the task's kind discriminant.
func (t AnalysisTask) Kind() Kind { return t.kind }

// SaliencyMode returns the saliency sub-mode. It is only meaningful when
// Kind() is KindSaliency.
func (t AnalysisTask) SaliencyMode() SaliencyMode { return t.mode }

// String describes the task for logs and error messages.
func (t AnalysisTask) String() string {
	if t.kind == KindSaliency {
		return fmt.Sprintf("%s(%s)", t.kind, t.mode)
	}
	return t.kind.String()
}

// Horizon returns a horizon-detection task.
func Horizon() AnalysisTask { return AnalysisTask{kind: KindHorizon} }

// Saliency returns a saliency-analysis task for the given mode.
func Saliency(mode SaliencyMode) AnalysisTask {
	return AnalysisTask{kind: KindSaliency, mode: mode}
}

// FaceDetection returns a face-rectangle detection task.
func FaceDetection() AnalysisTask { return AnalysisTask{kind: KindFaceDetection} }

// FaceLandmarks returns a face-landmark detection task.
func FaceLandmarks() AnalysisTask { return AnalysisTask{kind: KindFaceLandmarks} }

// RectangleDetection returns a rectangle/quad detection task.
func RectangleDetection() AnalysisTask { return AnalysisTask{kind: KindRectangleDetection} }

// HumanRectangles returns a human-rectangles detection task. It fails when
// the engine capability is below CapabilityExtended.
func HumanRectangles(cap Capability) (AnalysisTask, error) {
	return gated(KindHumanRectangles, cap)
}

// FaceCaptureQuality returns a face-capture-quality task. It fails when
// the engine capability is below CapabilityExtended.
func FaceCaptureQuality(cap Capability) (AnalysisTask, error) {
	return gated(KindFaceCaptureQuality, cap)
}

// PersonSegmentation returns a person-segmentation task. It fails when the
// engine capability is below CapabilityFull.
func PersonSegmentation(cap Capability) (AnalysisTask, error) {
	return gated(KindPersonSegmentation, cap)
}

// DocumentSegmentation returns a document-segmentation task. It fails when
// the engine capability is below CapabilityFull.
func DocumentSegmentation(cap Capability) (AnalysisTask, error) {
	return gated(KindDocumentSegmentation, cap)
}

// ContourDetection returns a contour-detection task. It fails when the
// engine capability is below CapabilityFull.
func ContourDetection(cap Capability) (AnalysisTask, error) {
	return gated(KindContourDetection, cap)
}

// BodyPose returns a human body-pose task. It fails when the engine
// capability is below CapabilityFull.
func BodyPose(cap Capability) (AnalysisTask, error) {
	return gated(KindBodyPose, cap)
}

func gated(kind Kind, cap Capability) (AnalysisTask, error) {
	if min := MinCapability(kind); cap < min {
		return AnalysisTask{}, &UnsupportedError{Kind: kind, Required: min, Actual: cap}
	}
	return AnalysisTask{kind: kind}, nil
}

// Parse maps a kind name (as produced by Kind.String) back to a task.
// Saliency accepts "saliency", "saliency:attention" and
// "saliency:objectness". Gated kinds are checked against cap.
func Parse(name string, cap Capability) (AnalysisTask, error) {
	switch name {
	case "horizon":
		return Horizon(), nil
	case "saliency", "saliency:attention":
		return Saliency(SaliencyAttention), nil
	case "saliency:objectness":
		return Saliency(SaliencyObjectness), nil
	case "face-detection":
		return FaceDetection(), nil
	case "face-landmarks":
		return FaceLandmarks(), nil
	case "rectangle-detection":
		return RectangleDetection(), nil
	case "human-rectangles":
		return HumanRectangles(cap)
	case "face-capture-quality":
		return FaceCaptureQuality(cap)
	case "person-segmentation":
		return PersonSegmentation(cap)
	case "document-segmentation":
		return DocumentSegmentation(cap)
	case "contour-detection":
		return ContourDetection(cap)
	case "body-pose":
		return BodyPose(cap)
	}
	return AnalysisTask{}, fmt.Errorf("unknown task kind %q", name)
}
