// Package observation defines the typed result records produced by running
// analysis tasks. The dispatch layer treats them as opaque; callers narrow
// them back to concrete types with the projection helpers.
package observation

import (
	"image"

	"github.com/menta2k/vision-tasks/pkg/types"
)

// Observation is an opaque, type-tagged analysis result. Concrete shape
// depends on the task that produced it; the dispatcher never looks past
// type identity.
type Observation interface {
	// Confidence reports the engine's confidence in [0,1].
	Confidence() float64
}

// base carries the confidence shared by every observation type.
type base struct {
	Score float64 `json:"confidence"`
}

func (b base) Confidence() float64 { return b.Score }

// Horizon is the angle of the dominant horizon line.
type Horizon struct {
	base
	// Angle is the horizon's deviation from horizontal in radians,
	// positive counter-clockwise.
	Angle float64 `json:"angle"`
}

// NewHorizon builds a horizon observation.
func NewHorizon(angle, confidence float64) *Horizon {
	return &Horizon{base: base{Score: confidence}, Angle: angle}
}

// Saliency is a heatmap of visual importance plus the salient regions
// derived from it. Both saliency request variants produce this type.
type Saliency struct {
	base
	// Heatmap is a grayscale importance map, typically much smaller than
	// the analyzed image. May be nil when the engine reports regions only.
	Heatmap *image.Gray `json:"-"`
	// SalientObjects are the bounding boxes of salient regions in
	// normalized image coordinates, most salient first.
	SalientObjects []types.Box `json:"salient_objects"`
}

// NewSaliency builds a saliency observation.
func NewSaliency(heatmap *image.Gray, boxes []types.Box, confidence float64) *Saliency {
	return &Saliency{base: base{Score: confidence}, Heatmap: heatmap, SalientObjects: boxes}
}

// Face is a detected face rectangle.
type Face struct {
	base
	Box types.Box `json:"box"`
	// Roll and Yaw are head-orientation angles in radians when the engine
	// reports them, nil otherwise.
	Roll *float64 `json:"roll,omitempty"`
	Yaw  *float64 `json:"yaw,omitempty"`
}

// NewFace builds a face observation.
func NewFace(box types.Box, confidence float64) *Face {
	return &Face{base: base{Score: confidence}, Box: box}
}

// LandmarkRegion is one named group of landmark points on a face, e.g. an
// eye outline. Points are normalized to the full image.
type LandmarkRegion struct {
	Name   string        `json:"name"`
	Points []types.Point `json:"points"`
}

// FaceLandmarks is a face rectangle with its constellation of landmark
// regions.
type FaceLandmarks struct {
	base
	Box     types.Box        `json:"box"`
	Regions []LandmarkRegion `json:"regions"`
}

// NewFaceLandmarks builds a face-landmarks observation.
func NewFaceLandmarks(box types.Box, regions []LandmarkRegion, confidence float64) *FaceLandmarks {
	return &FaceLandmarks{base: base{Score: confidence}, Box: box, Regions: regions}
}

// FaceQuality is a face rectangle scored for capture quality, where higher
// quality means a sharper, better exposed face.
type FaceQuality struct {
	base
	Box     types.Box `json:"box"`
	Quality float64   `json:"quality"`
}

// NewFaceQuality builds a face-capture-quality observation.
func NewFaceQuality(box types.Box, quality, confidence float64) *FaceQuality {
	return &FaceQuality{base: base{Score: confidence}, Box: box, Quality: quality}
}

// Human is a detected human rectangle.
type Human struct {
	base
	Box types.Box `json:"box"`
}

// NewHuman builds a human observation.
func NewHuman(box types.Box, confidence float64) *Human {
	return &Human{base: base{Score: confidence}, Box: box}
}

// Rectangle is a detected quadrilateral. The four corners trace the quad;
// Box is its axis-aligned bounding box.
type Rectangle struct {
	base
	Box         types.Box   `json:"box"`
	TopLeft     types.Point `json:"top_left"`
	TopRight    types.Point `json:"top_right"`
	BottomLeft  types.Point `json:"bottom_left"`
	BottomRight types.Point `json:"bottom_right"`
}

// NewRectangle builds a rectangle observation from its bounding box,
// placing the corners on the box.
func NewRectangle(box types.Box, confidence float64) *Rectangle {
	return &Rectangle{
		base:        base{Score: confidence},
		Box:         box,
		TopLeft:     types.Point{X: box.X, Y: box.Y},
		TopRight:    types.Point{X: box.X + box.W, Y: box.Y},
		BottomLeft:  types.Point{X: box.X, Y: box.Y + box.H},
		BottomRight: types.Point{X: box.X + box.W, Y: box.Y + box.H},
	}
}

// SegmentationKind distinguishes what a segmentation mask isolates.
type SegmentationKind string

const (
	SegmentationPerson   SegmentationKind = "person"
	SegmentationDocument SegmentationKind = "document"
)

// Segmentation is a foreground mask. White pixels belong to the segmented
// subject.
type Segmentation struct {
	base
	Kind SegmentationKind `json:"kind"`
	Mask *image.Gray      `json:"-"`
	// Box bounds the masked region in normalized coordinates.
	Box types.Box `json:"box"`
}

// NewSegmentation builds a segmentation observation.
func NewSegmentation(kind SegmentationKind, mask *image.Gray, box types.Box, confidence float64) *Segmentation {
	return &Segmentation{base: base{Score: confidence}, Kind: kind, Mask: mask, Box: box}
}

// Contours is a set of detected contour paths in normalized coordinates.
type Contours struct {
	base
	Paths [][]types.Point `json:"paths"`
}

// NewContours builds a contours observation.
func NewContours(paths [][]types.Point, confidence float64) *Contours {
	return &Contours{base: base{Score: confidence}, Paths: paths}
}

// Joint names reported by body-pose observations.
const (
	JointHead          = "head"
	JointNeck          = "neck"
	JointLeftShoulder  = "left_shoulder"
	JointRightShoulder = "right_shoulder"
	JointLeftHip       = "left_hip"
	JointRightHip      = "right_hip"
	JointLeftKnee      = "left_knee"
	JointRightKnee     = "right_knee"
)

// BodyPose is a set of named body joints for one detected person.
type BodyPose struct {
	base
	Box    types.Box              `json:"box"`
	Joints map[string]types.Point `json:"joints"`
}

// NewBodyPose builds a body-pose observation.
func NewBodyPose(box types.Box, joints map[string]types.Point, confidence float64) *BodyPose {
	return &BodyPose{base: base{Score: confidence}, Box: box, Joints: joints}
}
