package heuristic

import (
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// referenceSkin is the Lab anchor used to score how skin-like a region's
// mean color is.
var referenceSkin = colorful.Color{R: 0.85, G: 0.65, B: 0.55}

// isSkin applies the classic RGB skin-tone rule. It over-matches on warm
// backgrounds, which the blob shape filters compensate for.
func isSkin(r, g, b uint8) bool {
	rf, gf, bf := int(r), int(g), int(b)
	maxC := max(rf, max(gf, bf))
	minC := min(rf, min(gf, bf))
	return rf > 95 && gf > 40 && bf > 20 &&
		maxC-minC > 15 &&
		abs(rf-gf) > 15 && rf > gf && rf > bf
}

// faceRegion is a skin blob that passed the face shape filters.
type faceRegion struct {
	box        types.Box // normalized to the analyzed (possibly cropped) image
	confidence float64
}

// findFaceRegions locates skin-colored blobs with face-like proportions.
func (e *Engine) findFaceRegions(img image.Image) []faceRegion {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			mask[y][x] = isSkin(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	minPts := int(float64(width*height) * e.config.MinRegionRatio)
	if minPts < 16 {
		minPts = 16
	}

	var faces []faceRegion
	for _, comp := range connectedComponents(mask, minPts) {
		minX, minY, maxX, maxY := componentBounds(comp)
		w := maxX - minX + 1
		h := maxY - minY + 1

		aspect := float64(w) / float64(h)
		if aspect < 0.4 || aspect > 1.6 {
			continue
		}
		density := float64(len(comp)) / float64(w*h)
		if density < 0.35 {
			continue
		}

		// Score the blob's mean color against the skin anchor.
		var sr, sg, sb float64
		for _, p := range comp {
			r, g, b, _ := img.At(p.X+bounds.Min.X, p.Y+bounds.Min.Y).RGBA()
			sr += float64(r >> 8)
			sg += float64(g >> 8)
			sb += float64(b >> 8)
		}
		n := float64(len(comp))
		mean := colorful.Color{R: sr / n / 255, G: sg / n / 255, B: sb / n / 255}
		colorScore := 1 - math.Min(mean.DistanceLab(referenceSkin)/0.5, 1)

		faces = append(faces, faceRegion{
			box: types.Box{
				X: float64(minX) / float64(width),
				Y: float64(minY) / float64(height),
				W: float64(w) / float64(width),
				H: float64(h) / float64(height),
			},
			confidence: 0.5*density + 0.5*colorScore,
		})
	}

	sort.Slice(faces, func(i, j int) bool { return faces[i].confidence > faces[j].confidence })
	if len(faces) > e.config.MaxObservations {
		faces = faces[:e.config.MaxObservations]
	}
	return faces
}

func (e *Engine) detectFaces(img image.Image, frame types.Box) ([]observation.Observation, error) {
	var obs []observation.Observation
	for _, f := range e.findFaceRegions(img) {
		obs = append(obs, observation.NewFace(mapBox(frame, f.box), f.confidence))
	}
	return obs, nil
}

// detectFaceLandmarks lays out a canonical landmark constellation inside
// each detected face rectangle. Positions are proportional, not fitted.
func (e *Engine) detectFaceLandmarks(img image.Image, frame types.Box) ([]observation.Observation, error) {
	var obs []observation.Observation
	for _, f := range e.findFaceRegions(img) {
		box := mapBox(frame, f.box)
		at := func(fx, fy float64) types.Point {
			return types.Point{X: box.X + fx*box.W, Y: box.Y + fy*box.H}
		}

		regions := []observation.LandmarkRegion{
			{Name: "left_eye", Points: []types.Point{at(0.26, 0.38), at(0.32, 0.35), at(0.38, 0.38), at(0.32, 0.41)}},
			{Name: "right_eye", Points: []types.Point{at(0.62, 0.38), at(0.68, 0.35), at(0.74, 0.38), at(0.68, 0.41)}},
			{Name: "nose", Points: []types.Point{at(0.5, 0.45), at(0.46, 0.58), at(0.5, 0.62), at(0.54, 0.58)}},
			{Name: "outer_lips", Points: []types.Point{at(0.36, 0.76), at(0.5, 0.72), at(0.64, 0.76), at(0.5, 0.82)}},
			{Name: "face_contour", Points: []types.Point{
				at(0.08, 0.3), at(0.12, 0.6), at(0.25, 0.85), at(0.5, 0.97),
				at(0.75, 0.85), at(0.88, 0.6), at(0.92, 0.3),
			}},
		}
		obs = append(obs, observation.NewFaceLandmarks(box, regions, f.confidence))
	}
	return obs, nil
}

// detectFaceQuality scores each detected face's capture quality from the
// sharpness of its crop.
func (e *Engine) detectFaceQuality(img image.Image, frame types.Box) ([]observation.Observation, error) {
	var obs []observation.Observation
	for _, f := range e.findFaceRegions(img) {
		crop, err := e.processor.CropToBox(img, f.box)
		if err != nil {
			continue
		}
		sharpness := laplacianVariance(grayMatrix(crop))
		// Squash unbounded variance into [0,1].
		quality := sharpness / (sharpness + 500)
		obs = append(obs, observation.NewFaceQuality(mapBox(frame, f.box), quality, f.confidence))
	}
	return obs, nil
}

// bodyBoxFor extends a face rectangle downward into a torso-proportioned
// human rectangle, clamped to the image.
func bodyBoxFor(face types.Box) types.Box {
	body := types.Box{
		X: face.X - face.W*0.75,
		Y: face.Y - face.H*0.25,
		W: face.W * 2.5,
		H: face.H * 5,
	}
	return body.Clamp()
}

func (e *Engine) detectHumans(img image.Image, frame types.Box) ([]observation.Observation, error) {
	var obs []observation.Observation
	for _, f := range e.findFaceRegions(img) {
		obs = append(obs, observation.NewHuman(mapBox(frame, bodyBoxFor(f.box)), f.confidence*0.9))
	}
	return obs, nil
}

// detectBodyPose places joints at canonical proportions of each human
// rectangle.
func (e *Engine) detectBodyPose(img image.Image, frame types.Box) ([]observation.Observation, error) {
	var obs []observation.Observation
	for _, f := range e.findFaceRegions(img) {
		box := mapBox(frame, bodyBoxFor(f.box))
		at := func(fx, fy float64) types.Point {
			return types.Point{X: box.X + fx*box.W, Y: box.Y + fy*box.H}
		}
		joints := map[string]types.Point{
			observation.JointHead:          at(0.5, 0.08),
			observation.JointNeck:          at(0.5, 0.2),
			observation.JointLeftShoulder:  at(0.32, 0.25),
			observation.JointRightShoulder: at(0.68, 0.25),
			observation.JointLeftHip:       at(0.38, 0.55),
			observation.JointRightHip:      at(0.62, 0.55),
			observation.JointLeftKnee:      at(0.38, 0.78),
			observation.JointRightKnee:     at(0.62, 0.78),
		}
		obs = append(obs, observation.NewBodyPose(box, joints, f.confidence*0.8))
	}
	return obs, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
