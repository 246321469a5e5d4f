package ollamaengine

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/processing"
	"github.com/menta2k/vision-tasks/pkg/request"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Config holds model and transport settings for the engine.
type Config struct {
	// Model is the Ollama model name, e.g. "openbmb/minicpm-v4.5".
	Model string
	// SendMaxDim is the long side the frame is resized to before upload;
	// 0 sends the original size.
	SendMaxDim int
	// SendQuality is the JPEG quality of the uploaded frame.
	SendQuality int
}

// DefaultConfig returns the settings used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Model:       "openbmb/minicpm-v4.5",
		SendMaxDim:  1536,
		SendQuality: 85,
	}
}

// Engine runs analysis requests by prompting an Ollama vision model.
type Engine struct {
	client    *Client
	config    Config
	processor *processing.Processor
}

// New creates an Engine against the given Ollama server.
func New(serverURL string, config Config) (*Engine, error) {
	client, err := NewClient(serverURL)
	if err != nil {
		return nil, err
	}
	def := DefaultConfig()
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.SendMaxDim == 0 {
		config.SendMaxDim = def.SendMaxDim
	}
	if config.SendQuality == 0 {
		config.SendQuality = def.SendQuality
	}
	return &Engine{client: client, config: config, processor: processing.NewProcessor()}, nil
}

// Capability reports the protocol level. The model answers every task
// prompt, so the engine advertises the full level.
func (e *Engine) Capability() task.Capability { return task.CapabilityFull }

// Perform encodes the image once per distinct region of interest and runs
// each request as one chat call. Encoding failures are submission-level;
// chat and parse failures are recorded per task via Complete.
func (e *Engine) Perform(ctx context.Context, img image.Image, reqs []*request.Request) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fmt.Errorf("empty image %dx%d", bounds.Dx(), bounds.Dy())
	}

	// Full-frame encoding is shared; per-request ROI crops are encoded on
	// demand below, but an unusable full frame fails the whole batch.
	fullFrame, err := e.processor.PrepareImageForModel(img, "jpg", e.config.SendMaxDim, e.config.SendQuality)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			req.Complete(nil, err)
			continue
		}
		obs, err := e.runRequest(ctx, req, img, fullFrame)
		req.Complete(obs, err)
	}
	return nil
}

func (e *Engine) runRequest(ctx context.Context, req *request.Request, img image.Image, fullFrame string) ([]observation.Observation, error) {
	frame := req.RegionOfInterest
	payload := fullFrame
	if frame.IsZero() {
		frame = types.FullImage
	} else {
		frame = frame.Clamp()
		crop, err := e.processor.CropToBox(img, frame)
		if err != nil {
			return nil, fmt.Errorf("region of interest: %w", err)
		}
		payload, err = e.processor.PrepareImageForModel(crop, "jpg", e.config.SendMaxDim, e.config.SendQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode region: %w", err)
		}
	}

	prompt, ok := prompts[req.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported request type %s", req.Type)
	}

	raw, err := e.client.Query(ctx, e.config.Model, prompt, payload)
	if err != nil {
		return nil, err
	}
	return parseObservations(req.Type, raw, frame)
}

// wire structures shared by the task prompts.
type wireBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type wireDetection struct {
	Box        wireBox               `json:"box"`
	Confidence float64               `json:"confidence"`
	Quality    float64               `json:"quality,omitempty"`
	Points     map[string][2]float64 `json:"points,omitempty"`
}

type wireResponse struct {
	AngleDegrees *float64        `json:"angle_degrees,omitempty"`
	Confidence   float64         `json:"confidence"`
	Detections   []wireDetection `json:"detections"`
}

// parseObservations converts a sanitized model response into typed
// observations mapped into full-image coordinates.
func parseObservations(reqType request.Type, raw string, frame types.Box) ([]observation.Observation, error) {
	var resp wireResponse
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("invalid model response: %w", err)
	}

	if reqType == request.TypeDetectHorizon {
		if resp.AngleDegrees == nil {
			return nil, fmt.Errorf("model response missing angle")
		}
		angle := *resp.AngleDegrees * math.Pi / 180
		return []observation.Observation{observation.NewHorizon(angle, resp.Confidence)}, nil
	}

	var obs []observation.Observation
	var salient []types.Box
	for _, det := range resp.Detections {
		box := mapBox(frame, types.Box{X: det.Box.X, Y: det.Box.Y, W: det.Box.W, H: det.Box.H}.Clamp())
		switch reqType {
		case request.TypeDetectFaceRectangles:
			obs = append(obs, observation.NewFace(box, det.Confidence))
		case request.TypeDetectFaceLandmarks:
			obs = append(obs, observation.NewFaceLandmarks(box, landmarkRegions(frame, det.Points), det.Confidence))
		case request.TypeFaceCaptureQuality:
			obs = append(obs, observation.NewFaceQuality(box, det.Quality, det.Confidence))
		case request.TypeDetectHumanRectangles:
			obs = append(obs, observation.NewHuman(box, det.Confidence))
		case request.TypeDetectBodyPose:
			obs = append(obs, observation.NewBodyPose(box, jointPoints(frame, det.Points), det.Confidence))
		case request.TypeDetectRectangles:
			obs = append(obs, observation.NewRectangle(box, det.Confidence))
		case request.TypePersonSegmentation:
			obs = append(obs, observation.NewSegmentation(observation.SegmentationPerson, nil, box, det.Confidence))
		case request.TypeDocumentSegmentation:
			obs = append(obs, observation.NewSegmentation(observation.SegmentationDocument, nil, box, det.Confidence))
		case request.TypeDetectContours:
			obs = append(obs, observation.NewContours([][]types.Point{boxOutline(box)}, det.Confidence))
		case request.TypeAttentionSaliency, request.TypeObjectnessSaliency:
			salient = append(salient, box)
		}
	}

	if reqType == request.TypeAttentionSaliency || reqType == request.TypeObjectnessSaliency {
		return []observation.Observation{observation.NewSaliency(nil, salient, resp.Confidence)}, nil
	}
	return obs, nil
}

func landmarkRegions(frame types.Box, points map[string][2]float64) []observation.LandmarkRegion {
	var regions []observation.LandmarkRegion
	for name, p := range points {
		regions = append(regions, observation.LandmarkRegion{
			Name:   name,
			Points: []types.Point{mapPoint(frame, types.Point{X: p[0], Y: p[1]})},
		})
	}
	return regions
}

func jointPoints(frame types.Box, points map[string][2]float64) map[string]types.Point {
	joints := make(map[string]types.Point, len(points))
	for name, p := range points {
		joints[name] = mapPoint(frame, types.Point{X: p[0], Y: p[1]})
	}
	return joints
}

func boxOutline(b types.Box) []types.Point {
	return []types.Point{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
}

func mapBox(frame, b types.Box) types.Box {
	return types.Box{
		X: frame.X + b.X*frame.W,
		Y: frame.Y + b.Y*frame.H,
		W: b.W * frame.W,
		H: b.H * frame.H,
	}
}

func mapPoint(frame types.Box, p types.Point) types.Point {
	return types.Point{X: frame.X + p.X*frame.W, Y: frame.Y + p.Y*frame.H}
}
