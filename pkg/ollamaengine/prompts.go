package ollamaengine

import "github.com/menta2k/vision-tasks/pkg/request"

const promptRules = `
HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels), origin top-left.
- Confidence values are in [0,1].
- JSON only. No markdown, no code fences, no comments, no trailing commas.
- If nothing matches, return {"confidence":0.0,"detections":[]}.`

const detectionSchema = `
Return JSON only:
{"confidence":0.0,"detections":[{"box":{"x":0.0,"y":0.0,"w":0.0,"h":0.0},"confidence":0.0}]}` + promptRules

// prompts maps each request type to the instruction sent to the vision
// model. Every prompt yields the shared wireResponse schema.
var prompts = map[request.Type]string{
	request.TypeDetectHorizon: `You are a horizon locator. Find the dominant horizon line.

Return JSON only:
{"angle_degrees":0.0,"confidence":0.0}

angle_degrees is the horizon's tilt from horizontal, positive counter-clockwise, in [-90,90].` + promptRules,

	request.TypeAttentionSaliency: `You are a visual attention analyzer. Locate up to 3 regions a human eye is drawn to first, strongest first.` + detectionSchema,

	request.TypeObjectnessSaliency: `You are an object proposal generator. Locate every distinct foreground object, most prominent first.` + detectionSchema,

	request.TypeDetectFaceRectangles: `You are a face detector. Locate every human face.` + detectionSchema,

	request.TypeDetectFaceLandmarks: `You are a face landmark detector. Locate every human face and its key points.

Return JSON only:
{"confidence":0.0,"detections":[{"box":{"x":0.0,"y":0.0,"w":0.0,"h":0.0},"confidence":0.0,"points":{"left_eye":[0.0,0.0],"right_eye":[0.0,0.0],"nose":[0.0,0.0],"mouth":[0.0,0.0]}}]}` + promptRules,

	request.TypeFaceCaptureQuality: `You are a portrait quality rater. Locate every human face and rate its capture quality (sharpness, exposure, pose) as "quality" in [0,1].

Return JSON only:
{"confidence":0.0,"detections":[{"box":{"x":0.0,"y":0.0,"w":0.0,"h":0.0},"confidence":0.0,"quality":0.0}]}` + promptRules,

	request.TypeDetectHumanRectangles: `You are a person detector. Locate every visible person, full body where visible.` + detectionSchema,

	request.TypeDetectBodyPose: `You are a body pose estimator. For every person return the bounding box and joint positions.

Return JSON only:
{"confidence":0.0,"detections":[{"box":{"x":0.0,"y":0.0,"w":0.0,"h":0.0},"confidence":0.0,"points":{"head":[0.0,0.0],"neck":[0.0,0.0],"left_shoulder":[0.0,0.0],"right_shoulder":[0.0,0.0],"left_hip":[0.0,0.0],"right_hip":[0.0,0.0],"left_knee":[0.0,0.0],"right_knee":[0.0,0.0]}}]}` + promptRules,

	request.TypeDetectRectangles: `You are a rectangle detector. Locate every rectangular or quadrilateral shape (frames, screens, cards, signs).` + detectionSchema,

	request.TypePersonSegmentation: `You are a person segmenter. Locate the tight region containing each person in the foreground.` + detectionSchema,

	request.TypeDocumentSegmentation: `You are a document finder. Locate each paper document, receipt or card.` + detectionSchema,

	request.TypeDetectContours: `You are a contour detector. Locate the outline region of each distinct shape.` + detectionSchema,
}
