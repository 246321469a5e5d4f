package dispatch

import (
	"errors"
	"testing"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

func TestAsOne(t *testing.T) {
	res := TaskResult{
		Task: task.Horizon(),
		Observations: []observation.Observation{
			observation.NewHorizon(0.4, 0.9),
		},
	}

	horizon, err := AsOne[*observation.Horizon](res)
	if err != nil {
		t.Fatalf("AsOne failed: %v", err)
	}
	if horizon.Angle != 0.4 {
		t.Errorf("expected angle 0.4, got %f", horizon.Angle)
	}
	if horizon.Confidence() != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", horizon.Confidence())
	}
}

func TestAsOneEmpty(t *testing.T) {
	res := TaskResult{Task: task.Horizon()}

	_, err := AsOne[*observation.Horizon](res)
	if err == nil {
		t.Fatal("expected error for empty result")
	}
	var noObs *NoObservationsError
	if !errors.As(err, &noObs) {
		t.Fatalf("expected *NoObservationsError, got %T", err)
	}
	if noObs.Task != "horizon" {
		t.Errorf("expected task name in error, got %q", noObs.Task)
	}
}

func TestAsOneWrongType(t *testing.T) {
	res := TaskResult{
		Task: task.Horizon(),
		Observations: []observation.Observation{
			observation.NewFace(types.Box{W: 0.1, H: 0.1}, 0.8),
		},
	}

	_, err := AsOne[*observation.Horizon](res)
	var noObs *NoObservationsError
	if !errors.As(err, &noObs) {
		t.Fatalf("expected *NoObservationsError for type mismatch, got %v", err)
	}
}

func TestAsOnePropagatesError(t *testing.T) {
	detectErr := errors.New("boom")
	res := TaskResult{Task: task.Horizon(), Err: detectErr}

	_, err := AsOne[*observation.Horizon](res)
	if !errors.Is(err, detectErr) {
		t.Errorf("expected result error back, got %v", err)
	}
}

func TestAsMany(t *testing.T) {
	res := TaskResult{
		Task: task.FaceDetection(),
		Observations: []observation.Observation{
			observation.NewFace(types.Box{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}, 0.9),
			observation.NewFace(types.Box{X: 0.5, Y: 0.5, W: 0.2, H: 0.2}, 0.7),
		},
	}

	faces, err := AsMany[*observation.Face](res)
	if err != nil {
		t.Fatalf("AsMany failed: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	// Relative order must be preserved.
	if faces[0].Confidence() != 0.9 || faces[1].Confidence() != 0.7 {
		t.Error("projection reordered observations")
	}
}

func TestAsManyFiltersForeignTypes(t *testing.T) {
	res := TaskResult{
		Task: task.FaceDetection(),
		Observations: []observation.Observation{
			observation.NewFace(types.Box{W: 0.2, H: 0.2}, 0.9),
			observation.NewHorizon(0.1, 0.5),
			observation.NewFace(types.Box{W: 0.3, H: 0.3}, 0.8),
		},
	}

	faces, err := AsMany[*observation.Face](res)
	if err != nil {
		t.Fatalf("AsMany failed: %v", err)
	}
	if len(faces) != 2 {
		t.Errorf("expected foreign types filtered silently, got %d faces", len(faces))
	}
}

func TestAsManyEmptyIsLegal(t *testing.T) {
	faces, err := AsMany[*observation.Face](TaskResult{Task: task.FaceDetection()})
	if err != nil {
		t.Fatalf("empty result must not error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestAsManyPropagatesError(t *testing.T) {
	detectErr := errors.New("boom")
	_, err := AsMany[*observation.Face](TaskResult{Task: task.FaceDetection(), Err: detectErr})
	if !errors.Is(err, detectErr) {
		t.Errorf("expected result error back, got %v", err)
	}
}
