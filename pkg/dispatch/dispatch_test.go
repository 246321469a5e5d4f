package dispatch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/request"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// fakeEngine completes every request via perform, or returns submitErr
// without calling back.
type fakeEngine struct {
	capability task.Capability
	submitErr  error
	perform    func(reqs []*request.Request)
	lastReqs   []*request.Request
}

func (f *fakeEngine) Perform(ctx context.Context, img image.Image, reqs []*request.Request) error {
	f.lastReqs = reqs
	if f.submitErr != nil {
		return f.submitErr
	}
	if f.perform != nil {
		f.perform(reqs)
	} else {
		for _, req := range reqs {
			req.Complete(nil, nil)
		}
	}
	return nil
}

func (f *fakeEngine) Capability() task.Capability {
	if f.capability == 0 {
		return task.CapabilityFull
	}
	return f.capability
}

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 120, B: 140, A: 255})
		}
	}
	return img
}

func TestPerformTasksOneResultPerTask(t *testing.T) {
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			for _, req := range reqs {
				req.Complete([]observation.Observation{observation.NewHorizon(0, 0.5)}, nil)
			}
		},
	}
	d := New(engine)

	tasks := []task.AnalysisTask{task.Horizon(), task.FaceDetection(), task.RectangleDetection()}
	results, err := d.PerformTasks(context.Background(), tasks, createTestImage(10, 10))
	if err != nil {
		t.Fatalf("PerformTasks failed: %v", err)
	}
	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	if d.IsProcessing() {
		t.Error("IsProcessing must be false after the batch returns")
	}
}

func TestPerformTasksCompletionOrderAndIndex(t *testing.T) {
	// Complete in reverse submission order; results must arrive in that
	// completion order with Index preserving the original correlation.
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			for i := len(reqs) - 1; i >= 0; i-- {
				reqs[i].Complete(nil, nil)
			}
		},
	}
	d := New(engine)

	tasks := []task.AnalysisTask{task.Horizon(), task.FaceDetection(), task.RectangleDetection()}
	results, err := d.PerformTasks(context.Background(), tasks, createTestImage(10, 10))
	if err != nil {
		t.Fatalf("PerformTasks failed: %v", err)
	}

	for pos, res := range results {
		wantIndex := len(tasks) - 1 - pos
		if res.Index != wantIndex {
			t.Errorf("position %d: expected index %d, got %d", pos, wantIndex, res.Index)
		}
		if res.Task != tasks[res.Index] {
			t.Errorf("position %d: result task does not match submitted task at its index", pos)
		}
	}
}

func TestPerformTasksSubmissionFailure(t *testing.T) {
	engine := &fakeEngine{submitErr: errors.New("engine unreachable")}
	d := New(engine)

	results, err := d.PerformTasks(context.Background(), []task.AnalysisTask{task.Horizon()}, createTestImage(10, 10))
	if err == nil {
		t.Fatal("expected submission error")
	}
	if results != nil {
		t.Error("submission failure must not return partial results")
	}
	if !strings.Contains(err.Error(), "image analysis failed") {
		t.Errorf("expected wrapped submission error, got %v", err)
	}
	if d.IsProcessing() {
		t.Error("IsProcessing must reset after a failed batch")
	}
}

func TestPerformTasksPerTaskFailureIsIsolated(t *testing.T) {
	detectErr := errors.New("detector crashed")
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			for i, req := range reqs {
				if i == 1 {
					req.Complete(nil, detectErr)
					continue
				}
				req.Complete([]observation.Observation{observation.NewHorizon(0.2, 0.8)}, nil)
			}
		},
	}
	d := New(engine)

	tasks := []task.AnalysisTask{task.Horizon(), task.FaceDetection(), task.RectangleDetection()}
	results, err := d.PerformTasks(context.Background(), tasks, createTestImage(10, 10))
	if err != nil {
		t.Fatalf("per-task failure must not fail the batch: %v", err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			if res.Index != 1 {
				t.Errorf("wrong task failed: index %d", res.Index)
			}
			if !errors.Is(res.Err, detectErr) {
				t.Errorf("expected detector error, got %v", res.Err)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly one failed task, got %d", failed)
	}
}

func TestPerformTasksCountMismatch(t *testing.T) {
	// An engine that silently drops a callback violates its contract.
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			for _, req := range reqs[:len(reqs)-1] {
				req.Complete(nil, nil)
			}
		},
	}
	d := New(engine)

	_, err := d.PerformTasks(context.Background(), []task.AnalysisTask{task.Horizon(), task.FaceDetection()}, createTestImage(10, 10))
	if err == nil {
		t.Fatal("expected an error for a dropped completion")
	}
	if !strings.Contains(err.Error(), "completed 1 of 2") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPerformTasksOptionsReachRequests(t *testing.T) {
	engine := &fakeEngine{}
	d := New(engine)

	roi := types.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}
	_, err := d.PerformTasks(context.Background(), []task.AnalysisTask{task.FaceDetection()}, createTestImage(10, 10),
		WithRegionOfInterest(roi), WithRevision(2), WithBackgroundPriority())
	if err != nil {
		t.Fatalf("PerformTasks failed: %v", err)
	}

	if len(engine.lastReqs) != 1 {
		t.Fatalf("expected one request, got %d", len(engine.lastReqs))
	}
	req := engine.lastReqs[0]
	if req.RegionOfInterest != roi {
		t.Error("region of interest not applied")
	}
	if req.Revision != 2 {
		t.Errorf("expected revision 2, got %d", req.Revision)
	}
	if !req.PreferBackground {
		t.Error("background priority not applied")
	}
}

func TestPerformTasksDuplicateTasks(t *testing.T) {
	// The same task may appear twice in one batch; each instance gets its
	// own request and result.
	engine := &fakeEngine{}
	d := New(engine)

	tasks := []task.AnalysisTask{task.Horizon(), task.Horizon()}
	results, err := d.PerformTasks(context.Background(), tasks, createTestImage(10, 10))
	if err != nil {
		t.Fatalf("PerformTasks failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index == results[1].Index {
		t.Error("duplicate tasks must keep distinct indices")
	}
}

func TestIsProcessingDuringBatch(t *testing.T) {
	d := New(nil)
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			if !d.IsProcessing() {
				panic("IsProcessing must be true while the batch runs")
			}
			for _, req := range reqs {
				req.Complete(nil, nil)
			}
		},
	}
	d.engine = engine

	if d.IsProcessing() {
		t.Fatal("IsProcessing must be false before any batch")
	}
	if _, err := d.PerformTasks(context.Background(), []task.AnalysisTask{task.Horizon()}, createTestImage(10, 10)); err != nil {
		t.Fatalf("PerformTasks failed: %v", err)
	}
	if d.IsProcessing() {
		t.Error("IsProcessing must be false after the batch")
	}
}

func TestPerformTaskSingle(t *testing.T) {
	engine := &fakeEngine{
		perform: func(reqs []*request.Request) {
			reqs[0].Complete([]observation.Observation{observation.NewHorizon(0.3, 0.9)}, nil)
		},
	}
	d := New(engine)

	res, err := d.PerformTask(context.Background(), task.Horizon(), createTestImage(10, 10))
	if err != nil {
		t.Fatalf("PerformTask failed: %v", err)
	}
	if res.Index != 0 || len(res.Observations) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPerformTaskSubmissionFailure(t *testing.T) {
	d := New(&fakeEngine{submitErr: fmt.Errorf("no image")})
	if _, err := d.PerformTask(context.Background(), task.Horizon(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestCapabilityDelegates(t *testing.T) {
	d := New(&fakeEngine{capability: task.CapabilityExtended})
	if d.Capability() != task.CapabilityExtended {
		t.Errorf("expected extended capability, got %d", d.Capability())
	}
}
