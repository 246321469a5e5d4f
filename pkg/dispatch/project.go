package dispatch

import (
	"fmt"

	"github.com/menta2k/vision-tasks/pkg/observation"
)

// NoObservationsError reports a single-observation projection over a
// result that produced none, or whose first observation was not of the
// requested type.
type NoObservationsError struct {
	// Task is the analysis task whose result was projected.
	Task string
}

func (e *NoObservationsError) Error() string {
	return fmt.Sprintf("task %s produced no matching observations", e.Task)
}

// AsMany narrows a completed result to the observations of concrete type
// T, preserving their relative order. Non-matching observations are
// filtered out silently; an empty slice is a legal outcome. A result error
// is returned unchanged.
func AsMany[T observation.Observation](res TaskResult) ([]T, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	var out []T
	for _, obs := range res.Observations {
		if v, ok := obs.(T); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// AsOne narrows a completed result to its first observation, which must be
// of concrete type T. A result error is returned unchanged; an empty
// observation list or a first observation of the wrong type yields a
// *NoObservationsError. Use for tasks contractually expected to produce
// exactly one meaningful observation.
func AsOne[T observation.Observation](res TaskResult) (T, error) {
	var zero T
	if res.Err != nil {
		return zero, res.Err
	}
	if len(res.Observations) == 0 {
		return zero, &NoObservationsError{Task: res.Task.String()}
	}
	v, ok := res.Observations[0].(T)
	if !ok {
		return zero, &NoObservationsError{Task: res.Task.String()}
	}
	return v, nil
}
