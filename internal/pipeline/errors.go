package pipeline

import "errors"

// Domain errors for pipeline construction and playback.
var (
	// ErrStageCount indicates a pipeline built with other than five stages.
	ErrStageCount = errors.New("pipeline: wrong number of stages")

	// ErrStageIndex indicates an index outside the stage list.
	ErrStageIndex = errors.New("pipeline: stage index out of range")

	// ErrCanceled indicates playback was interrupted by its context.
	ErrCanceled = errors.New("pipeline: playback canceled by context")
)

// FrameError wraps an error raised while emitting a frame.
type FrameError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *FrameError) Error() string {
	return e.Wrapped.Error()
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
