package domain

import (
	"errors"
	"fmt"
)

// Pipeline error kinds. Callers match them with errors.Is.
var (
	ErrFetch       = errors.New("fetch error")
	ErrDetection   = errors.New("detection error")
	ErrTranslation = errors.New("translation error")
	ErrFormat      = errors.New("format error")
)

// Stage names a step of the labeling pipeline.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageDetect    Stage = "detect"
	StageTranslate Stage = "translate"
	StageFormat    Stage = "format"
)

// StageError ties a failure to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this stage.
func (e *StageError) Is(target error) bool {
	return target == e.Stage.Kind()
}

// Kind returns the sentinel error for the stage, or nil for an unknown stage.
func (s Stage) Kind() error {
	switch s {
	case StageFetch:
		return ErrFetch
	case StageDetect:
		return ErrDetection
	case StageTranslate:
		return ErrTranslation
	case StageFormat:
		return ErrFormat
	}
	return nil
}

// NewStageError wraps err for stage. It returns nil when err is nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
