package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile is returned when Process runs before a successful load
	ErrNoFile = errors.New("no file loaded")
	// ErrUnsupportedExtension is returned for files other than .stp/.step
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// Stage names a step of the processing pipeline
type Stage string

const (
	StageLoad      Stage = "load"
	StageOrient    Stage = "orient"
	StageTransform Stage = "transform"
	StageClassify  Stage = "classify"
	StageSave      Stage = "save"
)

// LoadError reports a file that could not be loaded
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ProcessError reports a failure between loading and saving
type ProcessError struct {
	Stage Stage
	Err   error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// SaveError reports an output file that could not be written. The input
// file is never modified.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
