package net

import "errors"

var (
	// ErrInvalidInputShape is returned when a feature vector has the wrong length.
	ErrInvalidInputShape = errors.New("invalid input shape")

	// ErrInvalidTargetShape is returned when a training target has the wrong length.
	// It also matches ErrInvalidInputShape under errors.Is.
	ErrInvalidTargetShape error = &targetShapeError{}

	// ErrInvalidConstruction is returned for non-positive layer or node counts.
	ErrInvalidConstruction = errors.New("invalid construction parameters")

	// ErrSnapshotShape is returned when a loaded network is not 784 -> 10.
	ErrSnapshotShape = errors.New("snapshot shape mismatch")

	// ErrSnapshotIO is returned when a snapshot cannot be read, written or parsed.
	ErrSnapshotIO = errors.New("snapshot i/o error")
)

type targetShapeError struct{}

func (e *targetShapeError) Error() string { return "invalid target shape" }

func (e *targetShapeError) Is(target error) bool {
	return target == ErrInvalidInputShape
}
