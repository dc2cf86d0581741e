package models

import (
	"errors"
	"fmt"
)

var (
	ErrModuleNotFound    = errors.New("module not found")
	ErrInvalidChunkIndex = errors.New("invalid chunk index")
	ErrMergeOutOfBounds  = errors.New("merge out of bounds")
)

// ModuleNotFoundError is returned when a module key (or index) does not resolve.
type ModuleNotFoundError struct {
	Key string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: %q", e.Key)
}

func (e *ModuleNotFoundError) Is(target error) bool { return target == ErrModuleNotFound }

// InvalidChunkIndexError is returned when a chunk index falls outside [0, Count)
// (or [0, Count] for insertions).
type InvalidChunkIndexError struct {
	Index int
	Count int
}

func (e *InvalidChunkIndexError) Error() string {
	return fmt.Sprintf("invalid chunk index %d (chunk count %d)", e.Index, e.Count)
}

func (e *InvalidChunkIndexError) Is(target error) bool { return target == ErrInvalidChunkIndex }

// MergeOutOfBoundsError is returned when a merge has no neighbour in the requested direction.
type MergeOutOfBoundsError struct {
	Index   int
	MergeUp bool
	Count   int
}

func (e *MergeOutOfBoundsError) Error() string {
	dir := "down"
	if e.MergeUp {
		dir = "up"
	}
	return fmt.Sprintf("cannot merge chunk %d %s (chunk count %d)", e.Index, dir, e.Count)
}

func (e *MergeOutOfBoundsError) Is(target error) bool { return target == ErrMergeOutOfBounds }
