package model

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a field reaches the encoder with no value.
var ErrEmptyInput = errors.New("empty input value")

// UnknownCategoryError reports a value that is not in an encoder's vocabulary.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unrecognized %s value %q", e.Field, e.Value)
}

// ArtifactLoadError is returned at startup when an artifact cannot be read or decoded.
type ArtifactLoadError struct {
	Artifact string
	Source   string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load %s artifact from %s: %v", e.Artifact, e.Source, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}
