package scorer

import (
	"context"
	"fmt"
)

// ScoreError reports that an image could not be decoded or scored.
type ScoreError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ScoreError) Error() string {
	return fmt.Sprintf("score %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScoreError) Unwrap() error {
	return e.Err
}

// Scorer computes a trash score in [0,100] for an image on disk. The model is
// deterministic at inference time: the same image always yields the same
// score.
type Scorer interface {
	Score(ctx context.Context, imagePath string) (int, error)
}
