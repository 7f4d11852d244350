package service

import (
	"context"
	"fmt"
	"os"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/pipeline"
)

// LocalSourceFactory opens locators that point at local directories of
// pre-extracted frames. Stream and video-decoding adapters plug in behind
// the same SourceFactory interface; decoding itself is not done in-process.
type LocalSourceFactory struct{}

func (LocalSourceFactory) Open(_ context.Context, locator string, intervalSeconds float64) (pipeline.FrameSource, error) {
	info, err := os.Stat(locator)
	if err != nil {
		return nil, fmt.Errorf("stat source %q: %w", locator, err)
	}
	if !info.IsDir() {
		return nil, &domain.AppError{
			Code:       "UNSUPPORTED_SOURCE",
			Message:    "Source must be a directory of pre-extracted frames",
			StatusCode: 422,
		}
	}
	return pipeline.NewDirectorySource(locator, intervalSeconds)
}
