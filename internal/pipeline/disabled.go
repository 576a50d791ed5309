// ABOUTME: No-op Processor used when no API key is configured.
// ABOUTME: Every voice exchange fails fast with a clear error.

package pipeline

import (
	"context"
	"errors"
)

// ErrDisabled is returned by the disabled processor for every call.
var ErrDisabled = errors.New("speech pipeline not configured")

// Disabled is the Processor used when voice features are turned off.
type Disabled struct{}

// Process always fails with ErrDisabled.
func (Disabled) Process(ctx context.Context, audio []byte, format string) (*Result, error) {
	return nil, ErrDisabled
}
