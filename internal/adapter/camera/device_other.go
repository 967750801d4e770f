//go:build !linux

package camera

import (
	"fmt"
	"runtime"

	"plank/internal/domain"
)

func openNode(path string) (domain.Stream, error) {
	return nil, fmt.Errorf("%w: video device nodes are not supported on %s", domain.ErrCameraUnavailable, runtime.GOOS)
}
