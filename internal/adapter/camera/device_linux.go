//go:build linux

package camera

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"plank/internal/domain"
)

// openNode opens a V4L2 node without blocking on a busy driver.
func openNode(path string) (domain.Stream, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classify(err), path)
	}
	return &nodeStream{f: f}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return domain.ErrCameraNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return domain.ErrCameraPermissionDenied
	case errors.Is(err, unix.EBUSY):
		return domain.ErrCameraBusy
	default:
		return fmt.Errorf("%w: %v", domain.ErrCameraFailed, err)
	}
}

type nodeStream struct {
	f    *os.File
	once sync.Once
	err  error
}

func (s *nodeStream) Release() error {
	s.once.Do(func() { s.err = s.f.Close() })
	return s.err
}
