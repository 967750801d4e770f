// Package camera provides domain.Camera implementations: a local video
// device node and a virtual camera for setups where the browser owns the
// preview.
package camera

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"plank/internal/domain"
)

// DefaultPattern matches V4L2 capture nodes.
const DefaultPattern = "/dev/video*"

// Device acquires a local video device. Preferred constraints select the
// configured front camera; anything else takes the first node matching
// Pattern.
type Device struct {
	Preferred string
	Pattern   string
}

var _ domain.Camera = (*Device)(nil)

// NewDevice creates a Device. preferred may be empty.
func NewDevice(preferred string) *Device {
	return &Device{Preferred: preferred, Pattern: DefaultPattern}
}

// Open acquires the device matching c.
func (d *Device) Open(ctx context.Context, c domain.Constraints) (domain.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.resolve(c)
	if err != nil {
		return nil, err
	}
	return openNode(path)
}

func (d *Device) resolve(c domain.Constraints) (string, error) {
	if c.Facing == domain.FacingUser && d.Preferred != "" {
		return d.Preferred, nil
	}
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCameraNotFound, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: nothing matches %s", domain.ErrCameraNotFound, pattern)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Virtual always grants a stream. It counts acquisitions so callers can
// check that every stream was released.
type Virtual struct {
	opens    atomic.Int64
	releases atomic.Int64
}

var _ domain.Camera = (*Virtual)(nil)

// NewVirtual creates a virtual camera.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Open returns a new virtual stream.
func (v *Virtual) Open(ctx context.Context, _ domain.Constraints) (domain.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.opens.Add(1)
	return &virtualStream{owner: v}, nil
}

// Held returns the number of streams currently held.
func (v *Virtual) Held() int64 {
	return v.opens.Load() - v.releases.Load()
}

// Opens returns the total number of streams handed out.
func (v *Virtual) Opens() int64 {
	return v.opens.Load()
}

type virtualStream struct {
	owner *Virtual
	once  sync.Once
}

func (s *virtualStream) Release() error {
	s.once.Do(func() { s.owner.releases.Add(1) })
	return nil
}
