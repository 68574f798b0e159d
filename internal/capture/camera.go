package capture

import (
	"context"
	"errors"
	"sync"
)

// ErrCameraDenied is returned when the reader refuses camera access
var ErrCameraDenied = errors.New("camera access denied")

// Camera hands out a video stream for the capture surface
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera feed
type Stream interface {
	Close() error
}

// PermissionCamera is the server side of a browser camera: the client asks
// for the device and reports whether the reader allowed it
type PermissionCamera struct {
	Granted bool
}

// Acquire returns a stream when permission was granted
func (c PermissionCamera) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Granted {
		return nil, ErrCameraDenied
	}
	return &grantedStream{}, nil
}

type grantedStream struct {
	once   sync.Once
	closed bool
}

func (s *grantedStream) Close() error {
	s.once.Do(func() { s.closed = true })
	return nil
}
