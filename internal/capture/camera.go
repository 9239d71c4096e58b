// Package capture provides camera capture handles, the per-camera handle
// pool, and the stream pacer, built on GoCV (OpenCV).
package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// ErrReadFailed is returned when the capture device fails to produce a frame.
var ErrReadFailed = errors.New("failed to read frame from camera")

// Camera defines the interface for camera capture handles. A Camera binds
// exactly one video source; reads are serialized by the implementation.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// videoCamera manages video capture from one source using GoCV.
type videoCamera struct {
	source  Source
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a new Camera for the given source descriptor.
// The descriptor is classified by ParseSource.
func NewCamera(source string) Camera {
	return &videoCamera{
		source: ParseSource(source),
	}
}

// Open opens the underlying capture device. Failures are reported as
// *SourceError carrying a kind-specific diagnostic.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if c.source.Kind == SourceDevice {
		capture, err = gocv.OpenVideoCapture(c.source.Device)
	} else {
		capture, err = gocv.OpenVideoCapture(c.source.Raw)
	}
	if err != nil {
		return &SourceError{Source: c.source, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return &SourceError{Source: c.source, Err: errors.New("capture not opened")}
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera. Reads are mutually
// exclusive. The caller is responsible for closing the returned Mat.
func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrReadFailed
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrReadFailed
	}

	return &mat, nil
}

// IsOpen returns true if the camera is currently open.
func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
