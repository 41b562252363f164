// Package capture provides the camera collaborators: live capture
// through GoCV (local device or network stream), a playback camera for
// tests, and lens undistortion.
package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrCameraNotOpen is returned when reading from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera is the frame-source contract the session consumes. The pipeline
// never touches capture devices directly.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next BGR frame. The caller owns the Mat.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// cameraImpl captures from a device index or a stream URL using GoCV.
type cameraImpl struct {
	source  interface{} // int device ID or string URL
	width   int
	height  int
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera opens frames from a local device index.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{source: deviceID, width: DefaultWidth, height: DefaultHeight}
}

// NewStreamCamera opens frames from a capture URL (IP camera, file).
func NewStreamCamera(url string) Camera {
	return &cameraImpl{source: url, width: DefaultWidth, height: DefaultHeight}
}

// Open opens the capture source and applies the resolution hint.
// Stream sources may ignore it.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.source)
	if err != nil {
		return err
	}

	if _, isDevice := c.source.(int); isDevice {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	}
	// Small buffer keeps frames close to real time on stream sources.
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	c.capture = capture
	c.running = true
	return nil
}

// Close releases the capture source.
func (c *cameraImpl) Close() error {
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

// ReadFrame reads a single frame. The caller must Close the Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}
	return &mat, nil
}

// IsOpen reports whether the camera is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
