// Package detector wraps the EPI object-detection model. It exposes a
// synchronous, thread-safe Detect call plus the pure alert/summary
// derivation over its results.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// DefaultConfidence is the detection confidence threshold used when the
// caller does not configure one.
const DefaultConfidence = 0.5

// Detection is one labeled bounding box produced for a single frame.
// BBox is [x1, y1, x2, y2] in pixel coordinates.
type Detection struct {
	Label       string  `json:"label"`
	ClassID     int     `json:"class_id"`
	Confidence  float64 `json:"confidence"`
	BBox        [4]int  `json:"bbox"`
	IsEPI       bool    `json:"is_epi"`
	IsViolation bool    `json:"is_violation"`
}

// Rect returns the bounding box as an image.Rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
}

// Detector defines the interface for EPI detection implementations.
// Implementations must be safe for concurrent calls from different camera
// sessions.
type Detector interface {
	// Detect analyzes a video frame and returns detections whose
	// confidence is at or above the given threshold.
	Detect(frame *gocv.Mat, confidence float64) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}
