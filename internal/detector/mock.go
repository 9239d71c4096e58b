package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu         sync.Mutex
	detections []Detection
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat, confidence float64) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// HelmetDetection returns a preset detection of a worn helmet.
func HelmetDetection() Detection {
	return Detection{
		Label:      "helmet",
		ClassID:    0,
		Confidence: 0.92,
		BBox:       [4]int{100, 40, 180, 110},
		IsEPI:      true,
	}
}

// NoHelmetDetection returns a preset violation detection of a person
// without a helmet.
func NoHelmetDetection() Detection {
	return Detection{
		Label:       "no_helmet",
		ClassID:     7,
		Confidence:  0.88,
		BBox:        [4]int{260, 35, 340, 120},
		IsViolation: true,
	}
}

// PersonDetection returns a preset detection of a person.
func PersonDetection() Detection {
	return Detection{
		Label:      "person",
		ClassID:    6,
		Confidence: 0.97,
		BBox:       [4]int{240, 30, 360, 420},
	}
}
