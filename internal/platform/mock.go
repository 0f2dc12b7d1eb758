package platform

import "context"

// MockDetector is a Detector with fixed results, in the spirit of
// TestClock: production code keeps using the interface while tests
// and forced-architecture setups pin the answer.
type MockDetector struct {
	info *Info
	err  error
}

// NewMockDetector creates a detector that always returns info and err.
func NewMockDetector(info *Info, err error) Detector {
	return &MockDetector{info: info, err: err}
}

// Detect returns the pre-configured info and error.
func (m *MockDetector) Detect(ctx context.Context) (*Info, error) {
	return m.info, m.err
}
