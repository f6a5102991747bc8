package entity

// DetectionEvent is one frame-level report from the AI video service.
// Events maps event type (fire, smoke, fallen, ...) to its reading.
// The payload arrives over HTTP or Kafka; Events may be missing or
// malformed, which the pipeline must tolerate.
type DetectionEvent struct {
	Timestamp  string                     `json:"timestamp"`
	CameraID   string                     `json:"camera_id"`
	Events     map[string]DetectionResult `json:"events"`
	CameraInfo *CameraInfo                `json:"camera_info,omitempty"`
}

type DetectionResult struct {
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

type CameraInfo struct {
	Location string `json:"location"`
}

// Location returns the camera location or a fallback.
func (d *DetectionEvent) Location() string {
	if d.CameraInfo != nil && d.CameraInfo.Location != "" {
		return d.CameraInfo.Location
	}
	return "Unknown Location"
}
