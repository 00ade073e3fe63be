package domain

import "context"

// DetectionRequest asks for a full detection run over one location. Requests
// arrive on the request topic; Commit acknowledges the message once the run
// has been persisted and published.
type DetectionRequest struct {
	Location  string
	Topic     string
	Partition int
	Offset    int64
	Commit    func(ctx context.Context) error
}

// AnomalyEvent is the serialized form published for downstream consumers.
type AnomalyEvent struct {
	Anomaly
	Geo *Geo `json:"geo,omitempty"`
}

// Geo represents a WGS-84 coordinate pair with an optional place label.
type Geo struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PlaceName string  `json:"place_name,omitempty"`
}
