package domain

import (
	"context"
	"log/slog"
)

// ResolveLocation geocodes a location name for published anomaly events.
// It returns nil when geocoder is nil, the lookup fails, or the provider
// returns no coordinates; anomalies are still published without geo.
func ResolveLocation(ctx context.Context, geocoder Geocoder, location string, logger *slog.Logger) *Geo {
	if geocoder == nil || location == "" {
		return nil
	}

	result, err := geocoder.ForwardGeocode(ctx, location)
	if err != nil {
		logger.Warn("forward geocoding failed", "location", location, "error", err)
		return nil
	}
	if result.Lat == 0 && result.Lon == 0 {
		return nil
	}

	name := result.PlaceName
	if name == "" {
		name = result.FormattedAddress
	}
	return &Geo{Lat: result.Lat, Lon: result.Lon, PlaceName: name}
}
