package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string, rateLimit int, options ...maps.ClientOption) (*GoogleMapsProvider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if rateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(rateLimit))
	}
	opts = append(opts, options...)

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) Name() string {
	return "google"
}

func (g *GoogleMapsProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	mode := maps.TravelModeDriving
	if request.Mode != "" {
		mode = maps.Mode(request.Mode)
	}

	req := &maps.DirectionsRequest{
		Origin:      latLng(request.Origin),
		Destination: latLng(request.Destination),
		Mode:        mode,
	}

	if len(request.Waypoints) > 0 {
		waypoints := make([]string, len(request.Waypoints))
		for i, wp := range request.Waypoints {
			waypoints[i] = latLng(wp)
		}
		req.Waypoints = waypoints
	}

	resp, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(resp) == 0 {
		return nil, ErrNoRoute
	}

	routes := make([]Route, 0, len(resp))
	for _, route := range resp {
		var meters int
		var duration time.Duration
		for _, leg := range route.Legs {
			meters += leg.Distance.Meters
			duration += leg.Duration
		}

		routes = append(routes, Route{
			Summary: route.Summary,
			Distance: Distance{
				Text:  fmt.Sprintf("%.1f km", float64(meters)/1000),
				Value: float64(meters),
			},
			Duration: Duration{
				Text:  duration.Round(time.Minute).String(),
				Value: duration.Seconds(),
			},
		})
	}

	return &DirectionsResponse{Routes: routes}, nil
}

func latLng(l Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}
