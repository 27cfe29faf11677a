package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type MapboxProvider struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
}

func NewMapboxProvider(accessToken, baseURL string) *MapboxProvider {
	if baseURL == "" {
		baseURL = "https://api.mapbox.com"
	}
	return &MapboxProvider{
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

func (m *MapboxProvider) Name() string {
	return "mapbox"
}

func (m *MapboxProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	coords := []string{lngLat(request.Origin)}
	for _, wp := range request.Waypoints {
		coords = append(coords, lngLat(wp))
	}
	coords = append(coords, lngLat(request.Destination))

	profile := "driving"
	if request.Mode != "" {
		profile = request.Mode
	}

	query := url.Values{}
	query.Set("access_token", m.accessToken)
	query.Set("overview", "false")
	apiURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		m.baseURL, profile, strings.Join(coords, ";"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, string(body))
	}

	var mapboxResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Legs     []struct {
				Summary string `json:"summary"`
			} `json:"legs"`
		} `json:"routes"`
	}

	if err := json.Unmarshal(body, &mapboxResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if mapboxResp.Code == "NoRoute" || len(mapboxResp.Routes) == 0 {
		return nil, ErrNoRoute
	}

	routes := make([]Route, len(mapboxResp.Routes))
	for i, route := range mapboxResp.Routes {
		var summary string
		if len(route.Legs) > 0 {
			summary = route.Legs[0].Summary
		}
		routes[i] = Route{
			Summary: summary,
			Distance: Distance{
				Value: route.Distance,
				Text:  fmt.Sprintf("%.1f km", route.Distance/1000),
			},
			Duration: Duration{
				Value: route.Duration,
				Text:  fmt.Sprintf("%.0f min", route.Duration/60),
			},
		}
	}

	return &DirectionsResponse{Routes: routes}, nil
}

func lngLat(l Location) string {
	return fmt.Sprintf("%f,%f", l.Longitude, l.Latitude)
}
