package googlemaps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"googlemaps.github.io/maps"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// Client wraps the Google Maps Platform web services. It implements
// ports.Geocoder, ports.DirectionsProvider and ports.PlacesProvider.
type Client struct {
	maps *maps.Client
}

// New creates a Client for apiKey.
func New(apiKey string) (*Client, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Client{maps: c}, nil
}

// Name identifies the provider in a geocoder chain.
func (c *Client) Name() string {
	return "google"
}

// Geocode returns the first geocoding result for name.
func (c *Client) Geocode(ctx context.Context, name string) (*domain.GeoPoint, error) {
	res, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: name})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(res) == 0 {
		return nil, domain.ErrNotFound
	}
	loc := res[0].Geometry.Location
	return &domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Driving returns the overview polyline of the first driving route.
func (c *Client) Driving(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error) {
	routes, _, err := c.maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:      LatLngString(from),
		Destination: LatLngString(to),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no driving route found")
	}
	pts, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	return FromLatLngs(pts), nil
}

// Autocomplete returns place predictions for input.
func (c *Client) Autocomplete(ctx context.Context, input, sessionToken string) ([]domain.PlaceSuggestion, error) {
	resp, err := c.maps.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:        input,
		SessionToken: SessionToken(sessionToken),
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PlaceSuggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		primary := p.StructuredFormatting.MainText
		if primary == "" {
			primary = p.Description
		}
		out = append(out, domain.PlaceSuggestion{
			PlaceID:     p.PlaceID,
			PrimaryText: primary,
			Description: p.Description,
		})
	}
	return out, nil
}

// Details fetches the name and coordinate of placeID, closing the
// autocomplete session named by sessionToken.
func (c *Client) Details(ctx context.Context, placeID, sessionToken string) (*domain.Place, error) {
	r, err := c.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:      placeID,
		SessionToken: SessionToken(sessionToken),
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskGeometry,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}
	return &domain.Place{
		PlaceID:  placeID,
		Name:     r.Name,
		Location: domain.GeoPoint{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
	}, nil
}

// LatLngString formats p the way the directions API accepts coordinates.
func LatLngString(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// FromLatLngs converts decoded polyline points.
func FromLatLngs(pts []maps.LatLng) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(pts))
	for i, p := range pts {
		out[i] = domain.GeoPoint{Lat: p.Lat, Lon: p.Lng}
	}
	return out
}

// SessionToken parses a client-supplied autocomplete session token. Tokens
// that are not UUIDs start a fresh session.
func SessionToken(s string) maps.PlaceAutocompleteSessionToken {
	u, err := uuid.Parse(s)
	if err != nil {
		return maps.NewPlaceAutocompleteSessionToken()
	}
	return maps.PlaceAutocompleteSessionToken(u)
}
