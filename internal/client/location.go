package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Location is a WGS84 position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether l lies within the WGS84 ranges.
func (l Location) Valid() bool {
	return !math.IsNaN(l.Latitude) && !math.IsNaN(l.Longitude) &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// LocationProvider yields the current device position.
type LocationProvider interface {
	Location(ctx context.Context) (Location, error)
}

// StaticLocation always reports the same position.
type StaticLocation Location

// Location implements LocationProvider.
func (s StaticLocation) Location(context.Context) (Location, error) {
	loc := Location(s)
	if !loc.Valid() {
		return Location{}, fmt.Errorf("%w: %v,%v out of range", ErrLocationUnavailable, loc.Latitude, loc.Longitude)
	}
	return loc, nil
}

// FileLocation reads {"latitude":..,"longitude":..} from a file on every
// call, so another process (a GPS daemon, a test script) can move the device.
type FileLocation struct {
	Path string
}

// Location implements LocationProvider.
func (f FileLocation) Location(ctx context.Context) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Location{}, fmt.Errorf("%w: decode %s: %w", ErrLocationUnavailable, f.Path, err)
	}
	if !loc.Valid() {
		return Location{}, fmt.Errorf("%w: %v,%v out of range", ErrLocationUnavailable, loc.Latitude, loc.Longitude)
	}
	return loc, nil
}

// LocationFunc adapts a function to LocationProvider.
type LocationFunc func(ctx context.Context) (Location, error)

// Location calls f.
func (f LocationFunc) Location(ctx context.Context) (Location, error) { return f(ctx) }
