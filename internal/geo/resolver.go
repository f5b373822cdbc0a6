// Package geo resolves arbitrary coordinates (or an IP address) to the
// owning district. Containment against each district's bounding extent
// is tried first; points outside every extent fall back to the nearest
// region by centroid distance with a confidence score that decays with
// distance but never reaches zero.
package geo

import (
	"context"
	"errors"
	"math"
)

// Region is one district's spatial footprint: a bounding extent used for
// containment testing and a centroid used for fallback ranking.
type Region struct {
	Code string
	Name string

	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Centroid returns the center of the region's bounding extent.
func (r Region) Centroid() (lat, lon float64) {
	return (r.MinLat + r.MaxLat) / 2, (r.MinLon + r.MaxLon) / 2
}

func (r Region) contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// Resolution is the outcome of a lookup.
type Resolution struct {
	DistrictCode string `json:"district_code"`
	DistrictName string `json:"district_name"`
	Confidence   int    `json:"confidence"`
	Method       string `json:"method"` // "gps" or "nearest"
	Note         string `json:"note,omitempty"`
}

// Resolver holds the region registry. Regions are assumed non-overlapping
// for containment purposes; the first containing region wins.
type Resolver struct {
	regions []Region
}

var errNoRegions = errors.New("no regions registered")

// NewResolver builds a resolver over the given regions.
func NewResolver(regions []Region) *Resolver {
	return &Resolver{regions: regions}
}

// Confidence constants for the two resolution methods.
const (
	containmentConfidence = 95
	confidenceFloor       = 50
)

// ResolveByCoordinates maps a point to a district. A point inside a known
// extent always resolves to that region, even if another region's
// centroid is closer; otherwise the nearest centroid wins with a
// distance-decayed confidence floored at 50.
func (r *Resolver) ResolveByCoordinates(lat, lon float64) (*Resolution, error) {
	if len(r.regions) == 0 {
		return nil, errNoRegions
	}

	for _, region := range r.regions {
		if region.contains(lat, lon) {
			return &Resolution{
				DistrictCode: region.Code,
				DistrictName: region.Name,
				Confidence:   containmentConfidence,
				Method:       "gps",
			}, nil
		}
	}

	return r.nearest(lat, lon), nil
}

// nearest ranks regions by Euclidean distance (in degrees) from the
// point to each centroid. Confidence decays 10 points per degree, capped
// at 5 degrees, and never drops below the floor.
func (r *Resolver) nearest(lat, lon float64) *Resolution {
	var best Region
	minDist := math.Inf(1)

	for _, region := range r.regions {
		cLat, cLon := region.Centroid()
		dist := math.Sqrt(math.Pow(lat-cLat, 2) + math.Pow(lon-cLon, 2))
		if dist < minDist {
			minDist = dist
			best = region
		}
	}

	confidence := 100 - int(math.Min(minDist, 5)*10)
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}

	return &Resolution{
		DistrictCode: best.Code,
		DistrictName: best.Name,
		Confidence:   confidence,
		Method:       "nearest",
		Note:         "coordinates outside known district extents",
	}
}

// IPLocator resolves an IP address to approximate coordinates.
// Implemented by the ip-api.com client; tests substitute fakes.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (lat, lon float64, err error)
}

// ResolveByIP resolves an IP to coordinates and delegates to
// ResolveByCoordinates. A failed IP lookup returns (nil, nil): the
// caller sees "unresolved", not an error, because IP geolocation is a
// best-effort fallback input.
func (r *Resolver) ResolveByIP(ctx context.Context, locator IPLocator, ip string) (*Resolution, error) {
	lat, lon, err := locator.Locate(ctx, ip)
	if err != nil {
		return nil, nil
	}
	return r.ResolveByCoordinates(lat, lon)
}
