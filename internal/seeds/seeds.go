// Package seeds carries the embedded district registry and loads it
// into the database. The registry is the single source of truth for
// district master data: codes, populations, centroids, and the
// bounding extents the geo resolver works from.
package seeds

import (
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"

	"github.com/eticloud-hub/rozgar-map/internal/geo"
	"github.com/eticloud-hub/rozgar-map/internal/mgnrega"
)

//go:embed districts.yaml
var districtsYAML []byte

// Bounds is a district's rectangular extent in degrees.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLat float64 `yaml:"max_lat"`
	MaxLon float64 `yaml:"max_lon"`
}

// DistrictSeed is one registry entry.
type DistrictSeed struct {
	Name            string  `yaml:"name"`
	Code            string  `yaml:"code"`
	Population      int64   `yaml:"population"`
	RuralPopulation int64   `yaml:"rural_population"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	Bounds          Bounds  `yaml:"bounds"`
}

// StateSeed is the owning state's master record.
type StateSeed struct {
	Name       string `yaml:"name"`
	Code       string `yaml:"code"`
	Region     string `yaml:"region"`
	Population int64  `yaml:"population"`
}

// Registry is the parsed districts.yaml.
type Registry struct {
	State     StateSeed      `yaml:"state"`
	Districts []DistrictSeed `yaml:"districts"`
}

// Load parses the embedded registry and validates the minimum shape the
// rest of the system relies on.
func Load() (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(districtsYAML, &reg); err != nil {
		return nil, fmt.Errorf("parse district registry: %w", err)
	}
	if reg.State.Code == "" {
		return nil, errors.New("district registry: missing state code")
	}
	if len(reg.Districts) == 0 {
		return nil, errors.New("district registry: no districts")
	}
	for _, d := range reg.Districts {
		if d.Code == "" || d.Name == "" {
			return nil, fmt.Errorf("district registry: entry %q missing code or name", d.Name)
		}
	}
	return &reg, nil
}

// Regions converts the registry into the geo resolver's region list.
func (r *Registry) Regions() []geo.Region {
	regions := make([]geo.Region, 0, len(r.Districts))
	for _, d := range r.Districts {
		regions = append(regions, geo.Region{
			Code:   d.Code,
			Name:   d.Name,
			MinLat: d.Bounds.MinLat,
			MinLon: d.Bounds.MinLon,
			MaxLat: d.Bounds.MaxLat,
			MaxLon: d.Bounds.MaxLon,
		})
	}
	return regions
}

// Apply writes the registry into the database. Existing rows are left
// alone, so re-running the seed is safe; only missing districts are
// inserted.
func Apply(db *gorm.DB, reg *Registry) error {
	var state mgnrega.State
	err := db.Where("code = ?", reg.State.Code).Take(&state).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		state = mgnrega.State{
			Name:           reg.State.Name,
			Code:           reg.State.Code,
			Region:         reg.State.Region,
			Population:     reg.State.Population,
			TotalDistricts: len(reg.Districts),
		}
		if err := db.Create(&state).Error; err != nil {
			return fmt.Errorf("seed state %s: %w", reg.State.Code, err)
		}
		log.Printf("[Seeds] Created state %s (%s)", state.Name, state.Code)
	case err != nil:
		return fmt.Errorf("look up state %s: %w", reg.State.Code, err)
	}

	var created int
	for _, d := range reg.Districts {
		var existing mgnrega.District
		err := db.Where("code = ?", d.Code).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("look up district %s: %w", d.Code, err)
		}

		district := mgnrega.District{
			StateID:         state.ID,
			Name:            d.Name,
			Code:            d.Code,
			Population:      d.Population,
			RuralPopulation: d.RuralPopulation,
			Latitude:        d.Latitude,
			Longitude:       d.Longitude,
		}
		if err := db.Create(&district).Error; err != nil {
			return fmt.Errorf("seed district %s: %w", d.Code, err)
		}
		created++
	}

	log.Printf("[Seeds] District registry applied: %d created, %d total", created, len(reg.Districts))
	return nil
}
