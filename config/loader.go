package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dealscreener/server/internal/models"

	"gopkg.in/yaml.v2"
)

// zoneOverride is one entry of a zones file. Omitted fields keep the base value.
type zoneOverride struct {
	Name           string   `yaml:"name"`
	RiskTier       *int     `yaml:"risk_tier"`
	TargetYield    *float64 `yaml:"target_yield"`
	Appreciation   *float64 `yaml:"appreciation"`
	RentMultiplier *float64 `yaml:"rent_multiplier"`
	Latitude       *float64 `yaml:"latitude"`
	Longitude      *float64 `yaml:"longitude"`
}

type zonesFile struct {
	Zones []zoneOverride `yaml:"zones"`
}

// LoadZoneTable reads zone overrides from a YAML file and applies them on top of base.
// New zones start from the fallback profile.
func LoadZoneTable(path string, base *ZoneTable) (*ZoneTable, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}

	return ParseZoneTable(data, base)
}

// ParseZoneTable applies YAML zone overrides to base.
func ParseZoneTable(data []byte, base *ZoneTable) (*ZoneTable, error) {
	var file zonesFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}

	overrides := make([]models.ZoneProfile, 0, len(file.Zones))
	for i, z := range file.Zones {
		if z.Name == "" {
			return nil, fmt.Errorf("zone %d: name is required", i)
		}

		p := base.Lookup(z.Name)
		if z.RiskTier != nil {
			p.RiskTier = *z.RiskTier
		}
		if z.TargetYield != nil {
			p.TargetYield = *z.TargetYield
		}
		if z.Appreciation != nil {
			p.Appreciation = *z.Appreciation
		}
		if z.RentMultiplier != nil {
			p.RentMultiplier = *z.RentMultiplier
		}
		if z.Latitude != nil {
			p.Latitude = *z.Latitude
		}
		if z.Longitude != nil {
			p.Longitude = *z.Longitude
		}

		if p.RiskTier < 1 || p.RiskTier > 4 {
			return nil, fmt.Errorf("zone %q: risk tier %d outside 1-4", z.Name, p.RiskTier)
		}
		if p.RentMultiplier <= 0 {
			return nil, fmt.Errorf("zone %q: rent multiplier must be positive", z.Name)
		}
		overrides = append(overrides, p)
	}

	return base.Merge(overrides), nil
}
