package config

import (
	"sort"

	"dealscreener/server/internal/models"
)

// Profile values for zones that are not in the table.
const (
	FallbackRiskTier       = 3
	FallbackTargetYield    = 7.0
	FallbackAppreciation   = 3.0
	FallbackRentMultiplier = 1.0
)

// DefaultZones is the reference table for the Querétaro market.
var DefaultZones = []models.ZoneProfile{
	{Name: "Zibatá", RiskTier: 1, TargetYield: 7.5, Appreciation: 4.0, RentMultiplier: 1.10, Latitude: 20.6770, Longitude: -100.3330},
	{Name: "Cumbres del Lago", RiskTier: 2, TargetYield: 7.2, Appreciation: 3.8, RentMultiplier: 1.08, Latitude: 20.7200, Longitude: -100.4550},
	{Name: "Juriquilla", RiskTier: 2, TargetYield: 7.0, Appreciation: 3.5, RentMultiplier: 1.05, Latitude: 20.7030, Longitude: -100.4470},
	{Name: "Jurica", RiskTier: 2, TargetYield: 6.8, Appreciation: 3.2, RentMultiplier: 1.03, Latitude: 20.6530, Longitude: -100.4300},
	{Name: "El Refugio", RiskTier: 3, TargetYield: 7.3, Appreciation: 3.0, RentMultiplier: 1.00, Latitude: 20.6540, Longitude: -100.3560},
	{Name: "Corregidora", RiskTier: 3, TargetYield: 7.8, Appreciation: 2.8, RentMultiplier: 0.97, Latitude: 20.5430, Longitude: -100.4430},
	{Name: "Mileno III", RiskTier: 3, TargetYield: 7.9, Appreciation: 2.5, RentMultiplier: 0.95, Latitude: 20.5970, Longitude: -100.3590},
	{Name: "Centro", RiskTier: 4, TargetYield: 8.2, Appreciation: 2.2, RentMultiplier: 0.98, Latitude: 20.5930, Longitude: -100.3920},
}

// ZoneTable resolves zone names to their benchmark profiles.
// A table is never modified after construction.
type ZoneTable struct {
	profiles map[string]models.ZoneProfile
}

// NewZoneTable builds a table from a list of profiles. Later entries win on duplicate names.
func NewZoneTable(profiles []models.ZoneProfile) *ZoneTable {
	t := &ZoneTable{profiles: make(map[string]models.ZoneProfile, len(profiles))}
	for _, p := range profiles {
		p.Known = true
		t.profiles[p.Name] = p
	}
	return t
}

// DefaultZoneTable returns a table with the built-in zones.
func DefaultZoneTable() *ZoneTable {
	return NewZoneTable(DefaultZones)
}

// FallbackProfile returns the profile used for an unlisted zone.
func FallbackProfile(zone string) models.ZoneProfile {
	return models.ZoneProfile{
		Name:           zone,
		RiskTier:       FallbackRiskTier,
		TargetYield:    FallbackTargetYield,
		Appreciation:   FallbackAppreciation,
		RentMultiplier: FallbackRentMultiplier,
	}
}

// Lookup returns the profile of zone, or the fallback profile when the zone is unknown.
func (t *ZoneTable) Lookup(zone string) models.ZoneProfile {
	if p, ok := t.profiles[zone]; ok {
		return p
	}
	return FallbackProfile(zone)
}

// Has reports whether zone is listed.
func (t *ZoneTable) Has(zone string) bool {
	_, ok := t.profiles[zone]
	return ok
}

// Merge returns a new table with overrides applied on top of t.
func (t *ZoneTable) Merge(overrides []models.ZoneProfile) *ZoneTable {
	merged := make([]models.ZoneProfile, 0, len(t.profiles)+len(overrides))
	merged = append(merged, t.Profiles()...)
	merged = append(merged, overrides...)
	return NewZoneTable(merged)
}

// Profiles returns the listed profiles sorted by name.
func (t *ZoneTable) Profiles() []models.ZoneProfile {
	profiles := make([]models.ZoneProfile, 0, len(t.profiles))
	for _, p := range t.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles
}

// Names returns the listed zone names sorted.
func (t *ZoneTable) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for name := range t.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
