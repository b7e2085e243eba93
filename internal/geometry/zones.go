// Package geometry resolves coordinates to market zones and renders the zone map.
package geometry

import (
	"math"
	"sort"

	"dealscreener/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DefaultMaxDistance is how far from a zone centroid a point may be and still resolve to it, in meters.
const DefaultMaxDistance = 8000.0

type zonePoint struct {
	name  string
	point orb.Point
	zone  models.ZoneProfile
}

// ZoneLocator maps coordinates onto the nearest zone centroid.
type ZoneLocator struct {
	points      []zonePoint
	coverage    orb.Polygon
	maxDistance float64
}

// NewZoneLocator indexes the zones that have coordinates. maxDistance <= 0 uses DefaultMaxDistance.
func NewZoneLocator(zones []models.ZoneProfile, maxDistance float64) *ZoneLocator {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	l := &ZoneLocator{maxDistance: maxDistance}
	for _, z := range zones {
		if z.Latitude == 0 && z.Longitude == 0 {
			continue
		}
		l.points = append(l.points, zonePoint{
			name:  z.Name,
			point: orb.Point{z.Longitude, z.Latitude},
			zone:  z,
		})
	}
	sort.Slice(l.points, func(i, j int) bool {
		return l.points[i].name < l.points[j].name
	})

	centroids := make([]orb.Point, len(l.points))
	for i, p := range l.points {
		centroids[i] = p.point
	}
	if hull := convexHull(centroids); hull != nil {
		l.coverage = orb.Polygon{hull}
	}
	return l
}

// Len returns the number of located zones.
func (l *ZoneLocator) Len() int {
	return len(l.points)
}

// Nearest returns the zone closest to p and the distance to its centroid in meters.
// ok is false when there are no zones or the closest one is farther than the limit.
func (l *ZoneLocator) Nearest(p orb.Point) (name string, meters float64, ok bool) {
	best := math.Inf(1)
	for _, zp := range l.points {
		if d := geo.Distance(p, zp.point); d < best {
			best = d
			name = zp.name
		}
	}
	if name == "" || best > l.maxDistance {
		return "", best, false
	}
	return name, best, true
}

// Covers reports whether p lies inside the hull spanned by the zone centroids.
func (l *ZoneLocator) Covers(p orb.Point) bool {
	if l.coverage == nil {
		return false
	}
	return planar.PolygonContains(l.coverage, p)
}

// FeatureCollection renders every zone as a point feature, plus the coverage hull
// when there are at least three zones.
func (l *ZoneLocator) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, zp := range l.points {
		f := geojson.NewFeature(zp.point)
		f.Properties = geojson.Properties{
			"name":            zp.zone.Name,
			"risk_tier":       zp.zone.RiskTier,
			"target_yield":    zp.zone.TargetYield,
			"appreciation":    zp.zone.Appreciation,
			"rent_multiplier": zp.zone.RentMultiplier,
		}
		fc.Append(f)
	}

	if l.coverage != nil {
		f := geojson.NewFeature(l.coverage)
		f.Properties = geojson.Properties{
			"name":  "coverage",
			"zones": len(l.points),
		}
		fc.Append(f)
	}
	return fc
}

// convexHull returns the closed, counter-clockwise hull of points using the monotone
// chain scan, or nil for fewer than three distinct points.
func convexHull(points []orb.Point) orb.Ring {
	pts := append([]orb.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || !p.Equal(pts[i-1]) {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return nil
	}

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// collinear input collapses to a line
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}
