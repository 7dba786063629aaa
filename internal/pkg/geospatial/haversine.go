package geospatial

import "math"

const (
	earthRadiusKm = 6371.0
	metersPerMile = 1609.344
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// MetersToMiles converts meters to statute miles.
func MetersToMiles(m float64) float64 {
	return m / metersPerMile
}

// PointToSegment returns the distance in meters from point p to the segment a-b.
// The segment is projected onto a local equirectangular plane, which is accurate
// enough at detour scale (tens of miles).
func PointToSegment(pLat, pLon, aLat, aLon, bLat, bLon float64) float64 {
	cosLat := math.Cos(toRad(pLat))
	ax, ay := (aLon-pLon)*cosLat, aLat-pLat
	bx, by := (bLon-pLon)*cosLat, bLat-pLat

	dx, dy := bx-ax, by-ay
	u := 0.0
	if l2 := dx*dx + dy*dy; l2 > 0 {
		u = -(ax*dx + ay*dy) / l2
		u = math.Max(0, math.Min(1, u))
	}

	cx, cy := ax+u*dx, ay+u*dy
	return Haversine(pLat, pLon, pLat+cy, pLon+cx/cosLat)
}

// DistanceToLine returns the distance in meters from a point to the closest segment
// of a polyline given as [lat, lon] pairs. It returns +Inf for an empty line.
func DistanceToLine(lat, lon float64, line [][2]float64) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return Haversine(lat, lon, line[0][0], line[0][1])
	}
	best := math.Inf(1)
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		if d := PointToSegment(lat, lon, a[0], a[1], b[0], b[1]); d < best {
			best = d
		}
	}
	return best
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
