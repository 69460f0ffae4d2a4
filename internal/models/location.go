package models

import "math"

const earthRadiusMeters = 6371000.0

type Location struct {
	Lat float64 `json:"lat" mapstructure:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon float64 `json:"lon" mapstructure:"lon" parquet:"name=lon,type=DOUBLE"`
}

// DistanceTo returns the great-circle distance in meters.
func (l Location) DistanceTo(other Location) float64 {
	lat1 := degreesToRadians(l.Lat)
	lon1 := degreesToRadians(l.Lon)
	lat2 := degreesToRadians(other.Lat)
	lon2 := degreesToRadians(other.Lon)

	// Haversine formula
	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
