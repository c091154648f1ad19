package models

// GeoPoint is a resolved delivery coordinate plus its human-readable address.
// It is produced only by the address resolver and replaced wholesale on
// re-resolution, never mutated in place.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address"`
}

// Zero reports whether the point has never been resolved.
func (p GeoPoint) Zero() bool {
	return p.Latitude == 0 && p.Longitude == 0 && p.Address == ""
}
