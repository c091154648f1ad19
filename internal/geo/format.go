package geo

import "strings"

// Address is the structured record returned by the geocoding provider.
// Providers fill different fields depending on locality, hence the fallback
// chains in FormatAddress.
type Address struct {
	Road         string `json:"road,omitempty"`
	Pedestrian   string `json:"pedestrian,omitempty"`
	Suburb       string `json:"suburb,omitempty"`
	Village      string `json:"village,omitempty"`
	Hamlet       string `json:"hamlet,omitempty"`
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	State        string `json:"state,omitempty"`
	Region       string `json:"region,omitempty"`
}

// FormatAddress composes street, neighborhood, city, postal code and
// province, keeping only present fields, joined with ", ". It is total: any
// combination of missing fields yields a (possibly empty) string.
func FormatAddress(a Address) string {
	street := firstNonEmpty(a.Road, a.Pedestrian)
	neighborhood := firstNonEmpty(a.Suburb, a.Village, a.Hamlet)
	city := firstNonEmpty(a.City, a.Town, a.Municipality)
	province := firstNonEmpty(a.State, a.Region)

	var parts []string
	for _, p := range []string{street, neighborhood, city, a.Postcode, province} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
