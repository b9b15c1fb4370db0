package types

// Pharmacy is the dispensing pharmacy attached to a medicine.
type Pharmacy struct {
	Name     string    `json:"name"`
	Address  string    `json:"address,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// HasLocation reports whether the pharmacy carries a usable coordinate pair.
func (p *Pharmacy) HasLocation() bool {
	return p != nil && p.Location.HasCoordinates()
}

// GeoPoint is a GeoJSON point as served by the API. Coordinates are ordered
// longitude first, latitude second.
type GeoPoint struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

func (g *GeoPoint) HasCoordinates() bool {
	return g != nil && len(g.Coordinates) == 2
}

func (g *GeoPoint) Lng() float64 {
	if !g.HasCoordinates() {
		return 0
	}
	return g.Coordinates[0]
}

func (g *GeoPoint) Lat() float64 {
	if !g.HasCoordinates() {
		return 0
	}
	return g.Coordinates[1]
}
