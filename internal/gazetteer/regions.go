// Package gazetteer maps named ocean regions to latitude/longitude boxes.
package gazetteer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/floatchat/backend/internal/argo"
)

type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// CrossesAntimeridian is true for boxes like the Pacific whose western edge
// has a larger longitude than the eastern edge.
func (b Box) CrossesAntimeridian() bool { return b.MinLon > b.MaxLon }

func (b Box) Constraints(name string) argo.GeoConstraints {
	return argo.GeoConstraints{
		MinLat: argo.Float(b.MinLat),
		MaxLat: argo.Float(b.MaxLat),
		MinLon: argo.Float(b.MinLon),
		MaxLon: argo.Float(b.MaxLon),
		Region: name,
	}
}

type Region struct {
	Key  string
	Name string
	Box  Box
}

var boxes = map[string]Box{
	"indian_ocean":            {MinLat: -60, MaxLat: 30, MinLon: 20, MaxLon: 147},
	"arabian_sea":             {MinLat: 5, MaxLat: 30, MinLon: 50, MaxLon: 80},
	"bay_of_bengal":           {MinLat: 5, MaxLat: 25, MinLon: 80, MaxLon: 100},
	"southern_indian_ocean":   {MinLat: -60, MaxLat: -30, MinLon: 20, MaxLon: 147},
	"equatorial_indian_ocean": {MinLat: -10, MaxLat: 10, MinLon: 40, MaxLon: 100},
	"atlantic_ocean":          {MinLat: -60, MaxLat: 70, MinLon: -80, MaxLon: 20},
	"pacific_ocean":           {MinLat: -60, MaxLat: 70, MinLon: 120, MaxLon: -70},
	"southern_ocean":          {MinLat: -90, MaxLat: -50, MinLon: -180, MaxLon: 180},
	"arctic_ocean":            {MinLat: 70, MaxLat: 90, MinLon: -180, MaxLon: 180},
	"mediterranean_sea":       {MinLat: 30, MaxLat: 46, MinLon: -6, MaxLon: 36},
	"red_sea":                 {MinLat: 12, MaxLat: 30, MinLon: 32, MaxLon: 43},
	"persian_gulf":            {MinLat: 24, MaxLat: 30, MinLon: 47, MaxLon: 57},
	"equatorial":              {MinLat: -5, MaxLat: 5, MinLon: -180, MaxLon: 180},
}

// phrases are tried in order and the first contained phrase wins, so
// "southern indian ocean" resolves to indian_ocean. Callers depend on that.
var phrases = []struct {
	phrase string
	key    string
}{
	{"indian ocean", "indian_ocean"},
	{"arabian sea", "arabian_sea"},
	{"bay of bengal", "bay_of_bengal"},
	{"southern indian ocean", "southern_indian_ocean"},
	{"atlantic ocean", "atlantic_ocean"},
	{"pacific ocean", "pacific_ocean"},
	{"southern ocean", "southern_ocean"},
	{"mediterranean sea", "mediterranean_sea"},
	{"red sea", "red_sea"},
	{"persian gulf", "persian_gulf"},
	{"equator", "equatorial"},
	{"arctic ocean", "arctic_ocean"},
	{"equatorial indian ocean", "equatorial_indian_ocean"},
}

var titler = cases.Title(language.English)

func Lookup(key string) (Box, bool) {
	b, ok := boxes[key]
	return b, ok
}

// Keys returns every region key in match order.
func Keys() []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, p.key)
	}
	return out
}

// Match finds the first region phrase contained in text. text is expected
// to be lowercased already.
func Match(text string) (Region, bool) {
	for _, p := range phrases {
		if !strings.Contains(text, p.phrase) {
			continue
		}
		box, ok := boxes[p.key]
		if !ok {
			continue
		}
		return Region{Key: p.key, Name: titler.String(p.phrase), Box: box}, true
	}
	return Region{}, false
}

func (b Box) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.CrossesAntimeridian() {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

func (b Box) area() float64 {
	span := b.MaxLon - b.MinLon
	if b.CrossesAntimeridian() {
		span += 360
	}
	return (b.MaxLat - b.MinLat) * span
}

// Locate returns the smallest known region containing the point. Equal
// areas resolve in match order.
func Locate(lat, lon float64) (Region, bool) {
	var (
		best  Region
		found bool
	)
	for _, p := range phrases {
		box, ok := boxes[p.key]
		if !ok || !box.Contains(lat, lon) {
			continue
		}
		if !found || box.area() < best.Box.area() {
			best = Region{Key: p.key, Name: titler.String(p.phrase), Box: box}
			found = true
		}
	}
	return best, found
}
