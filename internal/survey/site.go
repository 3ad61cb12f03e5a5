package survey

import (
	"slices"
	"strings"
)

// Site is an observation location within a county.
type Site struct {
	County            string     `json:"county" validate:"required"`
	Name              string     `json:"name" validate:"required"`
	Roadway           string     `json:"roadway" validate:"required"`
	Longitude         FlexString `json:"longitude" validate:"omitempty,signedDecimal"`
	Latitude          FlexString `json:"latitude" validate:"omitempty,signedDecimal"`
	SegmentLength     FlexString `json:"segment_length" validate:"omitempty,positiveDecimal"`
	Location          string     `json:"location" validate:"required"`
	WhichSide         string     `json:"which_side"`
	DirectionOfTravel string     `json:"direction_of_travel" validate:"omitempty,oneof=NB SB EB WB"`
	Notes             string     `json:"notes"`
}

// Directions lists the accepted directions of travel.
var Directions = []string{"NB", "SB", "EB", "WB"}

// MapsURL returns a Google Maps link for the site, or "" when the site has no
// coordinates.
func (s Site) MapsURL() string {
	if s.Latitude == "" || s.Longitude == "" {
		return ""
	}
	return "https://maps.google.com/?q=" + s.Latitude.String() + "," + s.Longitude.String()
}

// SiteDirectory groups sites by county.
type SiteDirectory map[string][]Site

// GroupSites builds a directory from a flat list, keyed by each site's county.
func GroupSites(sites []Site) SiteDirectory {
	d := SiteDirectory{}
	for _, s := range sites {
		d[s.County] = append(d[s.County], s)
	}
	return d
}

// Counties returns the county names in sorted order.
func (d SiteDirectory) Counties() []string {
	counties := make([]string, 0, len(d))
	for c := range d {
		counties = append(counties, c)
	}
	slices.Sort(counties)
	return counties
}

// All flattens the directory, ordered by county and then by site name.
func (d SiteDirectory) All() []Site {
	var all []Site
	for _, c := range d.Counties() {
		sites := slices.Clone(d[c])
		slices.SortStableFunc(sites, func(a, b Site) int {
			return strings.Compare(a.Name, b.Name)
		})
		all = append(all, sites...)
	}
	return all
}

// Find returns the site with the given name.
func (d SiteDirectory) Find(name string) (Site, bool) {
	for _, sites := range d {
		for _, s := range sites {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Site{}, false
}

// FilterSites keeps sites whose name, roadway, location or notes contain term,
// ignoring case. An empty term keeps everything.
func FilterSites(sites []Site, term string) []Site {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return sites
	}
	var out []Site
	for _, s := range sites {
		if containsFold(term, s.Name, s.Roadway, s.Location, s.Notes) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
