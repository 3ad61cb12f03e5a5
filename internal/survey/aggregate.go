package survey

import (
	"slices"
	"strings"
	"time"
)

// Dimension is the observation attribute seatbelt usage is grouped by.
type Dimension string

const (
	ByCounty  Dimension = "county"
	ByVehicle Dimension = "vehicle"
	ByGender  Dimension = "gender"
)

// ParseDimension maps a user supplied name to a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "county", "":
		return ByCounty, true
	case "vehicle", "vehicle_type", "vehicletype":
		return ByVehicle, true
	case "gender":
		return ByGender, true
	}
	return "", false
}

func (d Dimension) key(o Observation) string {
	switch d {
	case ByVehicle:
		return o.VehicleType
	case ByGender:
		return o.Gender
	}
	return o.County
}

// Usage counts seatbelt answers for one group.
type Usage struct {
	Key   string `json:"name"`
	Yes   int    `json:"yes"`
	No    int    `json:"no"`
	Maybe int    `json:"maybe"`
}

// Total is the number of classified observations in the group.
func (u Usage) Total() int {
	return u.Yes + u.No + u.Maybe
}

// Rate is the share of "yes" answers, or 0 for an empty group.
func (u Usage) Rate() float64 {
	if u.Total() == 0 {
		return 0
	}
	return float64(u.Yes) / float64(u.Total())
}

// UsageBy groups observations along dim and counts seatbelt answers. Groups
// appear in the order they are first seen. Answers other than yes, no and
// maybe still create the group but are not counted.
func UsageBy(observations []Observation, dim Dimension) []Usage {
	var rows []Usage
	index := map[string]int{}
	for _, o := range observations {
		k := dim.key(o)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, Usage{Key: k})
		}
		switch strings.ToLower(strings.TrimSpace(o.SeatbeltOn)) {
		case "yes":
			rows[i].Yes++
		case "no":
			rows[i].No++
		case "maybe":
			rows[i].Maybe++
		}
	}
	return rows
}

// Counties returns the sorted, distinct counties seen in the data set.
func Counties(ds DataSet) []string {
	seen := map[string]struct{}{}
	for _, o := range ds.Collections {
		seen[o.County] = struct{}{}
	}
	for _, v := range ds.Volume {
		seen[v.County] = struct{}{}
	}
	delete(seen, "")
	counties := make([]string, 0, len(seen))
	for c := range seen {
		counties = append(counties, c)
	}
	slices.Sort(counties)
	return counties
}

// FilterObservations keeps observations in county (all counties when empty)
// whose site, observer, role, vehicle type or gender contains term, ignoring
// case. The result is ordered newest first.
func FilterObservations(observations []Observation, county, term string) []Observation {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []Observation
	for _, o := range observations {
		if county != "" && o.County != county {
			continue
		}
		if term != "" && !containsFold(term, o.Site, o.Observer, o.Role, o.VehicleType, o.Gender) {
			continue
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, func(a, b Observation) int {
		return compareNewestFirst(a.Timestamp, b.Timestamp)
	})
	return out
}

// FilterVolume is FilterObservations for volume counts, searching site,
// observer and count.
func FilterVolume(volume []VolumeCount, county, term string) []VolumeCount {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []VolumeCount
	for _, v := range volume {
		if county != "" && v.County != county {
			continue
		}
		if term != "" && !containsFold(term, v.Site, v.Observer, v.Count.String()) {
			continue
		}
		out = append(out, v)
	}
	slices.SortStableFunc(out, func(a, b VolumeCount) int {
		return compareNewestFirst(a.Timestamp, b.Timestamp)
	})
	return out
}

// VolumeTotal sums the counts recorded at one site.
type VolumeTotal struct {
	County  string  `json:"county"`
	Site    string  `json:"site"`
	Total   float64 `json:"total"`
	Samples int     `json:"samples"`
}

// VolumeTotals sums numeric counts per county and site, ordered by county then
// site. Counts that are not numbers are skipped.
func VolumeTotals(volume []VolumeCount) []VolumeTotal {
	type key struct{ county, site string }
	totals := map[key]*VolumeTotal{}
	for _, v := range volume {
		n, ok := v.Count.Float()
		if !ok {
			continue
		}
		k := key{v.County, v.Site}
		t, found := totals[k]
		if !found {
			t = &VolumeTotal{County: v.County, Site: v.Site}
			totals[k] = t
		}
		t.Total += n
		t.Samples++
	}
	out := make([]VolumeTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b VolumeTotal) int {
		if c := strings.Compare(a.County, b.County); c != 0 {
			return c
		}
		return strings.Compare(a.Site, b.Site)
	})
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp formats the mobile app has produced.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareNewestFirst orders parseable timestamps newest first and places
// unparseable ones last.
func compareNewestFirst(a, b string) int {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}
