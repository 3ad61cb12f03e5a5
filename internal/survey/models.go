package survey

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString holds a value the backend may send either as a JSON string or
// as a JSON number. It always marshals back as a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Float returns the numeric value, if any.
func (f FlexString) Float() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Observation is a single seatbelt observation recorded in the field.
type Observation struct {
	Timestamp   string     `json:"timestamp"`
	Latitude    FlexString `json:"latitude"`
	Longitude   FlexString `json:"longitude"`
	County      string     `json:"county"`
	Site        string     `json:"site"`
	Observer    string     `json:"observer"`
	Role        string     `json:"role"`
	SeatbeltOn  string     `json:"seatbelt_on"`
	Gender      string     `json:"gender"`
	VehicleType string     `json:"vehicle_type"`
}

// VolumeCount is a traffic volume count taken at a site over a time window.
type VolumeCount struct {
	Timestamp string     `json:"timestamp"`
	Latitude  FlexString `json:"lat"`
	Longitude FlexString `json:"long"`
	County    string     `json:"county"`
	Site      string     `json:"site"`
	Observer  string     `json:"observer"`
	Count     FlexString `json:"count"`
	TimeStart string     `json:"time_start"`
	TimeEnd   string     `json:"time_end"`
}

// DataSet is the collected survey data as returned by the backend.
type DataSet struct {
	Collections []Observation `json:"collections"`
	Volume      []VolumeCount `json:"volume"`
}

// Image is a photo attached to a site.
type Image struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// ImageRef identifies an image by the site it belongs to.
type ImageRef struct {
	County   string `json:"county" validate:"required"`
	SiteName string `json:"siteName" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
}
