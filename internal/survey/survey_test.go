package survey

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringAcceptsNumbersAndStrings(t *testing.T) {
	var s Site
	err := json.Unmarshal([]byte(`{"county":"Wake","name":"W-1","latitude":35.78,"longitude":"-78.64","segment_length":null}`), &s)
	require.NoError(t, err)
	assert.Equal(t, FlexString("35.78"), s.Latitude)
	assert.Equal(t, FlexString("-78.64"), s.Longitude)
	assert.Equal(t, FlexString(""), s.SegmentLength)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"latitude":"35.78"`)
}

func TestValidateSite(t *testing.T) {
	valid := Site{
		County:            "Wake",
		Name:              "W-101",
		Roadway:           "US-1",
		Location:          "North of exit 98",
		Latitude:          "35.78",
		Longitude:         "-78.64",
		SegmentLength:     "0.5",
		DirectionOfTravel: "NB",
	}
	require.NoError(t, ValidateSite(valid))

	tests := []struct {
		name    string
		mutate  func(*Site)
		field   string
		message string
	}{
		{"missing county", func(s *Site) { s.County = "" }, "county", "County is required"},
		{"missing name", func(s *Site) { s.Name = "" }, "name", "Location ID is required"},
		{"bad latitude", func(s *Site) { s.Latitude = "north" }, "latitude", "Must be a valid number"},
		{"negative segment", func(s *Site) { s.SegmentLength = "-1" }, "segment_length", "Must be a positive number"},
		{"bad direction", func(s *Site) { s.DirectionOfTravel = "N" }, "direction_of_travel", "Must be one of NB, SB, EB, WB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := ValidateSite(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSite))
			assert.True(t, errors.Is(err, ErrValidation))
			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.message, fe.Get(tt.field))
		})
	}
}

func TestValidateUser(t *testing.T) {
	u := User{Email: "ana@example.com", FirstName: "Ana", LastName: "Diaz", Role: RoleManager, Enabled: true}

	assert.NoError(t, ValidateUser(u, false))

	err := ValidateUser(u, true)
	require.Error(t, err)
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Password is required for new users", fe.Get("password"))

	u.Password = "short"
	err = ValidateUser(u, true)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Password must be at least 8 characters", fe.Get("password"))

	u.Password = "long-enough"
	u.Email = "not-an-email"
	u.Role = "owner"
	err = ValidateUser(u, true)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Please enter a valid email address", fe.Get("email"))
	assert.NotEmpty(t, fe.Get("role"))
}

func TestValidateImageRef(t *testing.T) {
	assert.NoError(t, ValidateImageRef(ImageRef{County: "Wake", SiteName: "W-1", FileName: "a.jpg"}))
	err := ValidateImageRef(ImageRef{County: "Wake"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRef))
}

func sampleObservations() []Observation {
	return []Observation{
		{Timestamp: "2024-03-01T10:00:00Z", County: "Wake", Site: "W-1", Observer: "ana", SeatbeltOn: "Yes", Gender: "female", VehicleType: "car"},
		{Timestamp: "2024-03-02T10:00:00Z", County: "Durham", Site: "D-1", Observer: "ben", SeatbeltOn: "no", Gender: "male", VehicleType: "truck"},
		{Timestamp: "2024-03-03T10:00:00Z", County: "Wake", Site: "W-2", Observer: "ana", SeatbeltOn: "MAYBE", Gender: "male", VehicleType: "car"},
		{Timestamp: "bogus", County: "Wake", Site: "W-1", Observer: "cy", SeatbeltOn: "yes", Gender: "female", VehicleType: "suv"},
		{Timestamp: "2024-03-04", County: "Durham", Site: "D-2", Observer: "ben", SeatbeltOn: "unknown", Gender: "female", VehicleType: "car"},
	}
}

func TestUsageBy(t *testing.T) {
	rows := UsageBy(sampleObservations(), ByCounty)
	require.Len(t, rows, 2)
	assert.Equal(t, Usage{Key: "Wake", Yes: 2, Maybe: 1}, rows[0])
	assert.Equal(t, Usage{Key: "Durham", No: 1}, rows[1])
	assert.InDelta(t, 2.0/3.0, rows[0].Rate(), 1e-9)
	assert.Equal(t, 0.0, Usage{}.Rate())

	rows = UsageBy(sampleObservations(), ByVehicle)
	keys := []string{}
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"car", "truck", "suv"}, keys)

	rows = UsageBy(sampleObservations(), ByGender)
	assert.Equal(t, "female", rows[0].Key)
	assert.Equal(t, 2, rows[0].Yes)
}

func TestParseDimension(t *testing.T) {
	d, ok := ParseDimension("Vehicle_Type")
	assert.True(t, ok)
	assert.Equal(t, ByVehicle, d)
	_, ok = ParseDimension("colour")
	assert.False(t, ok)
}

func TestFilterObservations(t *testing.T) {
	obs := FilterObservations(sampleObservations(), "Wake", "")
	require.Len(t, obs, 3)
	assert.Equal(t, "W-2", obs[0].Site)
	assert.Equal(t, "bogus", obs[2].Timestamp)

	obs = FilterObservations(sampleObservations(), "", "BEN")
	require.Len(t, obs, 2)
	assert.Equal(t, "D-2", obs[0].Site)

	assert.Empty(t, FilterObservations(sampleObservations(), "Orange", ""))
}

func TestFilterVolumeAndTotals(t *testing.T) {
	vol := []VolumeCount{
		{Timestamp: "2024-03-01T10:00:00Z", County: "Wake", Site: "W-1", Observer: "ana", Count: "12"},
		{Timestamp: "2024-03-02T10:00:00Z", County: "Wake", Site: "W-1", Observer: "ana", Count: "8"},
		{Timestamp: "2024-03-03T10:00:00Z", County: "Durham", Site: "D-1", Observer: "ben", Count: "n/a"},
		{Timestamp: "2024-03-04T10:00:00Z", County: "Durham", Site: "D-1", Observer: "ben", Count: "5.5"},
	}

	got := FilterVolume(vol, "", "12")
	require.Len(t, got, 1)
	assert.Equal(t, FlexString("12"), got[0].Count)

	totals := VolumeTotals(vol)
	require.Len(t, totals, 2)
	assert.Equal(t, VolumeTotal{County: "Durham", Site: "D-1", Total: 5.5, Samples: 1}, totals[0])
	assert.Equal(t, VolumeTotal{County: "Wake", Site: "W-1", Total: 20, Samples: 2}, totals[1])
}

func TestCounties(t *testing.T) {
	ds := DataSet{
		Collections: sampleObservations(),
		Volume:      []VolumeCount{{County: "Orange"}, {County: ""}},
	}
	assert.Equal(t, []string{"Durham", "Orange", "Wake"}, Counties(ds))
}

func TestSiteDirectory(t *testing.T) {
	d := GroupSites([]Site{
		{County: "Wake", Name: "W-2"},
		{County: "Durham", Name: "D-1", Notes: "school zone"},
		{County: "Wake", Name: "W-1", Latitude: "35.1", Longitude: "-78.2"},
	})
	assert.Equal(t, []string{"Durham", "Wake"}, d.Counties())

	all := d.All()
	require.Len(t, all, 3)
	assert.Equal(t, "W-1", all[1].Name)

	s, ok := d.Find("W-1")
	require.True(t, ok)
	assert.Equal(t, "https://maps.google.com/?q=35.1,-78.2", s.MapsURL())
	assert.Empty(t, all[0].MapsURL())

	assert.Len(t, FilterSites(all, "SCHOOL"), 1)
	assert.Len(t, FilterSites(all, ""), 3)
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Ana Diaz", User{FirstName: "Ana", LastName: "Diaz"}.FullName())
	assert.Equal(t, "Diaz", User{LastName: "Diaz"}.FullName())
}

func TestFilterUsers(t *testing.T) {
	users := []User{
		{Email: "ana@example.org", FirstName: "Ana", LastName: "Diaz", Role: RoleAdmin},
		{Email: "bo@example.org", FirstName: "Bo", LastName: "Lee", Role: RoleUser},
		{Email: "cy@example.org", FirstName: "Cy", LastName: "Diaz", Role: RoleUser},
	}
	assert.Len(t, FilterUsers(users, "", ""), 3)
	assert.Len(t, FilterUsers(users, "diaz", ""), 2)
	assert.Len(t, FilterUsers(users, "diaz", "USER"), 1)
	assert.Equal(t, "bo@example.org", FilterUsers(users, " BO@ ", "")[0].Email)
	assert.Empty(t, FilterUsers(users, "nobody", ""))
}
