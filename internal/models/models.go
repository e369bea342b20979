package models

import "time"

// Unknown is the only valid absence sentinel for region levels.
const Unknown = "Unknown"

// GlobalRegion labels stats that fell through to the worldwide pool.
const GlobalRegion = "Global"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Opposite returns the other gender.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

type Mood string

const (
	MoodGood Mood = "good"
	MoodBad  Mood = "bad"
)

func (m Mood) Valid() bool {
	return m == MoodGood || m == MoodBad
}

// Regions is a country / city-or-province / district triplet.
type Regions struct {
	Region0 string `json:"region0"`
	Region1 string `json:"region1"`
	Region2 string `json:"region2"`
}

// Location is the per-request region identity. Std is always in the
// reference language and is the only side safe for equality matching.
type Location struct {
	Region0  string  `json:"region0"`
	Region1  string  `json:"region1"`
	Region2  string  `json:"region2"`
	Timezone string  `json:"timezone"`
	Std      Regions `json:"std"`
}

func (l Location) Display() Regions {
	return Regions{Region0: l.Region0, Region1: l.Region1, Region2: l.Region2}
}

// Address is a structured administrative address as returned by the
// geocoding service. Admin holds admin levels 1..10 keyed by level.
type Address struct {
	Name        string         `json:"name,omitempty"`
	Country     string         `json:"country,omitempty"`
	CountryCode string         `json:"country_code,omitempty"`
	State       string         `json:"state,omitempty"`
	County      string         `json:"county,omitempty"`
	City        string         `json:"city,omitempty"`
	District    string         `json:"district,omitempty"`
	Suburb      string         `json:"suburb,omitempty"`
	Admin       map[int]string `json:"admin,omitempty"`
}

// Level returns admin level n or "".
func (a Address) Level(n int) string {
	if a.Admin == nil {
		return ""
	}
	return a.Admin[n]
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Vote is immutable once written.
type Vote struct {
	ID        string    `json:"id"`
	VoterID   string    `json:"voter_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Gender    Gender    `json:"gender"`
	Mood      Mood      `json:"mood"`
	Region    Regions   `json:"region"`
	RegionStd Regions   `json:"region_std"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Analysis  *string   `json:"analysis"`
	IPHash    string    `json:"-"`
}

// VoteRow is the projection returned by aggregation queries.
type VoteRow struct {
	Mood      Mood
	Gender    Gender
	Region    Regions
	RegionStd Regions
}

type GenderStats struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type DashboardStats struct {
	Score     int         `json:"score"`
	Total     int         `json:"total"`
	Region    string      `json:"region"`
	RegionStd string      `json:"region_std"`
	Level     string      `json:"level"`
	Male      GenderStats `json:"male"`
	Female    GenderStats `json:"female"`
}

// ForGender returns the peer stats of g.
func (s DashboardStats) ForGender(g Gender) GenderStats {
	if g == GenderMale {
		return s.Male
	}
	return s.Female
}

// VoteFilter scopes a vote query. Empty region fields are not filtered.
type VoteFilter struct {
	Since      time.Time
	Until      time.Time // zero means open-ended
	Region0Std string
	Region1Std string
	Region2Std string
	Gender     Gender
}
