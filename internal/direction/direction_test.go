package direction

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carris-monitor/busmon/internal/models"
)

func TestDefaultDirections(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	ids := set.IDs()
	if len(ids) != 2 || ids[0] != "escola" || ids[1] != "dona_maria" {
		t.Fatalf("IDs = %v, want [escola dona_maria]", ids)
	}

	escola, err := set.Get("escola")
	if err != nil {
		t.Fatalf("Get(escola): %v", err)
	}
	donaMaria, err := set.Get("dona_maria")
	if err != nil {
		t.Fatalf("Get(dona_maria): %v", err)
	}

	if escola.Target.ID != donaMaria.Secondary.ID || escola.Secondary.ID != donaMaria.Target.ID {
		t.Error("directions should swap target and secondary POIs")
	}
	if len(escola.PatternIDs) != 4 || len(donaMaria.PatternIDs) != 4 {
		t.Error("each direction should accept four patterns")
	}
	if !escola.AcceptsPattern("1603_0_2") || escola.AcceptsPattern("1603_0_1") {
		t.Error("escola pattern set mismatch")
	}
	if !escola.AcceptsRoute("1636_1") || !escola.AcceptsLine("1637") || escola.AcceptsLine("9999") {
		t.Error("escola route/line sets mismatch")
	}
	if !escola.IsPOI("110004") || !escola.IsPOI("171577") || escola.IsPOI("110009") {
		t.Error("IsPOI mismatch")
	}
}

func TestDirectionSource(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if got := set.Samples(); len(got) != 2 {
		t.Errorf("Samples = %v, want both bundled directions", got)
	}

	set, err = Parse([]byte(`{"directions": [{"id": "a", "target": {"id": "T", "lat": 38.8, "lon": -9.2},
		"secondary": {"id": "S", "lat": 38.9, "lon": -9.3},
		"pattern_ids": ["P"], "route_ids": ["R"], "line_ids": ["L"]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, _ := set.Get("a")
	if a.Source != SourcePublished || a.IsSample() {
		t.Errorf("Source = %q, want %q by default", a.Source, SourcePublished)
	}
	if got := set.Samples(); len(got) != 0 {
		t.Errorf("Samples = %v, want none", got)
	}

	_, err = Parse([]byte(`{"directions": [{"id": "a", "source": "guessed", "target": {"id": "T", "lat": 38.8, "lon": -9.2},
		"secondary": {"id": "S", "lat": 38.9, "lon": -9.3},
		"pattern_ids": ["P"], "route_ids": ["R"], "line_ids": ["L"]}]}`))
	if err == nil || !strings.Contains(err.Error(), "source") {
		t.Errorf("unknown source: err = %v", err)
	}
}

func TestGetUnknownDirection(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	_, err = set.Get("invalid")
	if !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("Get(invalid) error = %v, want ErrUnknownDirection", err)
	}
}

func validConfig(id string) *Config {
	return &Config{
		ID:         id,
		Target:     models.POI{ID: "A", Lat: 38.81, Lon: -9.23},
		Secondary:  models.POI{ID: "B", Lat: 38.82, Lon: -9.25},
		PatternIDs: []string{"p1"},
		RouteIDs:   []string{"r1"},
		LineIDs:    []string{"l1"},
	}
}

func TestNewSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing id", func(c *Config) { c.ID = "" }, "without id"},
		{"missing target", func(c *Config) { c.Target = models.POI{} }, "target"},
		{"bad secondary lat", func(c *Config) { c.Secondary.Lat = 95 }, "latitude"},
		{"same POI", func(c *Config) { c.Secondary.ID = "A" }, "same stop"},
		{"no patterns", func(c *Config) { c.PatternIDs = nil }, "non-empty"},
		{"bad timetable", func(c *Config) {
			c.Timetable = map[string]Schedule{"p1": {LineID: "l1", Departures: []string{"25:00"}}}
		}, "timetable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig("x")
			tc.mutate(c)
			_, err := NewSet(c)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("NewSet error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}

	if _, err := NewSet(validConfig("x"), validConfig("x")); err == nil {
		t.Error("duplicate ids should be rejected")
	}
	if _, err := NewSet(); err == nil {
		t.Error("empty set should be rejected")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Load(strings.NewReader("{")); err == nil {
		t.Error("expected parse error")
	}
}

func TestNextDepartures(t *testing.T) {
	c := validConfig("x")
	c.PatternIDs = []string{"p1", "p2", "p3"}
	c.Timetable = map[string]Schedule{
		"p1": {LineID: "l1", Departures: []string{"08:30", "07:00", "09:15", "10:00"}},
		"p2": {LineID: "l2", Departures: []string{"06:00"}},
	}
	if _, err := NewSet(c); err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	now := time.Date(2026, 3, 2, 8, 30, 40, 0, time.UTC)
	got := c.NextDepartures(now, 2)

	if len(got) != 2 {
		t.Fatalf("got %d pattern groups, want 2 (p3 has no timetable)", len(got))
	}

	p1 := got[0]
	if p1.PatternID != "p1" || len(p1.Departures) != 2 {
		t.Fatalf("p1 = %+v", p1)
	}
	if p1.Departures[0].Time != "08:30" || p1.Departures[0].MinutesUntil != 0 {
		t.Errorf("first p1 departure = %+v", p1.Departures[0])
	}
	if p1.Departures[1].Time != "09:15" || p1.Departures[1].MinutesUntil != 45 {
		t.Errorf("second p1 departure = %+v", p1.Departures[1])
	}

	if len(got[1].Departures) != 0 {
		t.Errorf("p2 should have no remaining departures, got %+v", got[1].Departures)
	}
}
