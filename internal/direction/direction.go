// Package direction holds the immutable description of the two monitored
// travel directions: their points of interest, the lines, routes and
// patterns accepted for each, and the published timetable.
package direction

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carris-monitor/busmon/internal/location"
	"github.com/carris-monitor/busmon/internal/models"
)

//go:embed directions.json
var defaultDirections []byte

// ErrUnknownDirection is returned when a caller asks for a direction that is
// not configured.
var ErrUnknownDirection = errors.New("unknown direction")

// Data sources a direction may declare. Sample data stands in for values
// not yet taken from the operator's published feed.
const (
	SourcePublished = "published"
	SourceSample    = "sample"
)

// Schedule lists the scheduled departures of one pattern, as HH:MM strings
type Schedule struct {
	LineID     string   `json:"line_id"`
	Departures []string `json:"departures"`
}

// Config describes one travel direction. Values are built once by Load and
// must not be modified afterwards.
type Config struct {
	ID         string              `json:"id"`
	Label      string              `json:"label"`
	Target     models.POI          `json:"target"`
	Secondary  models.POI          `json:"secondary"`
	PatternIDs []string            `json:"pattern_ids"`
	RouteIDs   []string            `json:"route_ids"`
	LineIDs    []string            `json:"line_ids"`
	Timetable  map[string]Schedule `json:"timetable"`
	Source     string              `json:"source"`

	patterns map[string]struct{}
	routes   map[string]struct{}
	lines    map[string]struct{}
	poiIDs   map[string]struct{}
}

// AcceptsPattern reports whether vehicles on patternID belong to this direction
func (c *Config) AcceptsPattern(patternID string) bool {
	_, ok := c.patterns[patternID]
	return ok
}

// AcceptsRoute reports whether routeID is monitored in this direction
func (c *Config) AcceptsRoute(routeID string) bool {
	_, ok := c.routes[routeID]
	return ok
}

// AcceptsLine reports whether lineID is monitored in this direction
func (c *Config) AcceptsLine(lineID string) bool {
	_, ok := c.lines[lineID]
	return ok
}

// IsPOI reports whether stopID is the target or the secondary stop
func (c *Config) IsPOI(stopID string) bool {
	_, ok := c.poiIDs[stopID]
	return ok
}

// IsSample reports whether the direction's patterns or timetable are
// placeholder data
func (c *Config) IsSample() bool {
	return c.Source == SourceSample
}

func (c *Config) compile() {
	c.patterns = toSet(c.PatternIDs)
	c.routes = toSet(c.RouteIDs)
	c.lines = toSet(c.LineIDs)
	c.poiIDs = toSet([]string{c.Target.ID, c.Secondary.ID})
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("direction without id")
	}
	if err := validatePOI(c.Target); err != nil {
		return fmt.Errorf("direction %s: target: %w", c.ID, err)
	}
	if err := validatePOI(c.Secondary); err != nil {
		return fmt.Errorf("direction %s: secondary: %w", c.ID, err)
	}
	if c.Target.ID == c.Secondary.ID {
		return fmt.Errorf("direction %s: target and secondary are the same stop %s", c.ID, c.Target.ID)
	}
	switch c.Source {
	case "":
		c.Source = SourcePublished
	case SourcePublished, SourceSample:
	default:
		return fmt.Errorf("direction %s: source must be %q or %q, got %q", c.ID, SourcePublished, SourceSample, c.Source)
	}
	if len(c.PatternIDs) == 0 || len(c.RouteIDs) == 0 || len(c.LineIDs) == 0 {
		return fmt.Errorf("direction %s: pattern, route and line sets must be non-empty", c.ID)
	}
	for patternID, sched := range c.Timetable {
		for _, dep := range sched.Departures {
			if _, err := parseClock(dep); err != nil {
				return fmt.Errorf("direction %s: timetable %s: %w", c.ID, patternID, err)
			}
		}
	}
	return nil
}

func validatePOI(p models.POI) error {
	if p.ID == "" {
		return errors.New("missing stop id")
	}
	if _, ok := location.ValidateCoordinate(p.Lat, location.Latitude); !ok {
		return fmt.Errorf("stop %s: invalid latitude %v", p.ID, p.Lat)
	}
	if _, ok := location.ValidateCoordinate(p.Lon, location.Longitude); !ok {
		return fmt.Errorf("stop %s: invalid longitude %v", p.ID, p.Lon)
	}
	return nil
}

// Set is the full, validated collection of directions
type Set struct {
	order []string
	byID  map[string]*Config
}

// Default loads the direction set compiled into the binary
func Default() (*Set, error) {
	return Parse(defaultDirections)
}

// LoadFile loads a direction set from a JSON file
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening directions file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and validates a direction set
func Load(r io.Reader) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading directions: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a direction set
func Parse(data []byte) (*Set, error) {
	var doc struct {
		Directions []*Config `json:"directions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing directions JSON: %w", err)
	}
	return NewSet(doc.Directions...)
}

// NewSet validates configs and freezes them into a Set
func NewSet(configs ...*Config) (*Set, error) {
	if len(configs) == 0 {
		return nil, errors.New("no directions configured")
	}

	s := &Set{byID: make(map[string]*Config, len(configs))}
	for _, c := range configs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate direction %q", c.ID)
		}
		c.compile()
		s.byID[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return s, nil
}

// Get returns the direction with the given id
func (s *Set) Get(id string) (*Config, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, id)
	}
	return c, nil
}

// IDs returns the direction identifiers in configuration order
func (s *Set) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// All returns the directions in configuration order
func (s *Set) All() []*Config {
	out := make([]*Config, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Samples returns the ids of directions that carry placeholder data
func (s *Set) Samples() []string {
	var ids []string
	for _, id := range s.order {
		if s.byID[id].IsSample() {
			ids = append(ids, id)
		}
	}
	return ids
}

func toSet(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}
