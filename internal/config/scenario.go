package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"steerflow/internal/core"
)

var ErrInvalidScenario = errors.New("invalid scenario")

const (
	DefaultFrames      = 600
	DefaultTimeStep    = 1.0 / 60
	DefaultMaxContacts = 1024
	DefaultRestitution = 0.5
	DefaultGridSize    = 1.0
	DefaultMass        = 1.0
	defaultWorldExtent = 500.0
)

// Entity kinds.
const (
	KindStatic  = "static"
	KindMoving  = "moving"
	KindVehicle = "vehicle"
)

// Vec2 is a point written as [x, y].
type Vec2 [2]float64

func (v Vec2) Vector() core.Vector2D {
	return core.Vector2D{X: v[0], Y: v[1]}
}

func (v Vec2) IsZero() bool {
	return v[0] == 0 && v[1] == 0
}

// Scenario describes a world and how long to run it.
type Scenario struct {
	Name     string         `yaml:"name"`
	Frames   int            `yaml:"frames"`
	TimeStep float64        `yaml:"time_step"`
	World    World          `yaml:"world"`
	Walls    []Wall         `yaml:"walls"`
	Entities []EntityConfig `yaml:"entities"`
}

type World struct {
	Min         Vec2       `yaml:"min"`
	Max         Vec2       `yaml:"max"`
	MaxContacts int        `yaml:"max_contacts"`
	Restitution *float64   `yaml:"restitution"`
	GridSize    float64    `yaml:"grid_size"`
	Ignore      [][]string `yaml:"ignore"`
	IgnorePairs [][]string `yaml:"ignore_pairs"`
}

// Bounds returns the world rectangle.
func (w World) Bounds() core.AABB {
	return core.AABB{Min: w.Min.Vector(), Max: w.Max.Vector()}
}

type Wall struct {
	From Vec2 `yaml:"from"`
	To   Vec2 `yaml:"to"`
}

type EntityConfig struct {
	Name     string          `yaml:"name"`
	Kind     string          `yaml:"kind"`
	Types    []string        `yaml:"types"`
	Position Vec2            `yaml:"position"`
	Heading  Vec2            `yaml:"heading"`
	Velocity Vec2            `yaml:"velocity"`
	Mass     float64         `yaml:"mass"`
	MaxSpeed float64         `yaml:"max_speed"`
	MaxForce float64         `yaml:"max_force"`
	Shape    *Shape          `yaml:"shape"`
	Steering *SteeringConfig `yaml:"steering"`
}

// TypeMask combines the entity's type names into one bitmask.
func (e EntityConfig) TypeMask() (core.EntityType, error) {
	return ParseTypes(e.Types)
}

type Shape struct {
	Kind        string  `yaml:"kind"`
	Radius      float64 `yaml:"radius"`
	HalfExtents Vec2    `yaml:"half_extents"`
	Points      []Vec2  `yaml:"points"`
	Closed      bool    `yaml:"closed"`
}

type SteeringConfig struct {
	Behaviors        []string           `yaml:"behaviors"`
	Method           string             `yaml:"method"`
	Target           Vec2               `yaml:"target"`
	Deceleration     string             `yaml:"deceleration"`
	Pursue           string             `yaml:"pursue"`
	Evade            string             `yaml:"evade"`
	Leader           string             `yaml:"leader"`
	Offset           Vec2               `yaml:"offset"`
	Path             []Vec2             `yaml:"path"`
	Loop             bool               `yaml:"loop"`
	PlanTo           *Vec2              `yaml:"plan_to"`
	WaypointDistance float64            `yaml:"waypoint_distance"`
	MinBoxLength     float64            `yaml:"min_box_length"`
	Weights          map[string]float64 `yaml:"weights"`
}

// Load decodes a scenario, rejecting unknown fields, then applies defaults
// and validates it.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile is Load on the named file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// ApplyDefaults fills every unset tunable.
func (s *Scenario) ApplyDefaults() {
	if s.Frames == 0 {
		s.Frames = DefaultFrames
	}
	if s.TimeStep == 0 {
		s.TimeStep = DefaultTimeStep
	}

	w := &s.World
	if w.Min.IsZero() && w.Max.IsZero() {
		w.Min = Vec2{-defaultWorldExtent, -defaultWorldExtent}
		w.Max = Vec2{defaultWorldExtent, defaultWorldExtent}
	}
	if w.MaxContacts == 0 {
		w.MaxContacts = DefaultMaxContacts
	}
	if w.Restitution == nil {
		r := DefaultRestitution
		w.Restitution = &r
	}
	if w.GridSize == 0 {
		w.GridSize = DefaultGridSize
	}

	for i := range s.Entities {
		e := &s.Entities[i]
		if e.Kind == "" {
			e.Kind = KindStatic
			if e.Steering != nil {
				e.Kind = KindVehicle
			}
		}
		if e.Heading.IsZero() {
			e.Heading = Vec2{1, 0}
		}
		if e.Kind != KindStatic && e.Mass == 0 {
			e.Mass = DefaultMass
		}
		if e.Steering != nil {
			if e.Steering.Method == "" {
				e.Steering.Method = "prioritized"
			}
			if e.Steering.Deceleration == "" {
				e.Steering.Deceleration = "normal"
			}
		}
	}
}
