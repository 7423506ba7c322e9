package ironfront

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/operation"
)

// Batch is a parsed campaign batch file: a list of independent campaign
// entries, each of which runs in its own session.
type Batch struct {
	Campaigns []CampaignEntry `yaml:"campaigns"`
}

// CampaignEntry describes one scripted campaign run.
type CampaignEntry struct {
	Name      string         `yaml:"name"`
	Seed      int64          `yaml:"seed"`
	Force     forceSpec      `yaml:"force"`
	Stock     stockSpec      `yaml:"stock"`
	Objective objectiveSpec  `yaml:"objective"`
	Operation operationEntry `yaml:"operation"`
}

type forceSpec struct {
	Infantry  int     `yaml:"infantry"`
	Walkers   int     `yaml:"walkers"`
	Support   int     `yaml:"support"`
	Readiness float64 `yaml:"readiness"`
	Cohesion  float64 `yaml:"cohesion"`
}

func (s forceSpec) toForce() battle.Force {
	force := battle.Force{
		Infantry:  s.Infantry,
		Walkers:   s.Walkers,
		Support:   s.Support,
		Readiness: s.Readiness,
		Cohesion:  s.Cohesion,
	}
	if force.Readiness == 0 {
		force.Readiness = 0.8
	}
	if force.Cohesion == 0 {
		force.Cohesion = 0.8
	}
	return force
}

type stockSpec struct {
	Ammo float64 `yaml:"ammo"`
	Fuel float64 `yaml:"fuel"`
	Med  float64 `yaml:"med"`
}

type objectiveSpec struct {
	ID             string    `yaml:"id"`
	Name           string    `yaml:"name"`
	Terrain        string    `yaml:"terrain"`
	Infrastructure int       `yaml:"infrastructure"`
	Difficulty     float64   `yaml:"difficulty"`
	Control        float64   `yaml:"control"`
	Fortification  float64   `yaml:"fortification"`
	Reinforcement  float64   `yaml:"reinforcement"`
	Intel          float64   `yaml:"intel"`
	Garrison       forceSpec `yaml:"garrison"`
}

func (s objectiveSpec) toObjective() operation.Objective {
	terrain := s.Terrain
	if terrain == "" {
		terrain = "plains"
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return operation.Objective{
		ID:              s.ID,
		Name:            name,
		Terrain:         terrain,
		Infrastructure:  s.Infrastructure,
		BaseDifficulty:  s.Difficulty,
		Control:         s.Control,
		Fortification:   s.Fortification,
		Reinforcement:   s.Reinforcement,
		IntelConfidence: s.Intel,
		Status:          operation.StatusEnemy,
		Garrison:        s.Garrison.toForce(),
	}
}

type operationEntry struct {
	Type       string       `yaml:"type"`
	Shaping    decisionSpec `yaml:"shaping"`
	Engagement decisionSpec `yaml:"engagement"`
	Exploit    decisionSpec `yaml:"exploit"`
}

type decisionSpec struct {
	Axis        string `yaml:"axis"`
	FireSupport string `yaml:"fire_support"`
	Posture     string `yaml:"posture"`
	Risk        string `yaml:"risk"`
	Focus       string `yaml:"focus"`
	EndState    string `yaml:"end_state"`
}

// decisionFor maps a phase to the entry's scripted decision, falling back
// to a balanced default when the batch file leaves a phase unscripted.
func (e operationEntry) decisionFor(phase operation.Phase) operation.Decisions {
	switch phase {
	case operation.PhaseContactShaping:
		d := operation.ShapingDecisions{Axis: e.Shaping.Axis, FireSupport: e.Shaping.FireSupport}
		if d.Axis == "" {
			d.Axis = "direct_pressure"
		}
		if d.FireSupport == "" {
			d.FireSupport = "on_call_fire"
		}
		return d
	case operation.PhaseEngagement:
		d := operation.EngagementDecisions{Posture: e.Engagement.Posture, Risk: e.Engagement.Risk}
		if d.Posture == "" {
			d.Posture = "deliberate"
		}
		if d.Risk == "" {
			d.Risk = "balanced"
		}
		return d
	case operation.PhaseExploitConsolidate:
		d := operation.ExploitDecisions{Focus: e.Exploit.Focus, EndState: e.Exploit.EndState}
		if d.Focus == "" {
			d.Focus = "secure"
		}
		if d.EndState == "" {
			d.EndState = "hold"
		}
		return d
	default:
		return nil
	}
}

// LoadBatch reads and validates a campaign batch file.
func LoadBatch(path string) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var batch Batch
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(batch.Campaigns) == 0 {
		return nil, fmt.Errorf("batch file has no campaigns")
	}
	for i, entry := range batch.Campaigns {
		if entry.Name == "" {
			return nil, fmt.Errorf("campaign %d: name is required", i+1)
		}
		if entry.Objective.ID == "" {
			return nil, fmt.Errorf("campaign %q: objective id is required", entry.Name)
		}
		if entry.Operation.Type == "" {
			return nil, fmt.Errorf("campaign %q: operation type is required", entry.Name)
		}
	}
	return &batch, nil
}
