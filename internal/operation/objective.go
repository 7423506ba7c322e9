package operation

import (
	"errors"

	"github.com/louisbranch/ironfront/internal/battle"
)

// ObjectiveStatus is who holds a contested objective.
type ObjectiveStatus int

const (
	// StatusUnspecified represents an invalid objective status.
	StatusUnspecified ObjectiveStatus = iota
	// StatusEnemy marks an objective firmly in enemy hands.
	StatusEnemy
	// StatusContested marks an objective under active dispute.
	StatusContested
	// StatusSecured marks an objective under friendly control.
	StatusSecured
)

func (s ObjectiveStatus) String() string {
	switch s {
	case StatusEnemy:
		return "ENEMY"
	case StatusContested:
		return "CONTESTED"
	case StatusSecured:
		return "SECURED"
	default:
		return "UNSPECIFIED"
	}
}

// ErrInvalidObjective indicates objective fields outside their ranges.
var ErrInvalidObjective = errors.New("objective fields out of range")

// Objective is a contested map objective: the thing operations are fought
// over. Control and intel confidence live in [0, 1]; fortification and
// reinforcement are non-negative.
type Objective struct {
	ID   string
	Name string

	Terrain        string
	Infrastructure int
	BaseDifficulty float64

	Control         float64
	Fortification   float64
	Reinforcement   float64
	IntelConfidence float64
	Status          ObjectiveStatus

	Garrison battle.Force
}

// Validate checks the objective invariants.
func (o Objective) Validate() error {
	if o.Control < 0 || o.Control > 1 || o.IntelConfidence < 0 || o.IntelConfidence > 1 {
		return ErrInvalidObjective
	}
	if o.Fortification < 0 || o.Reinforcement < 0 || o.BaseDifficulty < 0 {
		return ErrInvalidObjective
	}
	if o.Status == StatusUnspecified {
		return ErrInvalidObjective
	}
	return o.Garrison.Validate()
}
