package operation

import (
	"errors"
	"fmt"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/rules"
)

var (
	// ErrInvalidDecision indicates a decision option outside its slot's
	// allowed set.
	ErrInvalidDecision = errors.New("invalid decision option")
)

// Decisions is the sealed sum of the three per-phase decision shapes. The
// state machine rejects any decision whose phase tag mismatches the active
// phase, so a shaping decision can never leak into the engagement phase.
type Decisions interface {
	// Phase reports which phase the decision belongs to.
	Phase() Phase
	// options lists the chosen decision strings in slot order.
	options() []string
	// validate checks every chosen option against its slot's allowed set.
	validate(tables *rules.Tables) error
	// secureFocus reports whether the decision selects the secure posture.
	secureFocus() bool
}

// ShapingDecisions are the phase-one choices: how to approach and how to
// use fire support on the way in.
type ShapingDecisions struct {
	Axis        string
	FireSupport string
}

// EngagementDecisions are the phase-two choices: engagement posture and
// risk tolerance.
type EngagementDecisions struct {
	Posture string
	Risk    string
}

// ExploitDecisions are the phase-three choices: exploit-versus-secure
// focus and the end state the operation is fought to.
type ExploitDecisions struct {
	Focus    string
	EndState string
}

var (
	axisOptions        = []string{"direct_pressure", "flanking", "infiltration"}
	fireSupportOptions = []string{"preparatory_fire", "on_call_fire", "silent_approach"}
	postureOptions     = []string{"deliberate", "aggressive", "siege"}
	riskOptions        = []string{"low_risk", "balanced", "high_risk"}
	focusOptions       = []string{"exploit", "secure"}
)

// Phase reports PhaseContactShaping.
func (d ShapingDecisions) Phase() Phase { return PhaseContactShaping }

func (d ShapingDecisions) options() []string { return []string{d.Axis, d.FireSupport} }

func (d ShapingDecisions) validate(tables *rules.Tables) error {
	if err := checkOption("axis", d.Axis, axisOptions); err != nil {
		return err
	}
	return checkOption("fire support", d.FireSupport, fireSupportOptions)
}

func (d ShapingDecisions) secureFocus() bool { return false }

// Phase reports PhaseEngagement.
func (d EngagementDecisions) Phase() Phase { return PhaseEngagement }

func (d EngagementDecisions) options() []string { return []string{d.Posture, d.Risk} }

func (d EngagementDecisions) validate(tables *rules.Tables) error {
	if err := checkOption("posture", d.Posture, postureOptions); err != nil {
		return err
	}
	return checkOption("risk", d.Risk, riskOptions)
}

func (d EngagementDecisions) secureFocus() bool { return false }

// Phase reports PhaseExploitConsolidate.
func (d ExploitDecisions) Phase() Phase { return PhaseExploitConsolidate }

func (d ExploitDecisions) options() []string { return []string{d.Focus} }

func (d ExploitDecisions) validate(tables *rules.Tables) error {
	if err := checkOption("focus", d.Focus, focusOptions); err != nil {
		return err
	}
	if _, err := tables.End(d.EndState); err != nil {
		return fmt.Errorf("%w: end state %q", ErrInvalidDecision, d.EndState)
	}
	return nil
}

func (d ExploitDecisions) secureFocus() bool { return d.Focus == "secure" }

func checkOption(slot, chosen string, allowed []string) error {
	for _, opt := range allowed {
		if chosen == opt {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidDecision, slot, chosen)
}

// modifiers composes the battle modifiers for one decision: multiplicative
// fields multiply across the chosen options, initiative bonuses add.
func modifiers(d Decisions, tables *rules.Tables) (battle.Modifiers, error) {
	mods := battle.NeutralModifiers()
	for _, name := range d.options() {
		opt, err := tables.Decision(name)
		if err != nil {
			return battle.Modifiers{}, err
		}
		mods.Progress *= opt.Progress
		mods.Loss *= opt.Loss
		mods.Variance *= opt.Variance
		mods.Intensity *= opt.Intensity
		mods.FortErosion *= opt.FortErosion
		mods.Initiative += opt.Initiative
	}
	mods.SecureFocus = d.secureFocus()
	return mods, nil
}
