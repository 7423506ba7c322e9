// Package operation implements the multi-day operation engine: the
// three-phase state machine, the per-day phase resolver, and the finalizer
// that turns a completed operation into an after-action report.
package operation

// Phase is one stage of an operation's linear lifecycle. There are no
// back-transitions and no skipping.
type Phase int

const (
	// PhaseUnspecified represents an invalid phase value.
	PhaseUnspecified Phase = iota
	// PhaseContactShaping is the opening phase: approach and shaping fires.
	PhaseContactShaping
	// PhaseEngagement is the main force-on-force phase.
	PhaseEngagement
	// PhaseExploitConsolidate is the closing phase: exploit or dig in.
	PhaseExploitConsolidate
	// PhaseComplete marks a finished operation awaiting finalization.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseContactShaping:
		return "CONTACT_SHAPING"
	case PhaseEngagement:
		return "ENGAGEMENT"
	case PhaseExploitConsolidate:
		return "EXPLOIT_CONSOLIDATE"
	case PhaseComplete:
		return "COMPLETE"
	default:
		return "UNSPECIFIED"
	}
}

// next returns the phase that follows p. Operation types without an
// exploit phase jump from engagement straight to completion.
func (p Phase) next(hasExploit bool) Phase {
	switch p {
	case PhaseContactShaping:
		return PhaseEngagement
	case PhaseEngagement:
		if hasExploit {
			return PhaseExploitConsolidate
		}
		return PhaseComplete
	case PhaseExploitConsolidate:
		return PhaseComplete
	default:
		return PhaseComplete
	}
}
