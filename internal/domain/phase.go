package domain

// Phase is the display name of a pool's lifecycle stage as reported by the contract.
type Phase string

const (
	PhaseRegistrationVoting Phase = "Registration and Voting"
	PhaseBetting            Phase = "Betting"
	PhaseElimination        Phase = "Elimination"
	PhaseCompleted          Phase = "Completed"
	PhaseUnknown            Phase = "UNKNOWN"
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks if the phase is one of the known contract phases.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseRegistrationVoting, PhaseBetting, PhaseElimination, PhaseCompleted:
		return true
	}
	return false
}

// ParsePhase maps the contract's getPoolStateAsString output to a Phase.
// Unrecognized names map to PhaseUnknown.
func ParsePhase(s string) Phase {
	p := Phase(s)
	if p.IsValid() {
		return p
	}
	return PhaseUnknown
}

// PhaseFromState maps the numeric pool state (pools(id).state) to a Phase.
// Used only when the string accessor is unavailable.
func PhaseFromState(state uint8) Phase {
	switch state {
	case 0:
		return PhaseRegistrationVoting
	case 1:
		return PhaseBetting
	case 2:
		return PhaseElimination
	case 3:
		return PhaseCompleted
	default:
		return PhaseUnknown
	}
}
