package pool

import (
	"errors"

	"survive-arena/internal/domain"
)

// Eligibility predicates. Phase is the only state input; the raw
// IsActive/IsCompleted flags are never consulted.

// CanJoin reports whether the connected account may join the pool.
func CanJoin(s *domain.PoolSnapshot, alreadyPlayer bool) bool {
	return s != nil && s.State == domain.PhaseRegistrationVoting && !alreadyPlayer
}

// CanVote does not require the voter to be a participant.
func CanVote(s *domain.PoolSnapshot, remainingVotes int64) bool {
	return s != nil && s.State == domain.PhaseRegistrationVoting && remainingVotes > 0
}

func CanBet(s *domain.PoolSnapshot) bool {
	return s != nil && s.State == domain.PhaseBetting
}

func CanBuyVotingTicket(s *domain.PoolSnapshot) bool {
	return s != nil && s.State == domain.PhaseRegistrationVoting
}

// IsSelfVote reports whether target is the connected account.
func IsSelfVote(target, connected string) bool {
	return domain.SameAddress(target, connected)
}

var (
	// ErrSelfVote is returned when the connected account selects itself.
	ErrSelfVote = errors.New("cannot vote for yourself")
	// ErrSelectionFull is returned when the selection is at its cap.
	ErrSelectionFull = errors.New("no remaining votes")
)

// VoteSelection is a per-session set of tentatively selected candidates,
// bounded by the voter's remaining votes. Not safe for concurrent use.
type VoteSelection struct {
	connected string
	cap       int
	order     []string
	set       map[string]struct{}
}

// NewVoteSelection creates an empty selection for the connected account.
func NewVoteSelection(connected string, remainingVotes int) *VoteSelection {
	if remainingVotes < 0 {
		remainingVotes = 0
	}
	return &VoteSelection{
		connected: domain.NormalizeAddress(connected),
		cap:       remainingVotes,
		set:       make(map[string]struct{}),
	}
}

// Add selects addr. Self-votes and adds past the cap leave the set unchanged.
func (v *VoteSelection) Add(addr string) error {
	a := domain.NormalizeAddress(addr)
	if IsSelfVote(a, v.connected) {
		return ErrSelfVote
	}
	if _, ok := v.set[a]; ok {
		return nil
	}
	if len(v.order) >= v.cap {
		return ErrSelectionFull
	}
	v.set[a] = struct{}{}
	v.order = append(v.order, a)
	return nil
}

// Remove deselects addr.
func (v *VoteSelection) Remove(addr string) {
	a := domain.NormalizeAddress(addr)
	if _, ok := v.set[a]; !ok {
		return
	}
	delete(v.set, a)
	for i, x := range v.order {
		if x == a {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// Toggle removes addr when selected, otherwise adds it.
func (v *VoteSelection) Toggle(addr string) error {
	if v.Contains(addr) {
		v.Remove(addr)
		return nil
	}
	return v.Add(addr)
}

func (v *VoteSelection) Contains(addr string) bool {
	_, ok := v.set[domain.NormalizeAddress(addr)]
	return ok
}

// Addresses returns the selection in the order it was made.
func (v *VoteSelection) Addresses() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

func (v *VoteSelection) Len() int {
	return len(v.order)
}

// SetCap updates the cap after remaining votes change. A lower cap drops
// the most recent selections.
func (v *VoteSelection) SetCap(remainingVotes int) {
	if remainingVotes < 0 {
		remainingVotes = 0
	}
	v.cap = remainingVotes
	for len(v.order) > v.cap {
		last := v.order[len(v.order)-1]
		v.order = v.order[:len(v.order)-1]
		delete(v.set, last)
	}
}
