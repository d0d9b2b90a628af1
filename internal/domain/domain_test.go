package domain

import "testing"

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in   string
		want Phase
	}{
		{"Registration and Voting", PhaseRegistrationVoting},
		{"Betting", PhaseBetting},
		{"Elimination", PhaseElimination},
		{"Completed", PhaseCompleted},
		{"REGISTRATION", PhaseUnknown},
		{"", PhaseUnknown},
	}
	for _, tt := range tests {
		if got := ParsePhase(tt.in); got != tt.want {
			t.Errorf("ParsePhase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPhaseFromState(t *testing.T) {
	if got := PhaseFromState(0); got != PhaseRegistrationVoting {
		t.Errorf("state 0: got %q", got)
	}
	if got := PhaseFromState(3); got != PhaseCompleted {
		t.Errorf("state 3: got %q", got)
	}
	if got := PhaseFromState(9); got != PhaseUnknown {
		t.Errorf("state 9: got %q", got)
	}
}

func TestShortAddress(t *testing.T) {
	addr := "0x1234567890abcdef1234567890abcdef12345678"
	if got := ShortAddress(addr); got != "0x1234...5678" {
		t.Errorf("ShortAddress = %q", got)
	}
	if got := ShortAddress("0xabc"); got != "0xabc" {
		t.Errorf("short input should be unchanged, got %q", got)
	}
}

func TestSameAddress(t *testing.T) {
	if !SameAddress("0xABCdef", "0xabcDEF") {
		t.Error("expected case-insensitive match")
	}
	if SameAddress("", "") {
		t.Error("empty addresses must not match")
	}
	if !IsZeroAddress(ZeroAddress) || !IsZeroAddress("") {
		t.Error("expected zero address detection")
	}
}

func TestBetType(t *testing.T) {
	want := map[BetType]int64{
		BetTypeChampion: 10,
		BetTypeTop3:     5,
		BetTypeTop5:     3,
		BetTypeTop10:    2,
	}
	for bt, m := range want {
		if got := bt.Multiplier(); got != m {
			t.Errorf("%s multiplier = %d, want %d", bt.Label(), got, m)
		}
	}
	if BetType(7).Multiplier() != 0 || BetType(7).Label() != "Unknown" {
		t.Error("unknown bet type should have zero multiplier and Unknown label")
	}
	if _, err := ParseBetType(4); err == nil {
		t.Error("expected error for bet type 4")
	}
}
