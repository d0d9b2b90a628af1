package idhash

import "testing"

func TestComputeLedgerEventID(t *testing.T) {
	a := ComputeLedgerEventID("0xABCDEF", 3)
	b := ComputeLedgerEventID("0xabcdef", 3)
	if a != b {
		t.Errorf("tx hash case must not change the id: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == ComputeLedgerEventID("0xabcdef", 4) {
		t.Error("different log index must produce different id")
	}
}

func TestActivityIDs(t *testing.T) {
	const p = "0x1111111111111111111111111111111111111111"
	const c = "0x2222222222222222222222222222222222222222"

	tests := []struct {
		got, want string
	}{
		{PoolCreatedID(1), "pool-created-1"},
		{PlayerJoinedID(2, p), "player-joined-2-" + p},
		{PlayerEliminatedID(2, p), "player-eliminated-2-" + p},
		{ChampionDeclaredID(5), "champion-declared-5"},
		{BetPlacedID(3, p, 0), "bet-placed-3-" + p + "-0"},
		{VotingTicketPurchasedID(3, p), "voting-ticket-purchased-3-" + p},
		{VoteCastID(4, p, c), "vote-cast-4-" + p + "-" + c},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
