package domain

// EventType is the closed set of activity feed event kinds.
type EventType string

const (
	EventPoolCreated           EventType = "POOL_CREATED"
	EventPlayerJoined          EventType = "PLAYER_JOINED"
	EventPlayerEliminated      EventType = "PLAYER_ELIMINATED"
	EventChampionDeclared      EventType = "CHAMPION_DECLARED"
	EventBetPlaced             EventType = "BET_PLACED"
	EventVoteCast              EventType = "VOTE_CAST"
	EventVotingTicketPurchased EventType = "VOTING_TICKET_PURCHASED"
)

// TimestampKind tells how an activity timestamp was obtained.
type TimestampKind string

const (
	TimestampExact     TimestampKind = "exact"     // recorded by the contract or a block header
	TimestampEstimated TimestampKind = "estimated" // heuristic
	TimestampUnknown   TimestampKind = "unknown"   // Timestamp is 0
)

// ActivityEvent is a synthetic feed entry. Not persisted.
type ActivityEvent struct {
	ID            string        `json:"id"`
	PoolID        uint64        `json:"poolId"`
	Type          EventType     `json:"type"`
	Description   string        `json:"description"`
	Timestamp     int64         `json:"timestamp"` // epoch ms
	TimestampKind TimestampKind `json:"timestampKind"`
	Address       string        `json:"address,omitempty"`
	Target        string        `json:"target,omitempty"`
	BetType       string        `json:"betType,omitempty"`
	Amount        string        `json:"amount,omitempty"`
}
