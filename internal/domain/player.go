package domain

// PlayerRecord is one roster entry of a pool.
type PlayerRecord struct {
	Address         string `json:"address"` // lowercase hex
	IsActive        bool   `json:"isActive"`
	JoinTime        int64  `json:"joinTime"` // epoch ms
	Votes           int64  `json:"votes"`    // derived, not authoritative
	TwitterUsername string `json:"twitterUsername,omitempty"`
	ProfileImage    string `json:"profileImage,omitempty"`
	IsCurrentUser   bool   `json:"isCurrentUser"`
	Degraded        bool   `json:"degraded,omitempty"` // a sub-fetch failed
}

// RankedPlayer is a roster entry with its 1-based position in a ranking.
type RankedPlayer struct {
	PlayerRecord
	Rank int `json:"rank"`
}

// PopularPlayer aggregates votes for one address across pools.
type PopularPlayer struct {
	Address string `json:"address"`
	Votes   int64  `json:"votes"`
}

// VoteSummary is the contract's record of a voter's ballots in one pool.
type VoteSummary struct {
	VotedFor   []string `json:"votedFor"`
	TotalVotes int64    `json:"totalVotes"`
}

// VotingRights holds a voter's remaining and total vote allowance in one pool.
type VotingRights struct {
	Remaining int64 `json:"remaining"`
	Total     int64 `json:"total"`
}
