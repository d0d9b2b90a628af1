package idhash

import (
	"fmt"
	"strings"
)

// Activity ids are readable composite keys, stable across refreshes.

// PoolCreatedID returns the id of a pool creation event.
func PoolCreatedID(poolID uint64) string {
	return fmt.Sprintf("pool-created-%d", poolID)
}

// PlayerJoinedID returns the id of a join event.
func PlayerJoinedID(poolID uint64, player string) string {
	return fmt.Sprintf("player-joined-%d-%s", poolID, player)
}

// PlayerEliminatedID returns the id of an elimination event.
func PlayerEliminatedID(poolID uint64, player string) string {
	return fmt.Sprintf("player-eliminated-%d-%s", poolID, player)
}

// ChampionDeclaredID returns the id of a champion event.
func ChampionDeclaredID(poolID uint64) string {
	return fmt.Sprintf("champion-declared-%d", poolID)
}

// BetPlacedID returns the id of the index-th bet of a bettor.
func BetPlacedID(poolID uint64, bettor string, index int) string {
	return fmt.Sprintf("bet-placed-%d-%s-%d", poolID, bettor, index)
}

// VotingTicketPurchasedID returns the id of a voting ticket purchase event.
func VotingTicketPurchasedID(poolID uint64, buyer string) string {
	return fmt.Sprintf("voting-ticket-purchased-%d-%s", poolID, buyer)
}

// VoteCastID returns the id of a single ballot.
func VoteCastID(poolID uint64, voter, candidate string) string {
	return strings.Join([]string{"vote-cast", fmt.Sprint(poolID), voter, candidate}, "-")
}
