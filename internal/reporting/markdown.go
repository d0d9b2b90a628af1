package reporting

import (
	"fmt"
	"strings"
	"time"

	"survive-arena/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *PoolReport) string {
	var sb strings.Builder
	p := r.Pool

	sb.WriteString(fmt.Sprintf("# Pool #%d Report\n\n", p.ID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| State | %s |\n", p.State))
	sb.WriteString(fmt.Sprintf("| Players (active / eliminated / total) | %d / %d / %d |\n",
		p.ActivePlayers, p.EliminatedPlayers, p.TotalPlayers))
	sb.WriteString(fmt.Sprintf("| Entrance Fee | %s |\n", p.EntranceFee))
	sb.WriteString(fmt.Sprintf("| Ticket Price | %s |\n", p.TicketPrice))
	sb.WriteString(fmt.Sprintf("| Bet Range | %s - %s |\n", p.MinBetAmount, p.MaxBetAmount))
	sb.WriteString(fmt.Sprintf("| Fees (entrance / bets / tickets) | %s / %s / %s |\n",
		p.TotalEntranceFees, p.TotalBetFees, p.TotalTicketFees))
	sb.WriteString(fmt.Sprintf("| Candidates To Select | %d |\n", p.CandidatesToSelect))
	champion := "-"
	if p.Champion != "" {
		champion = p.Champion
	}
	sb.WriteString(fmt.Sprintf("| Champion | %s |\n", champion))
	sb.WriteString(fmt.Sprintf("| Total Votes | %d |\n", r.TotalVotes))
	sb.WriteString("\n")

	// Ranking
	sb.WriteString("## Ranking\n\n")
	if len(r.Ranked) > 0 {
		sb.WriteString("| Rank | Player | Votes |\n")
		sb.WriteString("|------|--------|-------|\n")
		for _, rp := range r.Ranked {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d |\n", rp.Rank, playerLabel(rp.PlayerRecord), rp.Votes))
		}
	} else {
		sb.WriteString("No active players.\n")
	}
	sb.WriteString("\n")

	if len(r.Eliminated) > 0 {
		sb.WriteString("## Eliminated\n\n")
		for _, e := range r.Eliminated {
			sb.WriteString(fmt.Sprintf("- %s\n", playerLabel(e)))
		}
		sb.WriteString("\n")
	}

	// Archive
	sb.WriteString("## Ledger Archive\n\n")
	if len(r.Events) > 0 {
		sb.WriteString(fmt.Sprintf("Blocks %d - %d\n\n", r.FirstBlock, r.LastBlock))
		sb.WriteString("| Event | Count |\n")
		sb.WriteString("|-------|-------|\n")
		for _, e := range r.Events {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", e.EventName, e.Count))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No archived events.\n\n")
	}

	if len(r.Bets) > 0 {
		sb.WriteString("### Bets\n\n")
		sb.WriteString("| Type | Multiplier | Count | Total |\n")
		sb.WriteString("|------|------------|-------|-------|\n")
		for _, b := range r.Bets {
			sb.WriteString(fmt.Sprintf("| %s | x%d | %d | %s |\n",
				b.BetType.Label(), b.BetType.Multiplier(), b.Count, b.TotalAmount))
		}
		sb.WriteString("\n")
	}

	if len(r.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func playerLabel(p domain.PlayerRecord) string {
	if p.TwitterUsername != "" {
		return fmt.Sprintf("@%s (%s)", p.TwitterUsername, domain.ShortAddress(p.Address))
	}
	return domain.ShortAddress(p.Address)
}
