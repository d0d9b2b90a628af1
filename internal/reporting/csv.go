package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// RenderCSV renders the ranked roster of one or more reports as CSV.
// Eliminated players follow the ranked ones with rank 0.
func RenderCSV(reports []*PoolReport) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"pool_id", "state", "rank", "address", "twitter_username", "is_active", "votes"}); err != nil {
		return "", err
	}
	for _, r := range reports {
		id := strconv.FormatUint(r.Pool.ID, 10)
		state := string(r.Pool.State)
		for _, p := range r.Ranked {
			if err := w.Write([]string{id, state, strconv.Itoa(p.Rank), p.Address, p.TwitterUsername,
				"true", strconv.FormatInt(p.Votes, 10)}); err != nil {
				return "", err
			}
		}
		for _, p := range r.Eliminated {
			if err := w.Write([]string{id, state, "0", p.Address, p.TwitterUsername,
				"false", strconv.FormatInt(p.Votes, 10)}); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}
