package domain

import "time"

// Profile is an off-chain player record linking a social identity to a wallet.
// Corresponds to players table in PostgreSQL.
type Profile struct {
	ID              int64     `json:"id"`
	TwitterID       string    `json:"twitter_id"`
	TwitterUsername string    `json:"twitter_username"`
	WalletAddress   string    `json:"wallet_address"` // lowercase hex
	ProfileImage    string    `json:"profile_image"`
	CreatedAt       time.Time `json:"created_at"`
	LastLogin       time.Time `json:"last_login"`
	IsActive        bool      `json:"is_active"`
}

// Identity is the user returned by the OAuth identity provider.
type Identity struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	ProfileImageURL string `json:"profileImageUrl"`
}
