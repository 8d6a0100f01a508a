package models

import "time"

// User is a record store account. One account may own containers for many
// wallets and domains.
type User struct {
	// UserID is the internal identifier; it is the "sub" claim of tokens.
	UserID int64 `json:"-"`

	// Login is the unique account name.
	Login string `json:"login"`

	// AuthHash is the HMAC of the account password computed by the client.
	// The plaintext password never leaves the client.
	AuthHash string `json:"auth_hash"`

	CreatedAt time.Time `json:"created_at"`
}
