package models

import "time"

// Link is one active shortened URL. Owner and Code are empty strings while
// the corresponding columns are NULL (anonymous link, code not yet assigned).
type Link struct {
	ID         int64      `db:"id"`
	Owner      string     `db:"owner"`
	Link       string     `db:"link"`
	Code       string     `db:"code"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	UsageCount int64      `db:"usage_count"`
	ExpiresAt  *time.Time `db:"expires_at"`
}

// ArchivedLink is the immutable record written by the expiry sweep.
type ArchivedLink struct {
	ID         int64     `db:"id"`
	Owner      string    `db:"owner"`
	Link       string    `db:"link"`
	Code       string    `db:"code"`
	CreatedAt  time.Time `db:"created_at"`
	DeletedAt  time.Time `db:"deleted_at"`
	UsageCount int64     `db:"usage_count"`
}

type User struct {
	ID             int64  `db:"id"`
	Username       string `db:"username"`
	HashedPassword string `db:"hashed_password"`
	Disabled       bool   `db:"disabled"`
}

type ShortenRequest struct {
	Link      string     `json:"link"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Alias     string     `json:"alias,omitempty"`
}

type ShortenResponse struct {
	Result string `json:"result"`
}

type StatsResponse struct {
	Owner      string     `json:"owner,omitempty"`
	Link       string     `json:"link"`
	Code       string     `json:"code"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UsageCount int64      `json:"usage_count"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

type Message struct {
	Text string `json:"text"`
}
