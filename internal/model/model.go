package model

import "time"

type Article struct {
	ID         int64     `json:"id"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Hidden     bool      `json:"-"`
}

type Member struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberKey struct {
	ID        int64      `json:"id"`
	MemberID  int64      `json:"member_id"`
	Alg       string     `json:"alg"`
	PublicKey string     `json:"public_key"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

type Challenge struct {
	Challenge string
	Alg       string
	ExpiresAt time.Time
}

// Token is the server-side record of an issued bearer token, keyed by the
// token's JWT id.
type Token struct {
	ID        string
	MemberID  int64
	Username  string
	KeyID     int64
	ExpiresAt time.Time
}

type SiteStats struct {
	Members  int64 `json:"members"`
	Articles int64 `json:"articles"`
}
