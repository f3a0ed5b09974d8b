package entity

import "time"

// Session is the signed-in state for one auth scope
type Session struct {
	Scope       Scope        `json:"scope"`
	AccessToken string       `json:"accessToken"`
	User        *StaffMember `json:"user,omitempty"`
	ExpiresAt   time.Time    `json:"expiresAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Expired reports whether the token has passed its expiry. Tokens without an exp claim never expire here.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NeedsRefresh reports whether the token expires within skew of now
func (s *Session) NeedsRefresh(now time.Time, skew time.Duration) bool {
	return !s.ExpiresAt.IsZero() && !now.Add(skew).Before(s.ExpiresAt)
}
