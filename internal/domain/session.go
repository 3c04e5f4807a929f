package domain

import "time"

// Session is the explicit login state of one storefront user: the remote API
// token and the profile it belongs to. It is created by login and destroyed
// by logout.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ProfileID string    `json:"profile_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns the time left until expiry at now, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
