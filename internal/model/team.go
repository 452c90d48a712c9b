package model

import (
	"crypto/rand"
	"time"
)

// TeamStatus is the lifecycle state of a team. The only transition is
// Forming -> Complete, taken exactly once when membership first reaches
// the event's minimum team size.
type TeamStatus string

const (
	TeamForming  TeamStatus = "Forming"
	TeamComplete TeamStatus = "Complete"
)

// Team groups participants for a team event. The leader is always a
// member. Join codes are globally unique across all teams.
type Team struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	LeaderID  string     `json:"leader_id"`
	Members   []string   `json:"members"`
	EventID   string     `json:"event_id"`
	Status    TeamStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasMember reports whether the user is on the roster.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// teamCodeAlphabet matches the uppercase alphanumeric codes users type
// in by hand; 36^6 candidates keep collisions rare.
const (
	teamCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	TeamCodeLength   = 6
)

// NewTeamCode samples one candidate join code, uniformly over the
// alphabet. It is a pure generator: global uniqueness is the caller's
// responsibility, retried a bounded number of times.
func NewTeamCode() string {
	// Reducing a raw byte mod 36 would favor the first 256%36 letters.
	// Bytes at or above the largest multiple of 36 are rejected instead.
	const limit = byte(256 - 256%len(teamCodeAlphabet))
	code := make([]byte, 0, TeamCodeLength)
	buf := make([]byte, TeamCodeLength)
	for {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, teamCodeAlphabet[int(b)%len(teamCodeAlphabet)])
			if len(code) == TeamCodeLength {
				return string(code)
			}
		}
	}
}
