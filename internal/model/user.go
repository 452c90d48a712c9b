package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role gates access to organizer and admin operations.
type Role string

const (
	RoleParticipant Role = "Participant"
	RoleOrganizer   Role = "Organizer"
	RoleAdmin       Role = "Admin"
)

// User is an account. IIIT accounts have a globally unique email.
// Guest accounts may share an email: the (email, password) pair is the
// true identity key, so no unique index exists on email alone.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsIIIT       bool      `json:"is_iiit"`
	// DiscordWebhook is an organizer's announcement channel; publish
	// notifications post there when set.
	DiscordWebhook string    `json:"discord_webhook,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

var (
	emailPattern     = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	iiitEmailPattern = regexp.MustCompile(`(?i)^[a-zA-Z0-9._%+-]+@([a-zA-Z0-9-]+\.)*iiit\.ac\.in$`)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic structure.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: please provide a valid email", ErrValidation)
	}
	return nil
}

// IsIIITEmail reports whether the address belongs to the institute
// domain, required for IIIT account registration.
func IsIIITEmail(email string) bool {
	return iiitEmailPattern.MatchString(email)
}
