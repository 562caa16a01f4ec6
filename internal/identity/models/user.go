package models

import (
	"time"

	"github.com/google/uuid"

	"voxid/internal/voice"
)

// Role is an open string tag. The accepted set is configuration, not code:
// observed deployments disagree on the non-USER tags, so nothing compiles
// against a fixed enum.
type Role string

// RoleAdmin is the operator tag. It is the one role the gate treats
// specially: admins may act on identities other than their own.
const RoleAdmin Role = "ADMIN"

// RoleSet is the configured allow-list of role tags.
type RoleSet struct {
	tags map[Role]struct{}
}

// NewRoleSet builds a set from configured tag strings.
func NewRoleSet(tags []string) RoleSet {
	set := RoleSet{tags: make(map[Role]struct{}, len(tags))}
	for _, t := range tags {
		set.tags[Role(t)] = struct{}{}
	}
	return set
}

// Contains reports whether the role is an accepted tag.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s.tags[role]
	return ok
}

// User is the permanent identity record. Created only by completed
// registration; never hard-deleted in this subsystem.
type User struct {
	ID         uuid.UUID
	Email      string
	SecretHash string
	Role       Role
	Active     bool

	// VoicePrint is the single source of truth for the enrolled print.
	// Empty print + VoiceAuthEnabled=false means voice auth was never set up
	// or was disabled.
	VoicePrint       voice.Print
	VoiceAuthEnabled bool

	RegisteredAt time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
	LastLogoutAt time.Time
}

// PendingApplicant is the transient registration record awaiting OTP
// redemption. At most one exists per email; it is consumed on success and
// swept after expiry on abandonment.
type PendingApplicant struct {
	Email      string
	SecretHash string
	VoicePrint voice.Print
	Code       string
	Role       Role
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the applicant's window has closed.
func (p PendingApplicant) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
