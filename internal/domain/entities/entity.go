package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// EntityID tipe untuk Entity
type EntityID string

// DirectorID tipe untuk Director
type DirectorID string

// Kind enum
type Kind string

const (
	KindPerson  Kind = "person"
	KindCompany Kind = "company"
)

// Entity is the canonical record for a person or company after resolution.
// ID is derived deterministically from kind + normalized name + country, so
// re-submitting the same real-world entity always maps to the same node.
type Entity struct {
	ID             EntityID          `json:"id"`
	Kind           Kind              `json:"kind"`
	Name           string            `json:"name"`
	NormalizedName string            `json:"normalized_name"`
	Address        string            `json:"address,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Email          string            `json:"email,omitempty"`
	Country        string            `json:"country,omitempty"`
	RiskLevel      string            `json:"risk_level,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Director node. ID is internally generated; ExternalID is the caller-supplied
// key used for idempotent matching across submissions.
type Director struct {
	ID          DirectorID `json:"id"`
	ExternalID  string     `json:"external_director_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	DateOfBirth string     `json:"date_of_birth,omitempty"`
}

// Normalize lower-cases, trims and collapses internal whitespace so cosmetic
// variants of the same name or address collide to the same value.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NewEntityID derives the stable entity id. Pure function of the normalized
// identity fields: same logical entity always maps to the same id, across
// process restarts.
func NewEntityID(kind Kind, normalizedName, country string) EntityID {
	h := stableHash(string(kind) + "|" + normalizedName + "|" + Normalize(country))
	return EntityID(string(kind) + "_" + h)
}

// NewDirectorIDFromExternal derives a deterministic director id from the
// caller-supplied external key, so concurrent identical upserts converge on
// the same node without locking.
func NewDirectorIDFromExternal(externalID string) DirectorID {
	return DirectorID("director_" + stableHash(externalID))
}

// NewDirectorID generates a fresh id for directors submitted without an
// external key. These never match across submissions.
func NewDirectorID() DirectorID {
	return DirectorID("director_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

func stableHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
