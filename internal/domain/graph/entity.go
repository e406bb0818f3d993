package graph

import (
	"github.com/bryanwahyu/risknet/internal/domain/entities"
)

// AssociationAttrs are the edge attributes of a director↔company association.
// Re-submission updates these in place; it never duplicates the edge.
type AssociationAttrs struct {
	Position        string `json:"position,omitempty"`
	Status          string `json:"status,omitempty"`
	AppointmentDate string `json:"appointment_date,omitempty"`
}

// DirectorRecord is a director together with its edge attributes, as seen
// from a company.
type DirectorRecord struct {
	Director        entities.Director `json:"director"`
	Position        string            `json:"position,omitempty"`
	Status          string            `json:"status,omitempty"`
	AppointmentDate string            `json:"appointment_date,omitempty"`
}

// CompanyRole is a company together with the edge attributes, as seen from
// a director.
type CompanyRole struct {
	Company         entities.Entity `json:"company"`
	Position        string          `json:"position,omitempty"`
	Status          string          `json:"status,omitempty"`
	AppointmentDate string          `json:"appointment_date,omitempty"`
}

// Relationships is the single-hop neighbourhood of an entity.
type Relationships struct {
	Entity              entities.Entity   `json:"entity"`
	AssociatedPersons   []entities.Entity `json:"associated_persons"`
	AssociatedCompanies []entities.Entity `json:"associated_companies"`
	Directors           []DirectorRecord  `json:"directors"`
}

// NeighborRisk is one connected entity with its persisted risk level and the
// hop distance it was found at.
type NeighborRisk struct {
	EntityID  entities.EntityID `json:"entity_id"`
	Name      string            `json:"name"`
	RiskLevel string            `json:"risk_level"`
	Distance  int               `json:"distance"`
}

// Analysis aggregates the risk of directly (and co-director) connected
// entities for the scorer.
type Analysis struct {
	ConnectionCount int            `json:"connection_count"`
	RiskConnections int            `json:"risk_connections"`
	Neighbors       []NeighborRisk `json:"neighbors,omitempty"`
}

// Stats for the /api/stats endpoint.
type Stats struct {
	Entities  int `json:"entities"`
	Directors int `json:"directors"`
	Edges     int `json:"edges"`
}
