package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
)

// GraphRepository implements graph.Store on Postgres. Nodes are keyed by the
// deterministic ids, edges by composite primary keys, so concurrent identical
// upserts converge without locking.
type GraphRepository struct{ db *sql.DB }

func NewGraphRepository(db *sql.DB) *GraphRepository { return &GraphRepository{db: db} }

// EnsureSchema creates the graph tables when missing.
func (r *GraphRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS graph_entities (
  id              TEXT PRIMARY KEY,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  address         TEXT NOT NULL DEFAULT '',
  phone           TEXT NOT NULL DEFAULT '',
  email           TEXT NOT NULL DEFAULT '',
  country         TEXT NOT NULL DEFAULT '',
  risk_level      TEXT NOT NULL DEFAULT '',
  attributes      JSONB NOT NULL DEFAULT '{}',
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS graph_directors (
  id            TEXT PRIMARY KEY,
  external_id   TEXT,
  name          TEXT NOT NULL DEFAULT '',
  nationality   TEXT NOT NULL DEFAULT '',
  date_of_birth TEXT NOT NULL DEFAULT '',
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS graph_directors_external_id
  ON graph_directors (external_id) WHERE external_id IS NOT NULL;
CREATE TABLE IF NOT EXISTS director_associations (
  director_id      TEXT NOT NULL REFERENCES graph_directors(id),
  company_id       TEXT NOT NULL REFERENCES graph_entities(id),
  position         TEXT NOT NULL DEFAULT '',
  status           TEXT NOT NULL DEFAULT '',
  appointment_date TEXT NOT NULL DEFAULT '',
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (director_id, company_id)
);
CREATE TABLE IF NOT EXISTS entity_associations (
  person_id  TEXT NOT NULL REFERENCES graph_entities(id),
  company_id TEXT NOT NULL REFERENCES graph_entities(id),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (person_id, company_id)
);`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// UpsertEntity insert/update an entity node. Empty incoming attributes never
// blank out values learned from earlier submissions.
func (r *GraphRepository) UpsertEntity(ctx context.Context, e *entities.Entity) error {
	const q = `
INSERT INTO graph_entities
(id, kind, name, normalized_name, address, phone, email, country, risk_level, attributes, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 name            = EXCLUDED.name,
 address         = COALESCE(NULLIF(EXCLUDED.address,''), graph_entities.address),
 phone           = COALESCE(NULLIF(EXCLUDED.phone,''), graph_entities.phone),
 email           = COALESCE(NULLIF(EXCLUDED.email,''), graph_entities.email),
 country         = COALESCE(NULLIF(EXCLUDED.country,''), graph_entities.country),
 risk_level      = COALESCE(NULLIF(EXCLUDED.risk_level,''), graph_entities.risk_level),
 attributes      = graph_entities.attributes || EXCLUDED.attributes,
 updated_at      = EXCLUDED.updated_at;`

	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrJSON, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		e.ID, e.Kind, e.Name, e.NormalizedName,
		e.Address, e.Phone, e.Email, e.Country, e.RiskLevel,
		attrJSON, time.Now().UTC(),
	)
	return err
}

// UpsertDirector matches by external_id when present so the same director
// submitted under different companies lands on one node. Returns the
// canonical id of the stored row.
func (r *GraphRepository) UpsertDirector(ctx context.Context, d *entities.Director) (entities.DirectorID, error) {
	if d.ExternalID != "" {
		const q = `
INSERT INTO graph_directors (id, external_id, name, nationality, date_of_birth, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO UPDATE SET
 name          = COALESCE(NULLIF(EXCLUDED.name,''), graph_directors.name),
 nationality   = COALESCE(NULLIF(EXCLUDED.nationality,''), graph_directors.nationality),
 date_of_birth = COALESCE(NULLIF(EXCLUDED.date_of_birth,''), graph_directors.date_of_birth),
 updated_at    = EXCLUDED.updated_at
RETURNING id;`
		var id entities.DirectorID
		err := r.db.QueryRowContext(ctx, q,
			d.ID, d.ExternalID, d.Name, d.Nationality, d.DateOfBirth, time.Now().UTC(),
		).Scan(&id)
		return id, err
	}

	const q = `
INSERT INTO graph_directors (id, external_id, name, nationality, date_of_birth, updated_at)
VALUES ($1, NULL, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
 name       = EXCLUDED.name,
 updated_at = EXCLUDED.updated_at;`
	if _, err := r.db.ExecContext(ctx, q, d.ID, d.Name, d.Nationality, d.DateOfBirth, time.Now().UTC()); err != nil {
		return "", err
	}
	return d.ID, nil
}

// UpsertDirectorAssociation upserts the edge; re-submission refreshes the
// attributes in place, never appends a second edge.
func (r *GraphRepository) UpsertDirectorAssociation(ctx context.Context, directorID entities.DirectorID, companyID entities.EntityID, attrs graph.AssociationAttrs) error {
	const q = `
INSERT INTO director_associations (director_id, company_id, position, status, appointment_date, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (director_id, company_id) DO UPDATE SET
 position         = COALESCE(NULLIF(EXCLUDED.position,''), director_associations.position),
 status           = COALESCE(NULLIF(EXCLUDED.status,''), director_associations.status),
 appointment_date = COALESCE(NULLIF(EXCLUDED.appointment_date,''), director_associations.appointment_date),
 updated_at       = EXCLUDED.updated_at;`
	_, err := r.db.ExecContext(ctx, q, directorID, companyID, attrs.Position, attrs.Status, attrs.AppointmentDate, time.Now().UTC())
	return err
}

func (r *GraphRepository) UpsertEntityAssociation(ctx context.Context, personID, companyID entities.EntityID) error {
	const q = `
INSERT INTO entity_associations (person_id, company_id, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (person_id, company_id) DO UPDATE SET updated_at = EXCLUDED.updated_at;`
	_, err := r.db.ExecContext(ctx, q, personID, companyID, time.Now().UTC())
	return err
}

const entityColumns = `id, kind, name, normalized_name, address, phone, email, country, risk_level, attributes`

func scanEntity(row interface{ Scan(...any) error }) (*entities.Entity, error) {
	var e entities.Entity
	var attrJSON []byte
	if err := row.Scan(
		&e.ID, &e.Kind, &e.Name, &e.NormalizedName,
		&e.Address, &e.Phone, &e.Email, &e.Country, &e.RiskLevel, &attrJSON,
	); err != nil {
		return nil, err
	}
	if len(attrJSON) > 0 {
		_ = json.Unmarshal(attrJSON, &e.Attributes)
	}
	return &e, nil
}

func (r *GraphRepository) GetEntity(ctx context.Context, id entities.EntityID) (*entities.Entity, error) {
	const q = `SELECT ` + entityColumns + ` FROM graph_entities WHERE id=$1 LIMIT 1;`
	e, err := scanEntity(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, graph.ErrNotFound
	}
	return e, err
}

// Relationships is the single-hop neighbourhood: associated persons and
// companies plus the director roster when the subject is a company.
func (r *GraphRepository) Relationships(ctx context.Context, id entities.EntityID) (*graph.Relationships, error) {
	subject, err := r.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &graph.Relationships{Entity: *subject}

	qAssoc := `
SELECT ` + prefixed("e") + `
FROM entity_associations a
JOIN graph_entities e
  ON e.id = CASE WHEN a.person_id = $1 THEN a.company_id ELSE a.person_id END
WHERE a.person_id = $1 OR a.company_id = $1;`
	rows, err := r.db.QueryContext(ctx, qAssoc, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		if e.Kind == entities.KindPerson {
			out.AssociatedPersons = append(out.AssociatedPersons, *e)
		} else {
			out.AssociatedCompanies = append(out.AssociatedCompanies, *e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qDirectors = `
SELECT d.id, COALESCE(d.external_id,''), d.name, d.nationality, d.date_of_birth,
       da.position, da.status, da.appointment_date
FROM director_associations da
JOIN graph_directors d ON d.id = da.director_id
WHERE da.company_id = $1;`
	drows, err := r.db.QueryContext(ctx, qDirectors, id)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var rec graph.DirectorRecord
		if err := drows.Scan(
			&rec.Director.ID, &rec.Director.ExternalID, &rec.Director.Name,
			&rec.Director.Nationality, &rec.Director.DateOfBirth,
			&rec.Position, &rec.Status, &rec.AppointmentDate,
		); err != nil {
			return nil, err
		}
		out.Directors = append(out.Directors, rec)
	}
	return out, drows.Err()
}

// CompaniesOf matches by external_director_id first, then internal id.
func (r *GraphRepository) CompaniesOf(ctx context.Context, directorKey string) ([]graph.CompanyRole, error) {
	q := `
SELECT ` + prefixed("e") + `, da.position, da.status, da.appointment_date
FROM graph_directors d
JOIN director_associations da ON da.director_id = d.id
JOIN graph_entities e ON e.id = da.company_id
WHERE d.external_id = $1 OR d.id = $1
ORDER BY e.name;`
	rows, err := r.db.QueryContext(ctx, q, directorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []graph.CompanyRole
	for rows.Next() {
		var role graph.CompanyRole
		var attrJSON []byte
		if err := rows.Scan(
			&role.Company.ID, &role.Company.Kind, &role.Company.Name, &role.Company.NormalizedName,
			&role.Company.Address, &role.Company.Phone, &role.Company.Email,
			&role.Company.Country, &role.Company.RiskLevel, &attrJSON,
			&role.Position, &role.Status, &role.AppointmentDate,
		); err != nil {
			return nil, err
		}
		if len(attrJSON) > 0 {
			_ = json.Unmarshal(attrJSON, &role.Company.Attributes)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, graph.ErrNotFound
	}
	return out, nil
}

// Analyze aggregates the risk of connected entities: direct associations at
// distance 1, companies sharing a director at distance 2. A subject not yet
// in the graph returns ErrNotFound; first submissions treat that as empty.
func (r *GraphRepository) Analyze(ctx context.Context, id entities.EntityID) (*graph.Analysis, error) {
	if _, err := r.GetEntity(ctx, id); err != nil {
		return nil, err
	}
	out := &graph.Analysis{}

	const qDirect = `
SELECT e.id, e.name, e.risk_level
FROM entity_associations a
JOIN graph_entities e
  ON e.id = CASE WHEN a.person_id = $1 THEN a.company_id ELSE a.person_id END
WHERE a.person_id = $1 OR a.company_id = $1;`
	if err := r.collectNeighbors(ctx, out, qDirect, id, 1); err != nil {
		return nil, err
	}

	const qCoDirector = `
SELECT DISTINCT e.id, e.name, e.risk_level
FROM director_associations da1
JOIN director_associations da2
  ON da2.director_id = da1.director_id AND da2.company_id <> da1.company_id
JOIN graph_entities e ON e.id = da2.company_id
WHERE da1.company_id = $1;`
	if err := r.collectNeighbors(ctx, out, qCoDirector, id, 2); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GraphRepository) collectNeighbors(ctx context.Context, out *graph.Analysis, q string, id entities.EntityID, distance int) error {
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var n graph.NeighborRisk
		if err := rows.Scan(&n.EntityID, &n.Name, &n.RiskLevel); err != nil {
			return err
		}
		n.Distance = distance
		out.ConnectionCount++
		if n.RiskLevel == "HIGH" || n.RiskLevel == "MEDIUM" {
			out.RiskConnections++
		}
		out.Neighbors = append(out.Neighbors, n)
	}
	return rows.Err()
}

func (r *GraphRepository) Stats(ctx context.Context) (*graph.Stats, error) {
	const q = `
SELECT
 (SELECT COUNT(*) FROM graph_entities),
 (SELECT COUNT(*) FROM graph_directors),
 (SELECT COUNT(*) FROM director_associations) + (SELECT COUNT(*) FROM entity_associations);`
	var s graph.Stats
	if err := r.db.QueryRowContext(ctx, q).Scan(&s.Entities, &s.Directors, &s.Edges); err != nil {
		return nil, err
	}
	return &s, nil
}

func prefixed(alias string) string {
	return alias + ".id, " + alias + ".kind, " + alias + ".name, " + alias + ".normalized_name, " +
		alias + ".address, " + alias + ".phone, " + alias + ".email, " + alias + ".country, " +
		alias + ".risk_level, " + alias + ".attributes"
}
