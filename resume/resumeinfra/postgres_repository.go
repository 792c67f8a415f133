package resumeinfra

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/adi-uchiha/jems/resume"
	"github.com/jmoiron/sqlx"
)

// PostgresSnapshotRepository reads active résumé rows and normalizes their
// JSONB sub-documents into the canonical snapshot shape
type PostgresSnapshotRepository struct {
	db *sqlx.DB
}

func NewPostgresSnapshotRepository(db *sqlx.DB) resume.SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// snapshotRow is a row from the resumes table. Sub-documents stay raw JSONB
// until the tolerant decoders in the resume package normalize them.
type snapshotRow struct {
	Name           sql.NullString `db:"name"`
	Education      []byte         `db:"education"`
	Experience     []byte         `db:"experience"`
	Skills         []byte         `db:"technical_skills"`
	Certifications []byte         `db:"certifications"`
}

// LoadActive returns the most recently updated active résumé for the user,
// or (nil, nil) when none exists
func (r *PostgresSnapshotRepository) LoadActive(ctx context.Context, userID kernel.UserID) (*resume.Snapshot, error) {
	query := `
		SELECT name, education, experience, technical_skills, certifications
		FROM resumes
		WHERE user_id = $1 AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1`

	var row snapshotRow
	err := r.db.GetContext(ctx, &row, query, userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, resume.ErrLoadFailed().
			WithDetail("user_id", userID.String()).
			WithCause(err)
	}

	return row.toSnapshot()
}

func (r *snapshotRow) toSnapshot() (*resume.Snapshot, error) {
	snapshot := &resume.Snapshot{}

	if r.Name.Valid {
		snapshot.Name = r.Name.String
	}

	if err := unmarshalSection(r.Education, &snapshot.Education); err != nil {
		return nil, resume.ErrMalformedRecord().
			WithDetail("field", "education").
			WithCause(err)
	}

	if err := unmarshalSection(r.Experience, &snapshot.Experience); err != nil {
		return nil, resume.ErrMalformedRecord().
			WithDetail("field", "experience").
			WithCause(err)
	}

	var skills resume.StringList
	if err := unmarshalSection(r.Skills, &skills); err != nil {
		return nil, resume.ErrMalformedRecord().
			WithDetail("field", "technical_skills").
			WithCause(err)
	}
	snapshot.Skills = skills

	var certifications resume.StringList
	if err := unmarshalSection(r.Certifications, &certifications); err != nil {
		return nil, resume.ErrMalformedRecord().
			WithDetail("field", "certifications").
			WithCause(err)
	}
	snapshot.Certifications = certifications

	return snapshot, nil
}

// unmarshalSection tolerates NULL and empty JSONB columns
func unmarshalSection(data []byte, out any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}
