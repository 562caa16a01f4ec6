package voice

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive persists capture evidence in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE voice_embeddings (
//	    id            TEXT PRIMARY KEY,
//	    owner_email   TEXT NOT NULL,
//	    voice_print   TEXT NOT NULL,
//	    feature_count INT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX voice_embeddings_owner_idx ON voice_embeddings (owner_email);
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive constructs a PostgreSQL-backed archive.
func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

func (a *PostgresArchive) Save(ctx context.Context, rec ArchivedEmbedding) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO voice_embeddings (id, owner_email, voice_print, feature_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.OwnerEmail, rec.Serial, rec.FeatureCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("archive embedding: %w", err)
	}
	return nil
}

func (a *PostgresArchive) ListByOwner(ctx context.Context, email string) ([]ArchivedEmbedding, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, owner_email, voice_print, feature_count, created_at
		FROM voice_embeddings
		WHERE owner_email = $1
		ORDER BY created_at
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var out []ArchivedEmbedding
	for rows.Next() {
		var rec ArchivedEmbedding
		if err := rows.Scan(&rec.ID, &rec.OwnerEmail, &rec.Serial, &rec.FeatureCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
