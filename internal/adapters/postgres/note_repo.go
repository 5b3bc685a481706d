package postgres

import (
	"context"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// NoteRepo implements ports.NoteRepository with pgx and PostGIS.
type NoteRepo struct {
	db *DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Create inserts a single note.
func (r *NoteRepo) Create(ctx context.Context, n *domain.Note) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notes (id, location, content, expires_at, created_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6)
	`, n.ID, n.Location.Lon, n.Location.Lat, n.Content, n.ExpiresAt, n.CreatedAt)
	return mapError("insert note", err)
}

// FindNearby returns live notes within radiusMeters.
func (r *NoteRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Note, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       content, expires_at, created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM notes
		WHERE expires_at >= $4
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	`, center.Lon, center.Lat, radiusMeters, now)
	if err != nil {
		return nil, mapError("find nearby notes", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var (
			n    domain.Note
			dist float64
		)
		if err := rows.Scan(
			&n.ID, &n.Location.Lat, &n.Location.Lon,
			&n.Content, &n.ExpiresAt, &n.CreatedAt, &dist,
		); err != nil {
			return nil, mapError("scan note", err)
		}
		n.Distance = &dist
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find nearby notes", err)
	}
	return notes, nil
}

// DeleteExpired removes notes whose expiration is strictly before now.
func (r *NoteRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return deleteExpired(ctx, r.db, "notes", now)
}
