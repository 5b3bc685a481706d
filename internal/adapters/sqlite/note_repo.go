package sqlite

import (
	"context"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// NoteRepo implements ports.NoteRepository on SQLite.
type NoteRepo struct {
	db *DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, n *domain.Note) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO notes (id, lat, lon, content, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.Location.Lat, n.Location.Lon, n.Content, toMicros(n.ExpiresAt), toMicros(n.CreatedAt))
	return mapError("insert note", err)
}

func (r *NoteRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Note, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query, args := boxQuery(`SELECT id, lat, lon, content, expires_at, created_at FROM notes`, center, radiusMeters, now)
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("find nearby notes", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var (
			n                domain.Note
			expires, created int64
		)
		if err := rows.Scan(&n.ID, &n.Location.Lat, &n.Location.Lon, &n.Content, &expires, &created); err != nil {
			return nil, mapError("scan note", err)
		}
		d := center.DistanceTo(n.Location)
		if d > radiusMeters {
			continue
		}
		n.ExpiresAt = fromMicros(expires)
		n.CreatedAt = fromMicros(created)
		n.Distance = &d
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find nearby notes", err)
	}
	return notes, nil
}

func (r *NoteRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return deleteExpired(ctx, r.db, "notes", now)
}
