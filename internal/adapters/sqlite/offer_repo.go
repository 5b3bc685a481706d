package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

const offerColumns = `id, lat, lon, quantity, price, discount, new_price,
	category, product, description, creator, photo_ref, logo_ref,
	validity_minutes, expires_at, created_at`

// OfferRepo implements ports.OfferRepository on SQLite.
type OfferRepo struct {
	db *DB
}

// NewOfferRepo creates a new OfferRepo.
func NewOfferRepo(db *DB) *OfferRepo {
	return &OfferRepo{db: db}
}

func (r *OfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO offers (`+offerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Location.Lat, o.Location.Lon, o.Quantity, o.Price, o.Discount, o.NewPrice,
		o.Category, o.Product, o.Description, o.Creator, o.PhotoRef, o.LogoRef,
		o.ValidityMinutes, toMicros(o.ExpiresAt), toMicros(o.CreatedAt))
	return mapError("insert offer", err)
}

// Claim decrements or deletes inside one transaction. The pool holds a
// single connection, so claims on this backend never interleave.
func (r *OfferRepo) Claim(ctx context.Context, id int64) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var remaining int
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var qty int
		if err := tx.QueryRowContext(ctx, `SELECT quantity FROM offers WHERE id = ?`, id).Scan(&qty); err != nil {
			return err
		}

		switch {
		case qty < 1:
			return domain.ErrExhausted
		case qty == 1:
			remaining = 0
			_, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
			return err
		default:
			remaining = qty - 1
			_, err := tx.ExecContext(ctx, `UPDATE offers SET quantity = ? WHERE id = ?`, remaining, id)
			return err
		}
	})
	if err != nil {
		return 0, mapError("claim offer", err)
	}
	return remaining, nil
}

func (r *OfferRepo) Update(ctx context.Context, id int64, u domain.OfferUpdate) (*domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.SQL.QueryRowContext(ctx, `
		UPDATE offers
		SET lat = ?, lon = ?, quantity = ?, price = ?, discount = ?, new_price = ?,
		    category = ?, product = ?, description = ?, creator = ?,
		    photo_ref = COALESCE(?, photo_ref),
		    logo_ref = COALESCE(?, logo_ref),
		    validity_minutes = ?
		WHERE id = ?
		RETURNING `+offerColumns,
		u.Location.Lat, u.Location.Lon, u.Quantity, u.Price, u.Discount,
		domain.DiscountedPrice(u.Price, u.Discount),
		u.Category, u.Product, u.Description, u.Creator, u.PhotoRef, u.LogoRef,
		u.ValidityMinutes, id)

	o, err := scanOffer(row)
	if err != nil {
		return nil, mapError("update offer", err)
	}
	return o, nil
}

func (r *OfferRepo) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	o, err := scanOffer(r.db.SQL.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id))
	if err != nil {
		return nil, mapError("get offer", err)
	}
	return o, nil
}

// FindNearby prefilters on a bounding box in SQL and keeps rows whose
// haversine distance is within radiusMeters.
func (r *OfferRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query, args := boxQuery(`SELECT `+offerColumns+` FROM offers`, center, radiusMeters, now)
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("find nearby offers", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, mapError("scan offer", err)
		}
		d := center.DistanceTo(o.Location)
		if d > radiusMeters {
			continue
		}
		o.Distance = &d
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find nearby offers", err)
	}
	return offers, nil
}

func (r *OfferRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return deleteExpired(ctx, r.db, "offers", now)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(s scanner) (*domain.Offer, error) {
	var (
		o                 domain.Offer
		expires, created  int64
		photoRef, logoRef sql.NullString
	)
	if err := s.Scan(
		&o.ID, &o.Location.Lat, &o.Location.Lon,
		&o.Quantity, &o.Price, &o.Discount, &o.NewPrice,
		&o.Category, &o.Product, &o.Description, &o.Creator,
		&photoRef, &logoRef, &o.ValidityMinutes, &expires, &created,
	); err != nil {
		return nil, err
	}
	if photoRef.Valid {
		o.PhotoRef = &photoRef.String
	}
	if logoRef.Valid {
		o.LogoRef = &logoRef.String
	}
	o.ExpiresAt = fromMicros(expires)
	o.CreatedAt = fromMicros(created)
	return &o, nil
}

// boxQuery appends the expiry and bounding-box filter to base. The longitude
// filter is dropped when the box wraps the antimeridian.
func boxQuery(base string, center domain.GeoPoint, radiusMeters float64, now time.Time) (string, []any) {
	b := domain.BoundsAround(center, radiusMeters)
	query := base + ` WHERE expires_at >= ? AND lat BETWEEN ? AND ?`
	args := []any{toMicros(now), b.MinLat, b.MaxLat}
	if b.MinLon >= -180 && b.MaxLon <= 180 {
		query += ` AND lon BETWEEN ? AND ?`
		args = append(args, b.MinLon, b.MaxLon)
	}
	return query, args
}

// deleteExpired is shared by both tables; table is never caller input.
func deleteExpired(ctx context.Context, db *DB, table string, now time.Time) ([]int64, error) {
	rows, err := db.SQL.QueryContext(ctx, `DELETE FROM `+table+` WHERE expires_at < ? RETURNING id`, toMicros(now))
	if err != nil {
		return nil, mapError("delete expired "+table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("delete expired "+table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("delete expired "+table, err)
	}
	return ids, nil
}
