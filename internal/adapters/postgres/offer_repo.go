package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

const offerColumns = `id,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lon,
	quantity, price, discount, new_price, category, product, description, creator,
	photo_ref, logo_ref, validity_minutes, expires_at, created_at`

// OfferRepo implements ports.OfferRepository with pgx and PostGIS.
type OfferRepo struct {
	db *DB
}

// NewOfferRepo creates a new OfferRepo.
func NewOfferRepo(db *DB) *OfferRepo {
	return &OfferRepo{db: db}
}

// Create inserts a single offer. Points are built as (lon, lat).
func (r *OfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO offers (id, location, quantity, price, discount, new_price,
		                    category, product, description, creator, photo_ref, logo_ref,
		                    validity_minutes, expires_at, created_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6, $7,
		        $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, o.ID, o.Location.Lon, o.Location.Lat, o.Quantity, o.Price, o.Discount, o.NewPrice,
		o.Category, o.Product, o.Description, o.Creator, o.PhotoRef, o.LogoRef,
		o.ValidityMinutes, o.ExpiresAt, o.CreatedAt)
	return mapError("insert offer", err)
}

// Claim locks the row, then decrements it or deletes it when the last unit
// is taken. Concurrent claims on the same offer queue on the row lock.
func (r *OfferRepo) Claim(ctx context.Context, id int64) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var remaining int
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var qty int
		if err := tx.QueryRow(ctx,
			`SELECT quantity FROM offers WHERE id = $1 FOR UPDATE`, id,
		).Scan(&qty); err != nil {
			return err
		}

		switch {
		case qty < 1:
			return domain.ErrExhausted
		case qty == 1:
			remaining = 0
			_, err := tx.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
			return err
		default:
			remaining = qty - 1
			_, err := tx.Exec(ctx, `UPDATE offers SET quantity = $2 WHERE id = $1`, id, remaining)
			return err
		}
	})
	if err != nil {
		return 0, mapError("claim offer", err)
	}
	return remaining, nil
}

// Update replaces the mutable fields in one statement. Nil handles keep the
// stored photo and logo.
func (r *OfferRepo) Update(ctx context.Context, id int64, u domain.OfferUpdate) (*domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, `
		UPDATE offers
		SET location = ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
		    quantity = $4, price = $5, discount = $6, new_price = $7,
		    category = $8, product = $9, description = $10, creator = $11,
		    photo_ref = COALESCE($12, photo_ref),
		    logo_ref = COALESCE($13, logo_ref),
		    validity_minutes = $14
		WHERE id = $1
		RETURNING `+offerColumns,
		id, u.Location.Lon, u.Location.Lat, u.Quantity, u.Price, u.Discount,
		domain.DiscountedPrice(u.Price, u.Discount),
		u.Category, u.Product, u.Description, u.Creator, u.PhotoRef, u.LogoRef,
		u.ValidityMinutes)

	o, err := scanOffer(row)
	if err != nil {
		return nil, mapError("update offer", err)
	}
	return o, nil
}

// GetByID returns an offer by id.
func (r *OfferRepo) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err != nil {
		return nil, mapError("get offer", err)
	}
	return o, nil
}

// FindNearby returns live offers within radiusMeters using PostGIS ST_DWithin.
func (r *OfferRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, now time.Time) ([]domain.Offer, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+offerColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM offers
		WHERE expires_at >= $4
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	`, center.Lon, center.Lat, radiusMeters, now)
	if err != nil {
		return nil, mapError("find nearby offers", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var (
			o    domain.Offer
			dist float64
		)
		if err := rows.Scan(offerDest(&o, &dist)...); err != nil {
			return nil, mapError("scan offer", err)
		}
		o.Distance = &dist
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find nearby offers", err)
	}
	return offers, nil
}

// DeleteExpired removes offers whose expiration is strictly before now.
func (r *OfferRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return deleteExpired(ctx, r.db, "offers", now)
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	if err := row.Scan(offerDest(&o)...); err != nil {
		return nil, err
	}
	return &o, nil
}

func offerDest(o *domain.Offer, extra ...any) []any {
	dest := []any{
		&o.ID, &o.Location.Lat, &o.Location.Lon,
		&o.Quantity, &o.Price, &o.Discount, &o.NewPrice,
		&o.Category, &o.Product, &o.Description, &o.Creator,
		&o.PhotoRef, &o.LogoRef, &o.ValidityMinutes, &o.ExpiresAt, &o.CreatedAt,
	}
	return append(dest, extra...)
}

// deleteExpired is shared by both tables; table is never caller input.
func deleteExpired(ctx context.Context, db *DB, table string, now time.Time) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `DELETE FROM `+table+` WHERE expires_at < $1 RETURNING id`, now)
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
