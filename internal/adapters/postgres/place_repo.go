package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// DefaultMinSimilarity is the trigram similarity a gazetteer match must reach
// to be used as a geocoding result.
const DefaultMinSimilarity = 0.6

// PlaceRepo is a local gazetteer of well-known places. It implements
// ports.PlaceRepository and, through Geocode, ports.Geocoder.
type PlaceRepo struct {
	db            *DB
	minSimilarity float64
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB, minSimilarity float64) *PlaceRepo {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &PlaceRepo{db: db, minSimilarity: minSimilarity}
}

// UpsertBatch inserts or updates places keyed by place_id using pgx.Batch.
func (r *PlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	batch := &pgx.Batch{}
	for _, p := range places {
		batch.Queue(`
			INSERT INTO places (place_id, name, lat, lon)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (place_id) DO UPDATE
			SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon, updated_at = now()
		`, p.PlaceID, p.Name, p.Location.Lat, p.Location.Lon)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range places {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Search performs a fuzzy trigram search on place names, best match first.
func (r *PlaceRepo) Search(ctx context.Context, name string, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT place_id, name, lat, lon, similarity(name, $1) AS sim
		FROM places
		WHERE name % $1
		ORDER BY sim DESC, name
		LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		var sim float64
		if err := rows.Scan(&p.PlaceID, &p.Name, &p.Location.Lat, &p.Location.Lon, &sim); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// Name identifies the gazetteer in a geocoder chain.
func (r *PlaceRepo) Name() string {
	return "gazetteer"
}

// Geocode returns the closest gazetteer entry when it is similar enough to name.
func (r *PlaceRepo) Geocode(ctx context.Context, name string) (*domain.GeoPoint, error) {
	var pt domain.GeoPoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT lat, lon
		FROM places
		WHERE similarity(name, $1) >= $2
		ORDER BY similarity(name, $1) DESC
		LIMIT 1
	`, name, r.minSimilarity).Scan(&pt.Lat, &pt.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gazetteer lookup: %w", err)
	}
	return &pt, nil
}
