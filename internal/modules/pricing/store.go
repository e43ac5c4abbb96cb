// README: Price matrix store backed by PostgreSQL. Read-only reference data.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const rowColumns = `brand, model, year_from, year_to, service_type,
       price, tier_under_40k, tier_under_70k, tier_under_100k, tier_over_100k`

func (s *Store) RowsFor(ctx context.Context, brand, model string, serviceType ServiceType) ([]MatrixRow, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rowColumns+`
        FROM price_matrix
        WHERE lower(brand) = lower($1) AND lower(model) = lower($2) AND service_type = $3
        ORDER BY year_from`,
		brand, model, string(serviceType),
	)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *Store) RowsForBrand(ctx context.Context, brand string, serviceType ServiceType) ([]MatrixRow, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rowColumns+`
        FROM price_matrix
        WHERE lower(brand) = lower($1) AND service_type = $2
        ORDER BY model, year_from`,
		brand, string(serviceType),
	)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]MatrixRow, error) {
	defer rows.Close()
	var out []MatrixRow
	for rows.Next() {
		var r MatrixRow
		if err := rows.Scan(
			&r.Brand, &r.Model, &r.YearFrom, &r.YearTo, &r.ServiceType,
			&r.Price, &r.TierUnder40, &r.TierUnder70, &r.TierUnder100, &r.TierOver100,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
