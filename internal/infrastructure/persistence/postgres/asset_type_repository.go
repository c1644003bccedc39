// Package postgres - AssetTypeRepository: справочник валют.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository реализует ports.AssetTypeRepository.
// Таблица сидируется миграциями и меняется редко.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

// NewAssetTypeRepository создаёт новый AssetTypeRepository.
func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// FindByID загружает asset type по ID.
func (r *AssetTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)
	return scanAssetType(q.QueryRow(ctx,
		`SELECT id, code, name, active, created_at FROM asset_types WHERE id = $1`, id))
}

// FindByCode загружает asset type по уникальному коду.
func (r *AssetTypeRepository) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)
	return scanAssetType(q.QueryRow(ctx,
		`SELECT id, code, name, active, created_at FROM asset_types WHERE code = $1`, code))
}

// List возвращает все asset types.
func (r *AssetTypeRepository) List(ctx context.Context) ([]*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	rows, err := q.Query(ctx, `SELECT id, code, name, active, created_at FROM asset_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset types: %w", err)
	}
	defer rows.Close()

	var assets []*entities.AssetType
	for rows.Next() {
		asset, err := scanAssetType(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func scanAssetType(row pgx.Row) (*entities.AssetType, error) {
	var (
		id        uuid.UUID
		code      string
		name      string
		active    bool
		createdAt time.Time
	)

	err := row.Scan(&id, &code, &name, &active, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan asset type: %w", err)
	}

	return entities.ReconstructAssetType(id, code, name, active, createdAt), nil
}
