// Package entities - AssetType is a currency/point class (gold coins, diamonds,
// loyalty points). Amounts never cross asset types.
package entities

import (
	"time"

	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// AssetType represents a virtual currency class.
// Seeded once at deployment; effectively immutable to the ledger core.
type AssetType struct {
	id        uuid.UUID
	code      string // Unique machine code, e.g. "GOLD"
	name      string // Human-readable name, e.g. "Gold Coins"
	active    bool
	createdAt time.Time
}

// NewAssetType creates a new asset type.
func NewAssetType(code, name string) (*AssetType, error) {
	if code == "" {
		return nil, errors.ValidationError{
			Field:   "code",
			Message: "asset code is required",
		}
	}
	if name == "" {
		return nil, errors.ValidationError{
			Field:   "name",
			Message: "asset name is required",
		}
	}

	return &AssetType{
		id:        uuid.New(),
		code:      code,
		name:      name,
		active:    true,
		createdAt: time.Now(),
	}, nil
}

// ReconstructAssetType reconstructs an AssetType from stored data.
// Used by repository to hydrate entities from database.
func ReconstructAssetType(id uuid.UUID, code, name string, active bool, createdAt time.Time) *AssetType {
	return &AssetType{
		id:        id,
		code:      code,
		name:      name,
		active:    active,
		createdAt: createdAt,
	}
}

func (a *AssetType) ID() uuid.UUID        { return a.id }
func (a *AssetType) Code() string         { return a.code }
func (a *AssetType) Name() string         { return a.name }
func (a *AssetType) IsActive() bool       { return a.active }
func (a *AssetType) CreatedAt() time.Time { return a.createdAt }
