// Package wallet - ListAssetTypes use case: справочник валют.
package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
)

// ListAssetTypesUseCase возвращает все asset types.
type ListAssetTypesUseCase struct {
	assetRepo ports.AssetTypeRepository
}

// NewListAssetTypesUseCase создаёт use case.
func NewListAssetTypesUseCase(assetRepo ports.AssetTypeRepository) *ListAssetTypesUseCase {
	return &ListAssetTypesUseCase{assetRepo: assetRepo}
}

// Execute возвращает справочник валют.
func (uc *ListAssetTypesUseCase) Execute(ctx context.Context) ([]*dtos.AssetTypeDTO, error) {
	assets, err := uc.assetRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}

	result := make([]*dtos.AssetTypeDTO, 0, len(assets))
	for _, a := range assets {
		result = append(result, dtos.MapAssetTypeToDTO(a))
	}
	return result, nil
}
