package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// AssetRepository defines storage operations for uploaded file metadata.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uint) (*models.Asset, error)
	GetByHash(ctx context.Context, hash string) (*models.Asset, error)
	CountCoverReferences(ctx context.Context, hash string) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository returns a repository implementation for asset metadata.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *assetRepository) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) GetByHash(ctx context.Context, hash string) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// CountCoverReferences counts the posts whose cover points at the hash.
// Deduplicated assets stay alive while any post still references them.
func (r *assetRepository) CountCoverReferences(ctx context.Context, hash string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("cover_asset_id = ?", hash).
		Count(&count).Error
	return count, err
}

func (r *assetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Asset{}, id).Error
}
