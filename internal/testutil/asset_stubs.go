// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// AssetRepoStub is an in-memory asset repository implementation for tests.
// CoverRefs maps a hash to the number of posts referencing it; absent
// entries count as zero.
type AssetRepoStub struct {
	items     map[string]*models.Asset
	nextID    uint
	CoverRefs map[string]int64
}

// NewAssetRepoStub creates an in-memory asset repository stub for tests.
func NewAssetRepoStub() *AssetRepoStub {
	return &AssetRepoStub{
		items:     make(map[string]*models.Asset),
		nextID:    1,
		CoverRefs: make(map[string]int64),
	}
}

// Create stores asset metadata in-memory.
func (s *AssetRepoStub) Create(_ context.Context, asset *models.Asset) error {
	if asset.ID == 0 {
		asset.ID = s.nextID
		s.nextID++
	}
	asset.CreatedAt = time.Now().UTC()
	s.items[asset.Hash] = asset
	return nil
}

// GetByID fetches an asset by row id.
func (s *AssetRepoStub) GetByID(_ context.Context, id uint) (*models.Asset, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// GetByHash fetches an asset by content hash.
func (s *AssetRepoStub) GetByHash(_ context.Context, hash string) (*models.Asset, error) {
	item, ok := s.items[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

// CountCoverReferences reports how many posts reference the hash.
func (s *AssetRepoStub) CountCoverReferences(_ context.Context, hash string) (int64, error) {
	return s.CoverRefs[hash], nil
}

// Delete removes the matching asset row.
func (s *AssetRepoStub) Delete(_ context.Context, id uint) error {
	for hash, item := range s.items {
		if item.ID == id {
			delete(s.items, hash)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Len reports how many assets are stored.
func (s *AssetRepoStub) Len() int {
	return len(s.items)
}

// TinyPNG renders a small solid PNG of the given dimensions.
func TinyPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
