package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"gorm.io/gorm"
)

const (
	DefaultAssetRoot        = "./data/assets"
	DefaultAssetBaseURL     = "/assets"
	AssetMaxUploadSizeBytes = 10 * 1024 * 1024
	AssetMasterMaxSize      = 2048
	AssetJPEGQuality        = 82
	AssetWebPQuality        = 70
)

// UploadAssetInput carries one uploaded file through validation and storage.
type UploadAssetInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AssetService stores cover images on disk under their content hash and
// tracks the metadata row. Uploading the same bytes twice is a no-op that
// returns the existing asset.
type AssetService struct {
	repo    repository.AssetRepository
	root    string
	baseURL string
}

func NewAssetService(repo repository.AssetRepository, cfg *config.Config) *AssetService {
	root := DefaultAssetRoot
	baseURL := DefaultAssetBaseURL
	if cfg != nil {
		if cfg.AssetRoot != "" {
			root = cfg.AssetRoot
		}
		if cfg.AssetBaseURL != "" {
			baseURL = cfg.AssetBaseURL
		}
	}
	return &AssetService{repo: repo, root: root, baseURL: baseURL}
}

// Root returns the on-disk directory assets are served from.
func (s *AssetService) Root() string {
	return s.root
}

// BaseURL returns the public URL prefix assets are mounted under.
func (s *AssetService) BaseURL() string {
	return s.baseURL
}

func (s *AssetService) Upload(ctx context.Context, in UploadAssetInput) (*models.Asset, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > AssetMaxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", AssetMaxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	master := resizeToFit(decoded, AssetMasterMaxSize, AssetMasterMaxSize)
	masterJPG, err := encodeJPEG(master, AssetJPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	masterWebP, err := encodeWebP(master, AssetWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := contentHash(masterJPG)
	if existing, getErr := s.repo.GetByHash(ctx, hash); getErr == nil {
		return existing, nil
	} else if !errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(getErr)
	}

	jpgRel := hash + ".jpg"
	webpRel := hash + ".webp"
	written := []string{filepath.Join(s.root, jpgRel), filepath.Join(s.root, webpRel)}

	if err := writeBytesToFile(written[0], masterJPG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(written[1], masterWebP); err != nil {
		removeAssetFiles(written)
		return nil, models.NewInternalError(err)
	}

	bounds := master.Bounds()
	asset := &models.Asset{
		Hash:         hash,
		OriginalPath: jpgRel,
		WebPPath:     webpRel,
		ContentType:  "image/jpeg",
		Bytes:        int64(len(masterJPG)),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		removeAssetFiles(written)
		return nil, models.NewInternalError(err)
	}
	return asset, nil
}

// URLFor returns the public URL of the asset's JPEG master.
func (s *AssetService) URLFor(asset *models.Asset) string {
	if asset == nil {
		return ""
	}
	return s.baseURL + "/" + asset.OriginalPath
}

// Release removes the metadata row and the stored files for the given
// content hash, unless another post still shares the deduplicated asset.
// File removal is best effort; a leaked file on disk is preferable to a
// dangling row.
func (s *AssetService) Release(ctx context.Context, hash string) error {
	if !isValidAssetHash(hash) {
		return models.NewValidationError("Invalid asset id")
	}
	asset, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return models.NewInternalError(err)
	}
	refs, err := s.repo.CountCoverReferences(ctx, hash)
	if err != nil {
		return models.NewInternalError(err)
	}
	// The releasing post's own row may still carry the hash at this point,
	// so one reference does not block deletion. Two or more means the asset
	// is shared and must survive.
	if refs > 1 {
		return nil
	}
	if err := s.repo.Delete(ctx, asset.ID); err != nil {
		return models.NewInternalError(err)
	}
	for _, rel := range []string{asset.OriginalPath, asset.WebPPath} {
		if rel == "" {
			continue
		}
		if rmErr := os.Remove(filepath.Join(s.root, rel)); rmErr != nil && !os.IsNotExist(rmErr) {
			middleware.Logger.Warn("failed to remove asset file", "path", rel, "error", rmErr)
		}
	}
	return nil
}

// isValidAssetHash checks that the hash is strictly lowercase hex. This
// prevents path traversal via crafted asset ids.
func isValidAssetHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func removeAssetFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
