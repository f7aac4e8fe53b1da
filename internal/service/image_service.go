package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"aperture/internal/config"
	"aperture/internal/models"
	"aperture/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "uploads"
	DefaultImageMaxUploadSizeMB = 10
	MasterMaxSize               = 1080
	JPEGQuality                 = 82
	WebPQuality                 = 70
	// MaxImagePixels bounds the decoded size of an upload (40 megapixels).
	MaxImagePixels = 40_000_000

	// MediaPrefix is the URL prefix under which UPLOAD_DIR is served.
	MediaPrefix = "/media"
)

// StoredImage references an image written by an ImageStore.
type StoredImage struct {
	Key    string
	URL    string
	Width  int
	Height int
}

// ImageStore persists uploaded images and releases them again.
type ImageStore interface {
	Store(ctx context.Context, content []byte, contentType string) (*StoredImage, error)
	Release(ctx context.Context, key string) error
}

// ImageService stores images on local disk as <UPLOAD_DIR>/<hash>/master.jpg and master.webp.
type ImageService struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is the directory served under MediaPrefix.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// Store validates and re-encodes content, then writes both master variants.
func (s *ImageService) Store(ctx context.Context, content []byte, contentType string) (stored *StoredImage, err error) {
	_, span := observability.StartServiceSpan(ctx, "ImageService", "Store")
	defer func() { observability.EndSpan(span, err) }()

	if len(content) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError("Image dimensions too large")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)

	jpg, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	wp, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := newImageHash(jpg)
	jpgPath := filepath.Join(s.uploadDir, hash, "master.jpg")
	webpPath := filepath.Join(s.uploadDir, hash, "master.webp")

	if err := writeBytesToFile(jpgPath, jpg); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpPath, wp); err != nil {
		_ = os.RemoveAll(filepath.Join(s.uploadDir, hash))
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &StoredImage{
		Key:    hash,
		URL:    MasterImageURL(hash),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Release removes the image directory. Releasing an unknown key is not an error.
func (s *ImageService) Release(_ context.Context, key string) error {
	if !isValidImageHash(key) {
		return models.NewValidationError("Invalid image hash")
	}
	if err := os.RemoveAll(filepath.Join(s.uploadDir, key)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// MasterImageURL is the public URL of the JPEG master of hash.
func MasterImageURL(hash string) string {
	return fmt.Sprintf("%s/%s/master.jpg", MediaPrefix, hash)
}

// newImageHash keys every upload uniquely so releasing one post never removes another's image.
func newImageHash(content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:", uuid.NewString())
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// isValidImageHash checks that the hash is strictly lowercase hex (SHA-256 style).
// This prevents path traversal attacks via crafted hash parameters.
func isValidImageHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
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

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

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

func isSupportedDecodedFormat(format string) bool {
	return decodedFormatToMime(format) != ""
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
