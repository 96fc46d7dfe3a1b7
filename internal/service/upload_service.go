package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"atelier/internal/config"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/observability"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Upload folders, also the URL prefix segment for served files.
const (
	FolderProjects = "projects"
	FolderAvatars  = "avatars"
	FolderCovers   = "covers"
)

const (
	defaultUploadDir     = "/tmp/atelier/uploads"
	defaultMaxSizeMB     = 10
	defaultMaxBatchFiles = 20
	thumbnailSize        = 256
	thumbWebPQuality     = 70
)

// UploadFileInput is one multipart file, already read into memory.
type UploadFileInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadService ingests image files: validates, decodes, stores the original
// under a content-hash name, computes dimensions and dominant color, and
// writes a webp thumbnail best-effort.
type UploadService struct {
	uploadDir     string
	maxSizeBytes  int64
	maxBatchFiles int
}

// NewUploadService creates a new upload service from config.
func NewUploadService(cfg *config.Config) *UploadService {
	uploadDir := defaultUploadDir
	maxSizeMB := defaultMaxSizeMB
	maxBatch := defaultMaxBatchFiles
	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.UploadMaxSizeMB > 0 {
			maxSizeMB = cfg.UploadMaxSizeMB
		}
		if cfg.UploadMaxProjectFiles > 0 {
			maxBatch = cfg.UploadMaxProjectFiles
		}
	}
	return &UploadService{
		uploadDir:     uploadDir,
		maxSizeBytes:  int64(maxSizeMB) * 1024 * 1024,
		maxBatchFiles: maxBatch,
	}
}

// MaxBatchFiles is the per-request file cap for project batches.
func (s *UploadService) MaxBatchFiles() int {
	return s.maxBatchFiles
}

// UploadOne validates and stores a single image, returning its metadata.
func (s *UploadService) UploadOne(ctx context.Context, folder string, in UploadFileInput) (*models.ImageMeta, error) {
	span, _ := observability.NewSpan(ctx, "upload.one")
	defer span.End()
	span.AddAttributes(
		attribute.String("upload.folder", folder),
		attribute.Int("upload.size_bytes", len(in.Content)),
	)

	if !isUploadFolder(folder) {
		return nil, models.NewValidationError("Unknown upload folder: " + folder)
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isImageMIME(provided) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	hash := contentHash(in.Content)
	name := hash + extensionFor(format)
	rel := filepath.ToSlash(filepath.Join(folder, name))
	abs := filepath.Join(s.uploadDir, folder, name)
	if err := writeBytesToFile(abs, in.Content); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	s.writeThumbnail(decoded, folder, hash)
	observability.UploadBytes.WithLabelValues(folder).Add(float64(len(in.Content)))

	bounds := decoded.Bounds()
	return &models.ImageMeta{
		URL:           "/media/" + rel,
		Filename:      in.Filename,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		DominantColor: dominantColor(decoded),
	}, nil
}

// UploadBatch stores up to MaxBatchFiles images for a project. It fails the
// whole batch on the first invalid file so the client never gets a partially
// usable module list.
func (s *UploadService) UploadBatch(ctx context.Context, folder string, files []UploadFileInput) ([]*models.ImageMeta, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("No files uploaded")
	}
	if len(files) > s.maxBatchFiles {
		return nil, models.NewValidationError(fmt.Sprintf("Too many files (max %d)", s.maxBatchFiles))
	}
	results := make([]*models.ImageMeta, 0, len(files))
	for _, f := range files {
		meta, err := s.UploadOne(ctx, folder, f)
		if err != nil {
			return nil, err
		}
		results = append(results, meta)
	}
	return results, nil
}

// writeThumbnail renders a 256px webp variant. Failures are logged, not
// surfaced: the original is already stored and serves as fallback.
func (s *UploadService) writeThumbnail(img image.Image, folder, hash string) {
	thumb := scaleToFit(img, thumbnailSize, thumbnailSize)
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, thumb, &webp.Options{Quality: thumbWebPQuality}); err != nil {
		middleware.Logger.Warn("thumbnail encode failed", "hash", hash, "error", err)
		return
	}
	abs := filepath.Join(s.uploadDir, folder, hash+"_thumb.webp")
	if err := writeBytesToFile(abs, buf.Bytes()); err != nil {
		middleware.Logger.Warn("thumbnail write failed", "hash", hash, "error", err)
	}
}

// dominantColor box-scales the image down to a single pixel and formats the
// result as a hex color.
func dominantColor(img image.Image) string {
	one := image.NewRGBA(image.Rect(0, 0, 1, 1))
	xdraw.BiLinear.Scale(one, one.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	c := color.RGBAModel.Convert(one.At(0, 0)).(color.RGBA)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func scaleToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}
	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
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

func isUploadFolder(folder string) bool {
	switch folder {
	case FolderProjects, FolderAvatars, FolderCovers:
		return true
	default:
		return false
	}
}

func isImageMIME(contentType string) bool {
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

func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
