// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes post images: decoding, EXIF orientation,
// resizing and thumbnail generation.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Display and thumbnail bounds for post images.
const (
	displayMaxWidth  = 1280
	displayMaxHeight = 1280
	displayQuality   = 85

	thumbWidth   = 400
	thumbHeight  = 300
	thumbQuality = 80
)

// MaxUploadSize is the maximum accepted post image size in bytes.
const MaxUploadSize = 10 << 20 // 10 MB

// ProcessResult contains the result of processing an uploaded post image.
type ProcessResult struct {
	// ImagePath is the relative path of the display image within the
	// uploads directory, stored on the post record.
	ImagePath string

	// ThumbPath is the relative path of the generated thumbnail.
	ThumbPath string

	Width    int
	Height   int
	MimeType string
	Size     int64
}

// Processor handles image processing operations using pure Go libraries.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new image processor writing below uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
	}
}

// ProcessPostImage reads an uploaded image, applies EXIF orientation,
// resizes it to display bounds and generates a thumbnail.
// Returns the stored paths relative to the uploads directory.
func (p *Processor) ProcessPostImage(reader io.Reader) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", MaxUploadSize)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Read EXIF orientation and auto-rotate
	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	// Fit within display bounds while maintaining aspect ratio
	bounds := img.Bounds()
	if bounds.Dx() > displayMaxWidth || bounds.Dy() > displayMaxHeight {
		img = imaging.Fit(img, displayMaxWidth, displayMaxHeight, imaging.Lanczos)
		bounds = img.Bounds()
	}

	name := uuid.New().String() + "." + formatExt(format)

	// Encode without EXIF (pure Go encoders don't preserve EXIF metadata)
	display, err := encodeImage(img, format, displayQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	imagePath := filepath.Join("posts", name)
	if err := p.saveImageFile(imagePath, display); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	// Thumbnail is cropped to exact size from center
	thumb := imaging.Fill(img, thumbWidth, thumbHeight, imaging.Center, imaging.Lanczos)
	thumbData, err := encodeImage(thumb, format, thumbQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumbPath := filepath.Join("posts", "thumbs", name)
	if err := p.saveImageFile(thumbPath, thumbData); err != nil {
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return &ProcessResult{
		ImagePath: imagePath,
		ThumbPath: thumbPath,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		MimeType:  formatToMimeType(format),
		Size:      int64(len(display)),
	}, nil
}

// ThumbPathFor returns the thumbnail path corresponding to a stored image path.
func ThumbPathFor(imagePath string) string {
	return filepath.Join(filepath.Dir(imagePath), "thumbs", filepath.Base(imagePath))
}

// DeletePostImage removes the display image and its thumbnail.
// Missing files are not an error.
func (p *Processor) DeletePostImage(imagePath string) error {
	if imagePath == "" {
		return nil
	}

	for _, rel := range []string{imagePath, ThumbPathFor(imagePath)} {
		abs, err := p.resolvePath(rel)
		if err != nil {
			return err
		}
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete image file: %w", err)
		}
	}
	return nil
}

// IsSupportedType checks if a MIME type is supported for upload.
func (p *Processor) IsSupportedType(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// DetectMimeType detects the MIME type of image data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "image/jpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// WebP decoding is supported but encoding is not in pure Go,
		// so WebP uploads are stored as JPEG.
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// formatExt returns the stored file extension for a format.
func formatExt(format string) string {
	switch format {
	case "png":
		return "png"
	case "gif":
		return "gif"
	default:
		// webp is re-encoded as jpeg
		return "jpg"
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// resolvePath resolves a relative image path below the uploads directory,
// rejecting traversal outside it.
func (p *Processor) resolvePath(rel string) (string, error) {
	cleanRel := filepath.Clean(rel)
	if strings.Contains(cleanRel, "..") || filepath.IsAbs(cleanRel) {
		return "", fmt.Errorf("invalid image path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	absTarget := filepath.Join(absBase, cleanRel)
	relCheck, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(relCheck, "..") {
		return "", fmt.Errorf("path traversal detected")
	}

	return absTarget, nil
}

// saveImageFile writes image data to a path relative to the uploads directory,
// creating parent directories as needed.
func (p *Processor) saveImageFile(rel string, data []byte) error {
	abs, err := p.resolvePath(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(abs, data, 0644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
