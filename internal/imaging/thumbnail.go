// Package imaging normalizes user thumbnails for upload. Transports expect
// a small JPEG; arbitrary user images are decoded, resized to a fixed
// square, and re-encoded.
package imaging

import (
	"fmt"

	img "github.com/disintegration/imaging"
)

// ThumbnailSize is the square edge length transports expect for upload
// thumbnails.
const ThumbnailSize = 320

// Normalize decodes the image at srcPath, resizes it to
// ThumbnailSize x ThumbnailSize, and writes it as JPEG to dstPath.
func Normalize(srcPath, dstPath string) error {
	src, err := img.Open(srcPath)
	if err != nil {
		return fmt.Errorf("decode thumbnail %s: %w", srcPath, err)
	}
	resized := img.Resize(src, ThumbnailSize, ThumbnailSize, img.Lanczos)
	if err := img.Save(resized, dstPath, img.JPEGQuality(90)); err != nil {
		return fmt.Errorf("encode thumbnail %s: %w", dstPath, err)
	}
	return nil
}
