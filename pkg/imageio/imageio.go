// Package imageio loads radiographs as 8-bit grayscale images and writes
// results back to disk. The format is chosen from the file extension:
// PNG, JPEG, GIF, TIFF and BMP are supported.
package imageio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"dentalseg/pkg/filters"
)

// LoadGray reads the image at path, applying any EXIF orientation, and
// converts it to grayscale
func LoadGray(path string) (*image.Gray, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return filters.ToGray(imaging.Grayscale(img)), nil
}

// Save writes img to path, creating the parent directory when needed
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// SaveGray writes a grayscale image to path
func SaveGray(path string, img *image.Gray) error {
	return Save(path, img)
}
