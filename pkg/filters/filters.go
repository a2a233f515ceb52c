// Package filters provides the denoising, edge and thresholding filters
// applied to radiographs before and between the pipeline stages.
package filters

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"dentalseg/internal/models"
	"dentalseg/pkg/config"
	"dentalseg/pkg/histogram"
)

// ToGray converts any image to an 8-bit grayscale image with its origin at (0,0)
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Median replaces each pixel by the median of the odd kernel x kernel window around it
func Median(img *image.Gray, kernel int) *image.Gray {
	return ToGray(effect.Median(img, radius(kernel)))
}

// Smooth blurs the image with a gaussian kernel of the given radius. Each of
// the two separable passes truncates to 8 bits, so flat areas may lose a
// couple of levels.
func Smooth(img *image.Gray, radius float64) *image.Gray {
	return ToGray(blur.Gaussian(img, radius))
}

// Sobel returns the gradient magnitude of the image
func Sobel(img *image.Gray) *image.Gray {
	return ToGray(effect.Sobel(img))
}

// Erode takes the local minimum over a size x size neighbourhood
func Erode(img *image.Gray, size int) *image.Gray {
	return ToGray(effect.Erode(img, radius(size)))
}

// Dilate takes the local maximum over a size x size neighbourhood
func Dilate(img *image.Gray, size int) *image.Gray {
	return ToGray(effect.Dilate(img, radius(size)))
}

// Closing fills dark gaps smaller than the structuring element
func Closing(img *image.Gray, size int) *image.Gray {
	return Erode(Dilate(img, size), size)
}

// Opening removes bright specks smaller than the structuring element
func Opening(img *image.Gray, size int) *image.Gray {
	return Dilate(Erode(img, size), size)
}

// ContrastEnhancement adds the top-hat and subtracts the bottom-hat of the
// image, brightening small bright details and darkening small dark ones.
// blend.Subtract(bg, fg) yields fg - bg.
func ContrastEnhancement(img *image.Gray, size int) *image.Gray {
	topHat := blend.Subtract(Opening(img, size), img)
	bottomHat := blend.Subtract(img, Closing(img, size))
	return ToGray(blend.Subtract(bottomHat, blend.Add(img, topHat)))
}

// Threshold sets pixels strictly above level to 255 and the rest to 0
func Threshold(img *image.Gray, level int) *image.Gray {
	if level >= 255 {
		return image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	}
	if level < 0 {
		level = -1
	}
	return segment.Threshold(img, uint8(level+1))
}

// LocalThreshold splits the image into cell x cell tiles and binarizes each
// tile at the level keeping its brightest pct of pixels
func LocalThreshold(img *image.Gray, cell int, pct float64) (*image.Gray, error) {
	if cell < 1 {
		return nil, fmt.Errorf("%w: cell size %d", models.ErrInvalidConfiguration, cell)
	}
	src := ToGray(img)
	b := src.Bounds()
	out := image.NewGray(b)
	for y0 := 0; y0 < b.Dy(); y0 += cell {
		for x0 := 0; x0 < b.Dx(); x0 += cell {
			tile := image.Rect(x0, y0, x0+cell, y0+cell).Intersect(b)
			values := make([]int, 0, tile.Dx()*tile.Dy())
			for y := tile.Min.Y; y < tile.Max.Y; y++ {
				for x := tile.Min.X; x < tile.Max.X; x++ {
					values = append(values, int(src.GrayAt(x, y).Y))
				}
			}
			thr := histogram.Threshold(histogram.Compute(values), pct)
			for y := tile.Min.Y; y < tile.Max.Y; y++ {
				for x := tile.Min.X; x < tile.Max.X; x++ {
					if int(src.GrayAt(x, y).Y) > thr {
						out.Pix[out.PixOffset(x, y)] = 255
					}
				}
			}
		}
	}
	return out, nil
}

// ApplyChain runs the steps of chain over img in order and returns the
// filtered copy; img itself is not modified
func ApplyChain(img image.Image, chain config.FilterChain) (*image.Gray, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	out := ToGray(img)
	if len(chain.Steps) == 0 {
		out = clone(out)
	}
	for _, step := range chain.Steps {
		switch step {
		case "median":
			out = Median(out, chain.MedianKernelSize)
		case "smooth":
			out = Smooth(out, chain.SmoothingRadius)
		case "sobel":
			out = Sobel(out)
		case "closing":
			out = Closing(out, chain.ClosingSize)
		case "contrast":
			out = ContrastEnhancement(out, chain.ClosingSize)
		case "threshold":
			out = Threshold(out, chain.ThresholdLevel)
		case "local":
			local, err := LocalThreshold(out, chain.LocalCellSize, chain.LocalPct)
			if err != nil {
				return nil, err
			}
			out = local
		}
	}
	return out, nil
}

func radius(size int) float64 {
	return float64(size / 2)
}

func clone(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
