package tensor

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Image conversion errors.
var (
	ErrEmptyBatch  = errors.New("tensor: empty image batch")
	ErrMixedBounds = errors.New("tensor: images in a batch must share dimensions")
)

// FromImages converts decoded images into a [B, 3, H, W] batch with planar
// RGB channels normalized to [0, 1]. All images must share dimensions;
// resample with Resize first if they do not.
func FromImages(imgs []image.Image) (Tensor, error) {
	if len(imgs) == 0 {
		return Tensor{}, ErrEmptyBatch
	}
	w := imgs[0].Bounds().Dx()
	h := imgs[0].Bounds().Dy()
	t := New(len(imgs), 3, h, w)
	plane := h * w
	for b, img := range imgs {
		bounds := img.Bounds()
		if bounds.Dx() != w || bounds.Dy() != h {
			return Tensor{}, fmt.Errorf("%w: image %d is %dx%d, want %dx%d",
				ErrMixedBounds, b, bounds.Dx(), bounds.Dy(), w, h)
		}
		base := b * 3 * plane
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				// RGBA() returns values in [0, 65535]
				t.Data[base+i] = float32(r) / 65535.0
				t.Data[base+plane+i] = float32(g) / 65535.0
				t.Data[base+2*plane+i] = float32(bl) / 65535.0
				i++
			}
		}
	}
	return t, nil
}

// FromImagesGray converts decoded images into a [B, 1, H, W] luminance
// batch normalized to [0, 1], using the Rec. 601 weights the standard
// library's gray model uses.
func FromImagesGray(imgs []image.Image) (Tensor, error) {
	if len(imgs) == 0 {
		return Tensor{}, ErrEmptyBatch
	}
	w := imgs[0].Bounds().Dx()
	h := imgs[0].Bounds().Dy()
	t := New(len(imgs), 1, h, w)
	plane := h * w
	for b, img := range imgs {
		bounds := img.Bounds()
		if bounds.Dx() != w || bounds.Dy() != h {
			return Tensor{}, fmt.Errorf("%w: image %d is %dx%d, want %dx%d",
				ErrMixedBounds, b, bounds.Dx(), bounds.Dy(), w, h)
		}
		i := b * plane
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				lum := (299*float32(r) + 587*float32(g) + 114*float32(bl)) / 1000
				t.Data[i] = lum / 65535.0
				i++
			}
		}
	}
	return t, nil
}

// Resize scales an image to the given size with Catmull-Rom resampling.
// Useful for bringing a batch to shared dimensions before FromImages.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ToGray renders one [b, c] plane of a [B, C, H, W] tensor as an 8-bit
// grayscale image, clamping values to [0, 1]. Handy for inspecting
// normalized response maps.
func ToGray(t Tensor, b, c int) (*image.Gray, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("expected a BxCxHxW tensor, got shape %v", t.Shape)
	}
	if b < 0 || b >= t.Shape[0] || c < 0 || c >= t.Shape[1] {
		return nil, fmt.Errorf("plane [%d, %d] out of range for shape %v", b, c, t.Shape)
	}
	h := t.Shape[2]
	w := t.Shape[3]
	img := image.NewGray(image.Rect(0, 0, w, h))
	base := (b*t.Shape[1] + c) * h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := t.Data[base+y*w+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.Pix[y*img.Stride+x] = uint8(v*255 + 0.5)
		}
	}
	return img, nil
}
